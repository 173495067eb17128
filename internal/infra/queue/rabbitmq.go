package queue

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"estate-discovery/internal/domain"
	"estate-discovery/internal/infra/metrics"
)

const defaultPollInterval = time.Second

// ErrNotRouted означает, что брокер принял публикацию, но не доставил её ни в одну очередь.
var ErrNotRouted = errors.New("rabbitmq: message not routed")

// RabbitTagQueue реализует очередь задач тегирования через HTTP API RabbitMQ.
type RabbitTagQueue struct {
	client       *http.Client
	baseURL      *url.URL
	vhost        string
	queue        string
	username     string
	password     string
	pollInterval time.Duration
}

var _ domain.TagQueue = (*RabbitTagQueue)(nil)

// RabbitOption настраивает RabbitTagQueue.
type RabbitOption func(*RabbitTagQueue)

// WithHTTPClient подменяет HTTP клиент Management API.
func WithHTTPClient(client *http.Client) RabbitOption {
	return func(q *RabbitTagQueue) { q.client = client }
}

// WithPollInterval задаёт паузу между пустыми опросами очереди.
func WithPollInterval(d time.Duration) RabbitOption {
	return func(q *RabbitTagQueue) {
		if d > 0 {
			q.pollInterval = d
		}
	}
}

// NewRabbitTagQueue создаёт очередь с использованием AMQP URL и Management API URL.
// Если managementURL пуст, он выводится из хоста AMQP на порту 15672.
func NewRabbitTagQueue(amqpURL, managementURL, queue string, opts ...RabbitOption) (*RabbitTagQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	parsed, err := url.Parse(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("parse amqp url: %w", err)
	}
	password, _ := parsed.User.Password()
	vhost := strings.TrimPrefix(parsed.Path, "/")
	if vhost == "" {
		vhost = "/"
	}
	base := strings.TrimSpace(managementURL)
	if base == "" {
		scheme := "http"
		if parsed.Scheme == "amqps" {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s:15672", scheme, parsed.Hostname())
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse management url: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/")

	q := &RabbitTagQueue{
		client:       &http.Client{Timeout: 10 * time.Second},
		baseURL:      baseURL,
		vhost:        vhost,
		queue:        queue,
		username:     parsed.User.Username(),
		password:     password,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

type publishRequest struct {
	Properties      publishProperties `json:"properties"`
	RoutingKey      string            `json:"routing_key"`
	Payload         string            `json:"payload"`
	PayloadEncoding string            `json:"payload_encoding"`
}

type publishProperties struct {
	ContentType  string `json:"content_type"`
	MessageID    string `json:"message_id,omitempty"`
	DeliveryMode int    `json:"delivery_mode"`
}

type publishResponse struct {
	Routed bool `json:"routed"`
}

type getRequest struct {
	Count    int    `json:"count"`
	AckMode  string `json:"ackmode"`
	Encoding string `json:"encoding"`
}

type rabbitMessage struct {
	Payload         string `json:"payload"`
	PayloadEncoding string `json:"payload_encoding"`
}

// Enqueue публикует задачу в очередь через exchange по умолчанию.
func (q *RabbitTagQueue) Enqueue(ctx context.Context, job domain.TagJob) error {
	job = prepareJob(job)
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	body := publishRequest{
		Properties:      publishProperties{ContentType: "application/json", MessageID: job.ID, DeliveryMode: 2},
		RoutingKey:      q.queue,
		Payload:         base64.StdEncoding.EncodeToString(payload),
		PayloadEncoding: "base64",
	}
	var out publishResponse
	path := fmt.Sprintf("/api/exchanges/%s/amq.default/publish", url.PathEscape(q.vhost))
	if err := q.post(ctx, "publish", path, body, &out); err != nil {
		return err
	}
	if !out.Routed {
		return fmt.Errorf("%w: queue %s", ErrNotRouted, q.queue)
	}
	return nil
}

// Pop опрашивает очередь, пока не появится задача или не отменится ctx.
func (q *RabbitTagQueue) Pop(ctx context.Context) (domain.TagJob, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.TagJob{}, err
		}
		var messages []rabbitMessage
		path := fmt.Sprintf("/api/queues/%s/%s/get", url.PathEscape(q.vhost), url.PathEscape(q.queue))
		err := q.post(ctx, "get", path, getRequest{Count: 1, AckMode: "ack_requeue_false", Encoding: "base64"}, &messages)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.TagJob{}, ctx.Err()
				}
				continue
			}
			return domain.TagJob{}, err
		}
		if len(messages) == 0 {
			select {
			case <-ctx.Done():
				return domain.TagJob{}, ctx.Err()
			case <-time.After(q.pollInterval):
			}
			continue
		}
		return decodeMessage(messages[0])
	}
}

func decodeMessage(msg rabbitMessage) (domain.TagJob, error) {
	raw := []byte(msg.Payload)
	if msg.PayloadEncoding == "" || msg.PayloadEncoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(msg.Payload)
		if err != nil {
			return domain.TagJob{}, fmt.Errorf("decode payload: %w", err)
		}
		raw = decoded
	}
	var job domain.TagJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return domain.TagJob{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}

func (q *RabbitTagQueue) post(ctx context.Context, op, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	endpoint := q.baseURL.String() + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if q.username != "" {
		req.SetBasicAuth(q.username, q.password)
	}

	start := time.Now()
	resp, err := q.client.Do(req)
	metrics.ObserveNetworkRequest("rabbitmq", op, q.queue, start, err)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s failed: status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
