package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Драйверы хранилища.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Драйверы очереди тегирования.
const (
	QueueDriverNone     = "none"
	QueueDriverRedis    = "redis"
	QueueDriverRabbitMQ = "rabbitmq"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres" validate:"oneof=postgres memory"`
	SeedFile    string `envconfig:"SEED_FILE"`

	PGDSN      string `envconfig:"PG_DSN" validate:"required_if=StoreDriver postgres"`
	PGMaxConns int32  `envconfig:"PG_MAX_CONNS" default:"5"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	AdminToken  string `envconfig:"ADMIN_TOKEN"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	Discovery struct {
		MinTopicContent  int     `envconfig:"MIN_TOPIC_CONTENT" default:"20" validate:"min=0"`
		SuggestMinScore  float64 `envconfig:"SUGGEST_MIN_SCORE" default:"3.0" validate:"min=0"`
		RelatedLimit     int     `envconfig:"RELATED_LIMIT" default:"3" validate:"min=1"`
		DefaultPageLimit int     `envconfig:"DEFAULT_PAGE_LIMIT" default:"20" validate:"min=1"`
		MaxPageLimit     int     `envconfig:"MAX_PAGE_LIMIT" default:"100" validate:"gtefield=DefaultPageLimit"`
	} `envconfig:""`

	Cache struct {
		TopicsTTL time.Duration `envconfig:"CACHE_TOPICS_TTL" default:"5m"`
		CountTTL  time.Duration `envconfig:"CACHE_COUNT_TTL" default:"1m"`
		Prefix    string        `envconfig:"CACHE_PREFIX" default:"discovery:"`
	} `envconfig:""`

	Queues struct {
		Driver                string `envconfig:"QUEUE_DRIVER" default:"none" validate:"oneof=none redis rabbitmq"`
		TagQueueKey           string `envconfig:"TAG_QUEUE_KEY" default:"tag_jobs"`
		RabbitMQURL           string `envconfig:"RABBITMQ_URL"`
		RabbitMQManagementURL string `envconfig:"RABBITMQ_MANAGEMENT_URL"`
	} `envconfig:""`

	Breaker struct {
		Failures uint32        `envconfig:"BREAKER_FAILURES" default:"5"`
		Timeout  time.Duration `envconfig:"BREAKER_TIMEOUT" default:"30s"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

// Parse читает и проверяет конфиг, возвращая ошибку вместо завершения процесса.
func Parse() (AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Queues.Driver == QueueDriverRedis && cfg.RedisAddr == "" {
		return AppConfig{}, fmt.Errorf("invalid config: QUEUE_DRIVER=redis requires REDIS_ADDR")
	}
	if cfg.Queues.Driver == QueueDriverRabbitMQ && cfg.Queues.RabbitMQURL == "" {
		return AppConfig{}, fmt.Errorf("invalid config: QUEUE_DRIVER=rabbitmq requires RABBITMQ_URL")
	}
	return cfg, nil
}
