package domain

import (
	"context"
	"time"
)

// TagJobCause описывает источник запроса на перетегирование.
type TagJobCause string

const (
	// TagCauseAdmin — запрос из админки или CLI.
	TagCauseAdmin TagJobCause = "admin"
	// TagCauseContentUpdated — контент изменился и его нужно перетегировать.
	TagCauseContentUpdated TagJobCause = "content_updated"
)

// TagJob содержит задачу замены тем у единицы контента.
// Если Attributes не заданы, воркер загружает их из хранилища по Kind.
type TagJob struct {
	ID          string             `json:"job_id"`
	ContentID   string             `json:"content_id"`
	Kind        ContentKind        `json:"kind"`
	TopicIDs    []string           `json:"topic_ids"`
	Attributes  *ContentAttributes `json:"attributes,omitempty"`
	RequestedAt time.Time          `json:"requested_at"`
	Cause       TagJobCause        `json:"cause"`
	// Attempt — номер повторной постановки после сбоя хранилища.
	Attempt int `json:"attempt,omitempty"`
}

// TagQueue описывает очередь задач тегирования.
type TagQueue interface {
	Enqueue(ctx context.Context, job TagJob) error
	Pop(ctx context.Context) (TagJob, error)
}
