package domain

import (
	"context"
	"time"
)

// BusinessMetric описывает бизнесовое событие, которое сохраняется для последующего анализа.
type BusinessMetric struct {
	Event      string
	TopicID    *string
	ContentID  *string
	Metadata   map[string]any
	OccurredAt time.Time
}

const (
	// BusinessMetricEventContentTagged фиксирует замену тем у контента.
	BusinessMetricEventContentTagged = "content_tagged"
	// BusinessMetricEventTopicComingSoon фиксирует показ заглушки «Coming Soon».
	BusinessMetricEventTopicComingSoon = "topic_coming_soon"
)

// BusinessMetricRepo сохраняет бизнесовые события.
type BusinessMetricRepo interface {
	RecordBusinessMetric(ctx context.Context, metric BusinessMetric) error
}
