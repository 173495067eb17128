package domain

import (
	"context"
	"time"
)

// TopicRepo хранит определения тем.
type TopicRepo interface {
	// ListActiveTopics возвращает активные темы по DisplayOrder, затем по Name.
	ListActiveTopics(ctx context.Context) ([]Topic, error)
	// GetTopicBySlug возвращает только активную тему.
	GetTopicBySlug(ctx context.Context, slug string) (Topic, error)
	// GetTopicByID не фильтрует по IsActive.
	GetTopicByID(ctx context.Context, id string) (Topic, error)
}

// EdgeRepo хранит связи контента с темами.
type EdgeRepo interface {
	// ReplaceContentTopics атомарно заменяет все связи контента на переданные.
	ReplaceContentTopics(ctx context.Context, contentID string, edges []ContentTopicEdge) error
	ListContentTopics(ctx context.Context, contentID string) ([]ContentTopicEdge, error)
	ListTopicContentIDs(ctx context.Context, topicID string) ([]string, error)
	CountTopicContent(ctx context.Context, topicID string) (int, error)
}

// CardRepo — хранилище карточек.
type CardRepo interface {
	QueryCards(ctx context.Context, q CardQuery) ([]Card, error)
	GetCard(ctx context.Context, id string) (Card, error)
}

// ShortRepo — хранилище коротких видео.
type ShortRepo interface {
	QueryShorts(ctx context.Context, q ShortQuery) ([]Short, error)
	GetShort(ctx context.Context, id string) (Short, error)
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
	Delete(keys ...string) error
}
