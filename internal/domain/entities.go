package domain

import (
	"strings"
	"time"
)

// ContentKind различает два хранилища контента.
type ContentKind string

const (
	// ContentKindCard — карточка объявления или подборки.
	ContentKindCard ContentKind = "card"
	// ContentKindShort — короткое видео.
	ContentKindShort ContentKind = "short"
)

// Topic описывает тему, по которой пользователь просматривает контент.
type Topic struct {
	ID                string    `json:"id"`
	Slug              string    `json:"slug"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Icon              string    `json:"icon"`
	DisplayOrder      int       `json:"displayOrder"`
	IsActive          bool      `json:"-"`
	ContentTags       []string  `json:"contentTags"`
	PropertyFeatures  []string  `json:"propertyFeatures"`
	PartnerCategories []string  `json:"partnerCategories"`
	CreatedAt         time.Time `json:"-"`
	UpdatedAt         time.Time `json:"-"`
}

// HasVocabulary сообщает, задан ли у темы хотя бы один словарь.
func (t Topic) HasVocabulary() bool {
	return len(t.ContentTags) > 0 || len(t.PropertyFeatures) > 0 || len(t.PartnerCategories) > 0
}

// ContentAttributes — атрибуты контента, по которым он сопоставляется с темами.
// Для shorts в Tags лежат highlights.
type ContentAttributes struct {
	Tags             []string `json:"tags,omitempty"`
	PropertyFeatures []string `json:"propertyFeatures,omitempty"`
	PartnerCategory  string   `json:"partnerCategory,omitempty"`
}

// Card — карточка длинного контента.
type Card struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	ContentType      string    `json:"contentType"`
	Tags             []string  `json:"tags"`
	PropertyFeatures []string  `json:"propertyFeatures,omitempty"`
	PartnerCategory  *string   `json:"partnerCategory,omitempty"`
	PriceMin         *int64    `json:"priceMin,omitempty"`
	PriceMax         *int64    `json:"priceMax,omitempty"`
	EngagementScore  float64   `json:"engagementScore"`
	IsActive         bool      `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Attributes возвращает атрибуты карточки для сопоставления с темами.
func (c Card) Attributes() ContentAttributes {
	attrs := ContentAttributes{Tags: c.Tags, PropertyFeatures: c.PropertyFeatures}
	if c.PartnerCategory != nil {
		attrs.PartnerCategory = *c.PartnerCategory
	}
	return attrs
}

// Short — короткое видео.
type Short struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	ContentType      string    `json:"contentType"`
	Highlights       []string  `json:"highlights"`
	PerformanceScore float64   `json:"performanceScore"`
	IsPublished      bool      `json:"-"`
	PublishedAt      time.Time `json:"publishedAt"`
}

// Attributes возвращает атрибуты short: highlights играют роль тегов.
func (s Short) Attributes() ContentAttributes {
	return ContentAttributes{Tags: s.Highlights}
}

// ContentTopicEdge — явная связь контента с темой.
type ContentTopicEdge struct {
	ContentID      string    `json:"contentId"`
	TopicID        string    `json:"topicId"`
	RelevanceScore float64   `json:"relevanceScore"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ScoredTopic — тема с рассчитанной оценкой.
type ScoredTopic struct {
	Topic Topic   `json:"topic"`
	Score float64 `json:"score"`
}

// NormalizeTerm приводит элемент словаря к виду для сравнения.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// NormalizeTerms удаляет пустые и дублирующиеся значения, сохраняя порядок.
func NormalizeTerms(terms []string) []string {
	if len(terms) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(terms))
	cleaned := make([]string, 0, len(terms))
	for _, term := range terms {
		key := NormalizeTerm(term)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, key)
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}
