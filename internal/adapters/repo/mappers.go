package repo

import (
	"time"

	"github.com/goccy/go-json"

	"estate-discovery/internal/domain"
)

type topicRow struct {
	ID                string
	Slug              string
	Name              string
	Description       *string
	Icon              *string
	DisplayOrder      int
	IsActive          bool
	ContentTags       []string
	PropertyFeatures  []string
	PartnerCategories []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type cardRow struct {
	ID              string
	Title           string
	ContentType     string
	Tags            []string
	Metadata        []byte
	PartnerCategory *string
	PriceMin        *int64
	PriceMax        *int64
	EngagementScore float64
	IsActive        bool
	CreatedAt       time.Time
}

type shortRow struct {
	ID               string
	Title            string
	ContentType      string
	Highlights       []string
	PerformanceScore float64
	IsPublished      bool
	PublishedAt      *time.Time
}

// cardMetadata — известная часть произвольного JSON metadata карточки.
type cardMetadata struct {
	PropertyFeatures []string `json:"propertyFeatures"`
}

func topicFromRow(r topicRow) domain.Topic {
	return domain.Topic{
		ID:                r.ID,
		Slug:              r.Slug,
		Name:              r.Name,
		Description:       deref(r.Description),
		Icon:              deref(r.Icon),
		DisplayOrder:      r.DisplayOrder,
		IsActive:          r.IsActive,
		ContentTags:       nonEmpty(r.ContentTags),
		PropertyFeatures:  nonEmpty(r.PropertyFeatures),
		PartnerCategories: nonEmpty(r.PartnerCategories),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// cardFromRow не падает на битом metadata: такие карточки просто остаются без особенностей.
func cardFromRow(r cardRow) domain.Card {
	card := domain.Card{
		ID:              r.ID,
		Title:           r.Title,
		ContentType:     r.ContentType,
		Tags:            nonEmpty(r.Tags),
		PriceMin:        r.PriceMin,
		PriceMax:        r.PriceMax,
		EngagementScore: r.EngagementScore,
		IsActive:        r.IsActive,
		CreatedAt:       r.CreatedAt,
	}
	if r.PartnerCategory != nil && *r.PartnerCategory != "" {
		category := *r.PartnerCategory
		card.PartnerCategory = &category
	}
	if len(r.Metadata) > 0 {
		var meta cardMetadata
		if err := json.Unmarshal(r.Metadata, &meta); err == nil {
			card.PropertyFeatures = nonEmpty(meta.PropertyFeatures)
		}
	}
	return card
}

func shortFromRow(r shortRow) domain.Short {
	short := domain.Short{
		ID:               r.ID,
		Title:            r.Title,
		ContentType:      r.ContentType,
		Highlights:       nonEmpty(r.Highlights),
		PerformanceScore: r.PerformanceScore,
		IsPublished:      r.IsPublished,
	}
	if r.PublishedAt != nil {
		short.PublishedAt = *r.PublishedAt
	}
	return short
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return values
}
