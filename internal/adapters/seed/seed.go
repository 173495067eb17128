// Package seed загружает темы и контент из YAML-файла в хранилище в памяти.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"estate-discovery/internal/adapters/memstore"
	"estate-discovery/internal/domain"
)

// ErrEmptySeed означает, что в файле нет ни одной темы.
var ErrEmptySeed = errors.New("seed: no topics defined")

// File — структура seed-файла.
type File struct {
	Topics []Topic `yaml:"topics"`
	Cards  []Card  `yaml:"cards"`
	Shorts []Short `yaml:"shorts"`
	Tags   []Tag   `yaml:"tags"`
}

type Topic struct {
	ID                string   `yaml:"id"`
	Slug              string   `yaml:"slug"`
	Name              string   `yaml:"name"`
	Description       string   `yaml:"description"`
	Icon              string   `yaml:"icon"`
	DisplayOrder      int      `yaml:"display_order"`
	Active            *bool    `yaml:"active"`
	ContentTags       []string `yaml:"content_tags"`
	PropertyFeatures  []string `yaml:"property_features"`
	PartnerCategories []string `yaml:"partner_categories"`
}

type Card struct {
	ID               string    `yaml:"id"`
	Title            string    `yaml:"title"`
	ContentType      string    `yaml:"content_type"`
	Tags             []string  `yaml:"tags"`
	PropertyFeatures []string  `yaml:"property_features"`
	PartnerCategory  string    `yaml:"partner_category"`
	PriceMin         *int64    `yaml:"price_min"`
	PriceMax         *int64    `yaml:"price_max"`
	EngagementScore  float64   `yaml:"engagement_score"`
	Active           *bool     `yaml:"active"`
	CreatedAt        time.Time `yaml:"created_at"`
}

type Short struct {
	ID               string    `yaml:"id"`
	Title            string    `yaml:"title"`
	ContentType      string    `yaml:"content_type"`
	Highlights       []string  `yaml:"highlights"`
	PerformanceScore float64   `yaml:"performance_score"`
	Published        *bool     `yaml:"published"`
	PublishedAt      time.Time `yaml:"published_at"`
}

// Tag — явное назначение тем контенту; оценки считаются при применении.
type Tag struct {
	ContentID string   `yaml:"content_id"`
	TopicIDs  []string `yaml:"topic_ids"`
}

// Tagger записывает связи контента с темами.
type Tagger interface {
	TagContent(ctx context.Context, contentID string, topicIDs []string, attrs domain.ContentAttributes) ([]domain.ContentTopicEdge, error)
}

// LoadFile читает seed-файл с диска.
func LoadFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode разбирает и проверяет seed.
func Decode(r io.Reader) (File, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return File{}, fmt.Errorf("decode seed: %w", err)
	}
	if err := file.validate(); err != nil {
		return File{}, err
	}
	return file, nil
}

func (f File) validate() error {
	if len(f.Topics) == 0 {
		return ErrEmptySeed
	}
	ids := make(map[string]struct{}, len(f.Topics))
	slugs := make(map[string]struct{}, len(f.Topics))
	for i, t := range f.Topics {
		if t.ID == "" || t.Slug == "" || t.Name == "" {
			return fmt.Errorf("seed: topic #%d: id, slug and name are required", i)
		}
		if _, ok := ids[t.ID]; ok {
			return fmt.Errorf("seed: duplicate topic id %q", t.ID)
		}
		if _, ok := slugs[t.Slug]; ok {
			return fmt.Errorf("seed: duplicate topic slug %q", t.Slug)
		}
		ids[t.ID] = struct{}{}
		slugs[t.Slug] = struct{}{}
	}
	for i, c := range f.Cards {
		if c.ID == "" {
			return fmt.Errorf("seed: card #%d: id is required", i)
		}
	}
	for i, s := range f.Shorts {
		if s.ID == "" {
			return fmt.Errorf("seed: short #%d: id is required", i)
		}
	}
	return nil
}

// Apply кладёт темы и контент в store, затем проставляет связи через tagger.
// Назначения для неизвестного контента пропускаются.
func Apply(ctx context.Context, file File, store *memstore.Store, tagger Tagger) (int, error) {
	now := time.Now().UTC()
	for _, t := range file.Topics {
		store.PutTopic(domain.Topic{
			ID:                t.ID,
			Slug:              t.Slug,
			Name:              t.Name,
			Description:       t.Description,
			Icon:              t.Icon,
			DisplayOrder:      t.DisplayOrder,
			IsActive:          boolOr(t.Active, true),
			ContentTags:       domain.NormalizeTerms(t.ContentTags),
			PropertyFeatures:  domain.NormalizeTerms(t.PropertyFeatures),
			PartnerCategories: domain.NormalizeTerms(t.PartnerCategories),
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}

	attrs := make(map[string]domain.ContentAttributes, len(file.Cards)+len(file.Shorts))
	for _, c := range file.Cards {
		card := domain.Card{
			ID:               c.ID,
			Title:            c.Title,
			ContentType:      c.ContentType,
			Tags:             c.Tags,
			PropertyFeatures: c.PropertyFeatures,
			PriceMin:         c.PriceMin,
			PriceMax:         c.PriceMax,
			EngagementScore:  c.EngagementScore,
			IsActive:         boolOr(c.Active, true),
			CreatedAt:        timeOr(c.CreatedAt, now),
		}
		if c.PartnerCategory != "" {
			category := c.PartnerCategory
			card.PartnerCategory = &category
		}
		store.PutCard(card)
		attrs[card.ID] = card.Attributes()
	}
	for _, s := range file.Shorts {
		short := domain.Short{
			ID:               s.ID,
			Title:            s.Title,
			ContentType:      s.ContentType,
			Highlights:       s.Highlights,
			PerformanceScore: s.PerformanceScore,
			IsPublished:      boolOr(s.Published, true),
			PublishedAt:      timeOr(s.PublishedAt, now),
		}
		store.PutShort(short)
		attrs[short.ID] = short.Attributes()
	}

	written := 0
	for _, tag := range file.Tags {
		a, ok := attrs[tag.ContentID]
		if !ok {
			continue
		}
		edges, err := tagger.TagContent(ctx, tag.ContentID, tag.TopicIDs, a)
		if err != nil {
			return written, fmt.Errorf("seed: tag %s: %w", tag.ContentID, err)
		}
		written += len(edges)
	}
	return written, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func timeOr(v, def time.Time) time.Time {
	if v.IsZero() {
		return def
	}
	return v
}
