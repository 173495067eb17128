package seed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"estate-discovery/internal/adapters/memstore"
	"estate-discovery/internal/domain"
)

const sample = `
topics:
  - id: t-pets
    slug: pet-friendly
    name: Pet Friendly
    display_order: 1
    content_tags: [Pets, " yard "]
    partner_categories: [vets]
  - id: t-hidden
    slug: hidden
    name: Hidden
    active: false
cards:
  - id: c1
    title: Cosy flat
    content_type: listing
    tags: [pets]
    partner_category: vets
    price_min: 100000
    price_max: 150000
    engagement_score: 4.5
    created_at: 2024-03-01T10:00:00Z
shorts:
  - id: s1
    title: Tour
    content_type: tour
    highlights: [yard]
    published: false
tags:
  - content_id: c1
    topic_ids: [t-pets, t-unknown]
  - content_id: missing
    topic_ids: [t-pets]
`

type recordingTagger struct {
	calls map[string]domain.ContentAttributes
}

func (r *recordingTagger) TagContent(_ context.Context, contentID string, topicIDs []string, attrs domain.ContentAttributes) ([]domain.ContentTopicEdge, error) {
	r.calls[contentID] = attrs
	return []domain.ContentTopicEdge{{ContentID: contentID, TopicID: topicIDs[0], RelevanceScore: 10}}, nil
}

func TestDecodeAndApply(t *testing.T) {
	file, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	store := memstore.New()
	tagger := &recordingTagger{calls: map[string]domain.ContentAttributes{}}

	written, err := Apply(context.Background(), file, store, tagger)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if written != 1 || len(tagger.calls) != 1 {
		t.Fatalf("ожидали одно назначение, записано %d", written)
	}
	if attrs := tagger.calls["c1"]; attrs.PartnerCategory != "vets" || attrs.Tags[0] != "pets" {
		t.Fatalf("атрибуты карточки должны передаваться теггеру: %+v", attrs)
	}

	ctx := context.Background()
	topics, _ := store.ListActiveTopics(ctx)
	if len(topics) != 1 || topics[0].ContentTags[1] != "yard" {
		t.Fatalf("ожидали одну активную тему с нормализованным словарём, получили %+v", topics)
	}
	if _, err := store.GetTopicBySlug(ctx, "hidden"); !errors.Is(err, domain.ErrTopicNotFound) {
		t.Fatalf("неактивная тема не должна находиться")
	}
	card, err := store.GetCard(ctx, "c1")
	if err != nil || *card.PriceMax != 150000 || card.CreatedAt.Year() != 2024 {
		t.Fatalf("неожиданная карточка %+v (%v)", card, err)
	}
	short, _ := store.GetShort(ctx, "s1")
	if short.IsPublished {
		t.Fatalf("short должен остаться неопубликованным")
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"пусто":          "cards: []\n",
		"дубликат slug":  "topics:\n  - {id: a, slug: x, name: A}\n  - {id: b, slug: x, name: B}\n",
		"без имени":      "topics:\n  - {id: a, slug: x}\n",
		"лишнее поле":    "topics:\n  - {id: a, slug: x, name: A, colour: red}\n",
		"карточка без id": "topics:\n  - {id: a, slug: x, name: A}\ncards:\n  - {title: T}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(doc)); err == nil {
				t.Fatalf("ожидали ошибку")
			}
		})
	}
}

func TestLoadExampleFile(t *testing.T) {
	file, err := LoadFile("../../../configs/seed.example.yaml")
	if err != nil {
		t.Fatalf("пример seed должен загружаться: %v", err)
	}
	store := memstore.New()
	tagger := &recordingTagger{calls: map[string]domain.ContentAttributes{}}
	if _, err := Apply(context.Background(), file, store, tagger); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if attrs, ok := tagger.calls["short-dog-park"]; !ok || len(attrs.Tags) != 2 {
		t.Fatalf("highlights short должны передаваться как теги: %+v", attrs)
	}
	topics, _ := store.ListActiveTopics(context.Background())
	if len(topics) != 3 || topics[0].ID != "pet-friendly" {
		t.Fatalf("неожиданные темы: %+v", topics)
	}
}
