package repo

import (
	"testing"
	"time"
)

func TestCardFromRowMetadata(t *testing.T) {
	category := "vets"
	card := cardFromRow(cardRow{
		ID:              "c1",
		Tags:            []string{},
		Metadata:        []byte(`{"propertyFeatures":["fence","pool"],"other":1}`),
		PartnerCategory: &category,
		IsActive:        true,
	})
	if card.Tags != nil {
		t.Fatalf("пустой массив тегов должен стать nil")
	}
	if len(card.PropertyFeatures) != 2 || card.PropertyFeatures[1] != "pool" {
		t.Fatalf("ожидали особенности из metadata, получили %v", card.PropertyFeatures)
	}
	if card.PartnerCategory == nil || *card.PartnerCategory != "vets" {
		t.Fatalf("ожидали категорию партнёра")
	}

	broken := cardFromRow(cardRow{ID: "c2", Metadata: []byte(`{not json`)})
	if broken.PropertyFeatures != nil {
		t.Fatalf("битый metadata не должен давать особенностей")
	}
	empty := ""
	if c := cardFromRow(cardRow{ID: "c3", PartnerCategory: &empty}); c.PartnerCategory != nil {
		t.Fatalf("пустая категория должна считаться отсутствующей")
	}
}

func TestTopicAndShortFromRow(t *testing.T) {
	desc := "Pets welcome"
	topic := topicFromRow(topicRow{ID: "t1", Slug: "pets", Description: &desc, ContentTags: []string{"pets"}, PropertyFeatures: []string{}})
	if topic.Description != desc || topic.Icon != "" {
		t.Fatalf("неожиданные описание/иконка: %+v", topic)
	}
	if topic.PropertyFeatures != nil || len(topic.ContentTags) != 1 {
		t.Fatalf("пустой словарь должен считаться отсутствующим")
	}

	published := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	short := shortFromRow(shortRow{ID: "s1", Highlights: []string{"pets"}, PublishedAt: &published, IsPublished: true})
	if !short.PublishedAt.Equal(published) || !short.IsPublished {
		t.Fatalf("неожиданный short: %+v", short)
	}
	if s := shortFromRow(shortRow{ID: "s2"}); !s.PublishedAt.IsZero() {
		t.Fatalf("без даты публикации время должно быть нулевым")
	}
}
