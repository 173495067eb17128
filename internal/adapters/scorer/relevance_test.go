package scorer

import (
	"math"
	"testing"

	"estate-discovery/internal/domain"
)

func TestRelevanceScore(t *testing.T) {
	r := NewRelevance(DefaultRelevanceWeights)
	tests := []struct {
		name  string
		topic domain.Topic
		attrs domain.ContentAttributes
		want  float64
	}{
		{
			name:  "pet friendly example",
			topic: domain.Topic{ContentTags: []string{"pets", "fenced-yard"}},
			attrs: domain.ContentAttributes{Tags: []string{"pets", "pool"}},
			want:  5.0,
		},
		{
			name:  "no shared dimension",
			topic: domain.Topic{ContentTags: []string{"pets"}},
			attrs: domain.ContentAttributes{PropertyFeatures: []string{"garden"}},
			want:  NeutralScore,
		},
		{
			name:  "empty topic vocabulary",
			topic: domain.Topic{},
			attrs: domain.ContentAttributes{Tags: []string{"pets"}, PartnerCategory: "vets"},
			want:  NeutralScore,
		},
		{
			name:  "disjoint tags clamp to minimum",
			topic: domain.Topic{ContentTags: []string{"pets"}},
			attrs: domain.ContentAttributes{Tags: []string{"pool"}},
			want:  MinScore,
		},
		{
			name: "full match",
			topic: domain.Topic{
				ContentTags:       []string{"a", "b"},
				PropertyFeatures:  []string{"x"},
				PartnerCategories: []string{"vets"},
			},
			attrs: domain.ContentAttributes{Tags: []string{"a", "b"}, PropertyFeatures: []string{"x"}, PartnerCategory: "vets"},
			want:  MaxScore,
		},
		{
			name:  "category mismatch is all or nothing",
			topic: domain.Topic{PartnerCategories: []string{"vets"}},
			attrs: domain.ContentAttributes{PartnerCategory: "schools"},
			want:  MinScore,
		},
		{
			name:  "tags and features combined",
			topic: domain.Topic{ContentTags: []string{"a", "b"}, PropertyFeatures: []string{"x", "y"}},
			attrs: domain.ContentAttributes{Tags: []string{"a"}, PropertyFeatures: []string{"x", "y"}},
			want:  7.0,
		},
		{
			name:  "comparison ignores case",
			topic: domain.Topic{ContentTags: []string{"Pets", "fenced-yard"}},
			attrs: domain.ContentAttributes{Tags: []string{" PETS "}},
			want:  5.0,
		},
		{
			name:  "duplicate content tags count once",
			topic: domain.Topic{ContentTags: []string{"pets", "yard"}},
			attrs: domain.ContentAttributes{Tags: []string{"pets", "Pets", "pets"}},
			want:  5.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Score(tt.topic, tt.attrs)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRelevanceScoreAlwaysInRange(t *testing.T) {
	r := NewRelevance(DefaultRelevanceWeights)
	vocab := [][]string{nil, {"a"}, {"a", "b"}, {"c"}, {"a", "b", "c", "d"}}
	categories := []string{"", "vets", "schools"}
	topicCategories := [][]string{nil, {"vets"}, {"vets", "parks"}}
	for _, topicTags := range vocab {
		for _, topicFeatures := range vocab {
			for _, topicCats := range topicCategories {
				topic := domain.Topic{ContentTags: topicTags, PropertyFeatures: topicFeatures, PartnerCategories: topicCats}
				for _, tags := range vocab {
					for _, features := range vocab {
						for _, category := range categories {
							attrs := domain.ContentAttributes{Tags: tags, PropertyFeatures: features, PartnerCategory: category}
							got := r.Score(topic, attrs)
							if got < MinScore || got > MaxScore {
								t.Fatalf("оценка %v вне диапазона для темы %+v и контента %+v", got, topic, attrs)
							}
						}
					}
				}
			}
		}
	}
}

func TestClamp(t *testing.T) {
	if Clamp(0) != MinScore {
		t.Fatalf("ожидали минимальную оценку")
	}
	if Clamp(42) != MaxScore {
		t.Fatalf("ожидали максимальную оценку")
	}
	if Clamp(4.2) != 4.2 {
		t.Fatalf("ожидали значение без изменений")
	}
}
