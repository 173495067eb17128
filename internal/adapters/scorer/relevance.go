package scorer

import (
	"estate-discovery/internal/domain"
)

const (
	// MinScore — нижняя граница оценки. Ноль зарезервирован за «никогда не тегировали».
	MinScore = 0.1
	// MaxScore — верхняя граница оценки.
	MaxScore = 10.0
	// NeutralScore возвращается, когда у темы и контента нет общих измерений.
	NeutralScore = 1.0
)

// Weights задаёт веса измерений словаря темы.
type Weights struct {
	Tag      float64
	Feature  float64
	Category float64
}

// DefaultRelevanceWeights — веса для оценки релевантности контента теме.
var DefaultRelevanceWeights = Weights{Tag: 3, Feature: 2, Category: 5}

// Relevance применяет детерминированный взвешенный скоринг.
type Relevance struct {
	weights Weights
}

// NewRelevance создаёт скорер с заданными весами.
func NewRelevance(weights Weights) *Relevance {
	return &Relevance{weights: weights}
}

// Score возвращает долю словаря темы, которую покрывает контент, в шкале [0.1, 10].
func (r *Relevance) Score(topic domain.Topic, attrs domain.ContentAttributes) float64 {
	var score, maxScore float64

	topicTags := termSet(topic.ContentTags)
	contentTags := domain.NormalizeTerms(attrs.Tags)
	if len(topicTags) > 0 && len(contentTags) > 0 {
		matches := countIn(contentTags, topicTags)
		score += float64(minInt(matches, len(topicTags))) * r.weights.Tag
		maxScore += float64(len(topicTags)) * r.weights.Tag
	}

	topicFeatures := termSet(topic.PropertyFeatures)
	contentFeatures := domain.NormalizeTerms(attrs.PropertyFeatures)
	if len(topicFeatures) > 0 && len(contentFeatures) > 0 {
		matches := countIn(contentFeatures, topicFeatures)
		score += float64(minInt(matches, len(topicFeatures))) * r.weights.Feature
		maxScore += float64(len(topicFeatures)) * r.weights.Feature
	}

	topicCategories := termSet(topic.PartnerCategories)
	category := domain.NormalizeTerm(attrs.PartnerCategory)
	if len(topicCategories) > 0 && category != "" {
		if _, ok := topicCategories[category]; ok {
			score += r.weights.Category
		}
		maxScore += r.weights.Category
	}

	if maxScore == 0 {
		return NeutralScore
	}
	return Clamp(score / maxScore * MaxScore)
}

// Clamp ограничивает оценку диапазоном [MinScore, MaxScore].
func Clamp(v float64) float64 {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

func termSet(terms []string) map[string]struct{} {
	normalized := domain.NormalizeTerms(terms)
	set := make(map[string]struct{}, len(normalized))
	for _, term := range normalized {
		set[term] = struct{}{}
	}
	return set
}

func countIn(terms []string, set map[string]struct{}) int {
	n := 0
	for _, term := range terms {
		if _, ok := set[term]; ok {
			n++
		}
	}
	return n
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
