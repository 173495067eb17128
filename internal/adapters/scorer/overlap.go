package scorer

import (
	"sort"

	"estate-discovery/internal/domain"
)

// DefaultOverlapWeights — веса для поиска похожих тем.
var DefaultOverlapWeights = Weights{Tag: 3, Feature: 2, Category: 2}

// Overlap считает сырое пересечение словарей двух тем без нормировки.
type Overlap struct {
	weights Weights
}

// NewOverlap создаёт счётчик пересечений.
func NewOverlap(weights Weights) *Overlap {
	return &Overlap{weights: weights}
}

// Score возвращает взвешенное число общих элементов словарей.
func (o *Overlap) Score(a, b domain.Topic) float64 {
	score := float64(countIn(domain.NormalizeTerms(b.ContentTags), termSet(a.ContentTags))) * o.weights.Tag
	score += float64(countIn(domain.NormalizeTerms(b.PropertyFeatures), termSet(a.PropertyFeatures))) * o.weights.Feature
	score += float64(countIn(domain.NormalizeTerms(b.PartnerCategories), termSet(a.PartnerCategories))) * o.weights.Category
	return score
}

// Related ранжирует кандидатов по пересечению с темой. Сама тема и кандидаты
// с нулевым пересечением отбрасываются. limit <= 0 означает без ограничения.
func (o *Overlap) Related(topic domain.Topic, candidates []domain.Topic, limit int) []domain.ScoredTopic {
	items := make([]domain.ScoredTopic, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.ID == topic.ID {
			continue
		}
		score := o.Score(topic, candidate)
		if score <= 0 {
			continue
		}
		items = append(items, domain.ScoredTopic{Topic: candidate, Score: score})
	}
	SortScored(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// SortScored упорядочивает по убыванию оценки, при равенстве по DisplayOrder и Name.
func SortScored(items []domain.ScoredTopic) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		if items[i].Topic.DisplayOrder != items[j].Topic.DisplayOrder {
			return items[i].Topic.DisplayOrder < items[j].Topic.DisplayOrder
		}
		return items[i].Topic.Name < items[j].Topic.Name
	})
}
