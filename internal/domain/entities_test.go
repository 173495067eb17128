package domain

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestNormalizeTerms(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "nil", input: nil, want: nil},
		{name: "only blanks", input: []string{" ", ""}, want: nil},
		{name: "case and duplicates", input: []string{"Pets", " pets ", "Fenced-Yard"}, want: []string{"pets", "fenced-yard"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTerms(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("NormalizeTerms(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPaginationOffset(t *testing.T) {
	tests := []struct {
		page, limit, want int
	}{
		{page: 0, limit: 10, want: 0},
		{page: 1, limit: 10, want: 0},
		{page: 3, limit: 10, want: 20},
		{page: 2, limit: 0, want: 0},
	}
	for _, tt := range tests {
		if got := (Pagination{Page: tt.page, Limit: tt.limit}).Offset(); got != tt.want {
			t.Fatalf("Offset(page=%d, limit=%d) = %d, want %d", tt.page, tt.limit, got, tt.want)
		}
	}
}

func TestPaginationOffsetInRange(t *testing.T) {
	tests := []struct {
		page, limit int
		want        bool
	}{
		{page: 0, limit: 10, want: true},
		{page: 3, limit: 10, want: true},
		{page: math.MaxInt, limit: 1, want: true},
		{page: math.MaxInt/4 + 1, limit: 8, want: false},
		{page: math.MaxInt, limit: 2, want: false},
		{page: math.MaxInt, limit: 0, want: true},
	}
	for _, tt := range tests {
		if got := (Pagination{Page: tt.page, Limit: tt.limit}).OffsetInRange(); got != tt.want {
			t.Fatalf("OffsetInRange(page=%d, limit=%d) = %v, want %v", tt.page, tt.limit, got, tt.want)
		}
	}
}

func TestErrorTaxonomy(t *testing.T) {
	if !errors.Is(ErrTopicNotFound, ErrNotFound) {
		t.Fatalf("ожидали, что ErrTopicNotFound является ErrNotFound")
	}
	err := NewValidationError("limit", "must be positive")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ожидали, что ошибка валидации распознаётся через errors.Is")
	}
	if err.Error() != "limit: must be positive" {
		t.Fatalf("неожиданный текст ошибки: %s", err.Error())
	}
}

func TestCardAttributes(t *testing.T) {
	category := "vets"
	card := Card{Tags: []string{"pets"}, PropertyFeatures: []string{"yard"}, PartnerCategory: &category}
	attrs := card.Attributes()
	if attrs.PartnerCategory != "vets" || len(attrs.Tags) != 1 || len(attrs.PropertyFeatures) != 1 {
		t.Fatalf("неожиданные атрибуты карточки: %+v", attrs)
	}
	short := Short{Highlights: []string{"pool"}}
	if got := short.Attributes(); len(got.Tags) != 1 || got.Tags[0] != "pool" {
		t.Fatalf("ожидали highlights в роли тегов, получили %+v", got)
	}
}
