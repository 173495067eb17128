package repo

import (
	"fmt"
	"strings"

	"estate-discovery/internal/domain"
)

const (
	cardColumns  = `c.id, c.title, c.content_type, c.tags, c.metadata, c.partner_category, c.price_min, c.price_max, c.engagement_score, c.is_active, c.created_at`
	shortColumns = `s.id, s.title, s.content_type, s.highlights, s.performance_score, s.is_published, s.published_at`
)

// queryBuilder накапливает условия WHERE и позиционные аргументы.
type queryBuilder struct {
	where []string
	args  []any
}

func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) and(cond string) {
	b.where = append(b.where, cond)
}

func (b *queryBuilder) whereClause() string {
	if len(b.where) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.where, "\n  AND ")
}

// matchCondition строит условие отбора контента темы: либо явный список ID,
// либо OR предикатов вхождения. Пустой матч возвращает false.
func (b *queryBuilder) matchCondition(alias string, match domain.ContentMatch, columns []domain.ArrayColumn) bool {
	if match.Explicit() {
		b.and(fmt.Sprintf("%s.id = ANY(%s)", alias, b.arg(match.IDs)))
		return true
	}
	grouped := groupContainments(match.AnyOf)
	var ors []string
	for _, column := range columns {
		values, ok := grouped[column]
		if !ok {
			continue
		}
		placeholder := b.arg(values)
		switch column {
		case domain.ColumnTags:
			ors = append(ors, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(%s.tags) AS t(v) WHERE lower(btrim(t.v)) = ANY(%s))", alias, placeholder))
		case domain.ColumnPropertyFeatures:
			ors = append(ors, fmt.Sprintf("EXISTS (SELECT 1 FROM jsonb_array_elements_text(COALESCE(%s.metadata->'propertyFeatures', '[]'::jsonb)) AS f(v) WHERE lower(btrim(f.v)) = ANY(%s))", alias, placeholder))
		case domain.ColumnPartnerCategory:
			ors = append(ors, fmt.Sprintf("lower(btrim(%s.partner_category)) = ANY(%s)", alias, placeholder))
		case domain.ColumnHighlights:
			ors = append(ors, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(%s.highlights) AS h(v) WHERE lower(btrim(h.v)) = ANY(%s))", alias, placeholder))
		}
	}
	if len(ors) == 0 {
		return false
	}
	b.and("(" + strings.Join(ors, "\n    OR ") + ")")
	return true
}

var (
	cardMatchColumns  = []domain.ArrayColumn{domain.ColumnTags, domain.ColumnPropertyFeatures, domain.ColumnPartnerCategory}
	shortMatchColumns = []domain.ArrayColumn{domain.ColumnHighlights}
)

// groupContainments сводит предикаты одной колонки в один список нормализованных значений.
func groupContainments(predicates []domain.Containment) map[domain.ArrayColumn][]string {
	raw := make(map[domain.ArrayColumn][]string)
	for _, p := range predicates {
		raw[p.Column] = append(raw[p.Column], p.Value)
	}
	grouped := make(map[domain.ArrayColumn][]string, len(raw))
	for column, values := range raw {
		if cleaned := domain.NormalizeTerms(values); len(cleaned) > 0 {
			grouped[column] = cleaned
		}
	}
	return grouped
}

// buildCardQuery возвращает SQL выборки карточек. ok=false означает, что запрос ничего не выберет.
func buildCardQuery(q domain.CardQuery) (sql string, args []any, ok bool) {
	b := &queryBuilder{}
	b.and("c.is_active")
	if !b.matchCondition("c", q.Match, cardMatchColumns) {
		return "", nil, false
	}
	if len(q.Filters.ContentTypes) > 0 {
		b.and(fmt.Sprintf("c.content_type = ANY(%s)", b.arg(q.Filters.ContentTypes)))
	}
	if q.Filters.PriceMin != nil {
		b.and(fmt.Sprintf("c.price_min >= %s", b.arg(*q.Filters.PriceMin)))
	}
	if q.Filters.PriceMax != nil {
		b.and(fmt.Sprintf("c.price_max <= %s", b.arg(*q.Filters.PriceMax)))
	}
	sql = fmt.Sprintf(`SELECT %s
FROM content_cards c
%s
ORDER BY c.engagement_score DESC, c.created_at DESC, c.id
LIMIT %s OFFSET %s`, cardColumns, b.whereClause(), b.arg(q.Limit), b.arg(max(q.Offset, 0)))
	return sql, b.args, true
}

// buildShortQuery возвращает SQL выборки shorts.
func buildShortQuery(q domain.ShortQuery) (sql string, args []any, ok bool) {
	b := &queryBuilder{}
	b.and("s.is_published")
	if !b.matchCondition("s", q.Match, shortMatchColumns) {
		return "", nil, false
	}
	if len(q.ContentTypes) > 0 {
		b.and(fmt.Sprintf("s.content_type = ANY(%s)", b.arg(q.ContentTypes)))
	}
	sql = fmt.Sprintf(`SELECT %s
FROM explore_shorts s
%s
ORDER BY s.performance_score DESC, s.published_at DESC, s.id
LIMIT %s OFFSET %s`, shortColumns, b.whereClause(), b.arg(q.Limit), b.arg(max(q.Offset, 0)))
	return sql, b.args, true
}
