package domain

import "math"

// Pagination задаёт страницу выдачи. Page начинается с 1.
type Pagination struct {
	Page  int
	Limit int
}

// Offset возвращает смещение для запроса к хранилищу.
func (p Pagination) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// OffsetInRange сообщает, что смещение страницы помещается в int без переполнения.
func (p Pagination) OffsetInRange() bool {
	if p.Page <= 1 || p.Limit <= 0 {
		return true
	}
	return p.Page-1 <= math.MaxInt/p.Limit
}

// FeedFilters — пользовательские фильтры ленты.
type FeedFilters struct {
	ContentTypes []string
	PriceMin     *int64
	PriceMax     *int64
}

// ArrayColumn — колонка-массив, по которой хранилище умеет проверять вхождение.
type ArrayColumn string

const (
	// ColumnTags — теги карточки.
	ColumnTags ArrayColumn = "tags"
	// ColumnPropertyFeatures — особенности объекта из metadata карточки.
	ColumnPropertyFeatures ArrayColumn = "property_features"
	// ColumnPartnerCategory — категория партнёра (скаляр, сравнивается на равенство).
	ColumnPartnerCategory ArrayColumn = "partner_category"
	// ColumnHighlights — highlights у short.
	ColumnHighlights ArrayColumn = "highlights"
)

// Containment — предикат «колонка содержит значение».
type Containment struct {
	Column ArrayColumn
	Value  string
}

// ContentMatch определяет, какой контент относится к теме.
// Если IDs не пуст, выбираются ровно эти записи, AnyOf игнорируется.
// Иначе запись подходит, если выполняется хотя бы один предикат AnyOf.
// Пустой матч не выбирает ничего.
type ContentMatch struct {
	IDs   []string
	AnyOf []Containment
}

// Explicit сообщает, что выборка идёт по явным связям.
func (m ContentMatch) Explicit() bool {
	return len(m.IDs) > 0
}

// Empty сообщает, что матч не выберет ни одной записи.
func (m ContentMatch) Empty() bool {
	return len(m.IDs) == 0 && len(m.AnyOf) == 0
}

// CardQuery — запрос к хранилищу карточек.
type CardQuery struct {
	Match   ContentMatch
	Filters FeedFilters
	Limit   int
	Offset  int
}

// ShortQuery — запрос к хранилищу shorts.
type ShortQuery struct {
	Match        ContentMatch
	ContentTypes []string
	Limit        int
	Offset       int
}
