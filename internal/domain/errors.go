package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound — общий признак отсутствующей сущности.
	ErrNotFound = errors.New("not found")

	// ErrTopicNotFound возвращается, когда тема не найдена или неактивна.
	ErrTopicNotFound = fmt.Errorf("topic %w", ErrNotFound)

	// ErrContentNotFound возвращается, когда карточка или short не найдены.
	ErrContentNotFound = fmt.Errorf("content %w", ErrNotFound)

	// ErrValidation возвращается при некорректных параметрах пагинации или фильтров.
	ErrValidation = errors.New("validation failed")

	// ErrStoreUnavailable возвращается при отказе хранилища контента.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError описывает конкретное нарушение в параметрах запроса.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError создаёт ошибку валидации поля.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
