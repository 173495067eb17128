package discovery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"estate-discovery/internal/domain"
)

func (s *Service) validateFeedRequest(req FeedRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return translateValidation(err)
	}
	if req.Limit > s.cfg.MaxPageLimit {
		return domain.NewValidationError("limit", fmt.Sprintf("must not exceed %d", s.cfg.MaxPageLimit))
	}
	if err := validatePage(s.normalizePage(domain.Pagination{Page: req.Page, Limit: req.Limit})); err != nil {
		return err
	}
	if req.PriceMin != nil && req.PriceMax != nil && *req.PriceMin > *req.PriceMax {
		return domain.NewValidationError("priceMin", "must not exceed priceMax")
	}
	return nil
}

// validatePage отклоняет страницу, смещение которой не помещается в int.
func validatePage(p domain.Pagination) error {
	if !p.OffsetInRange() {
		return domain.NewValidationError("page", fmt.Sprintf("is too large for limit %d", p.Limit))
	}
	return nil
}

// translateValidation превращает ошибки validator в domain.ValidationError по первому полю.
func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("request", err.Error())
	}
	fe := verrs[0]
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return domain.NewValidationError(field, "is required")
	case "min":
		return domain.NewValidationError(field, "must be at least "+fe.Param())
	case "max":
		return domain.NewValidationError(field, "must be at most "+fe.Param())
	default:
		return domain.NewValidationError(field, "is invalid")
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
