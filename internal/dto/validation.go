package dto

import (
	"fmt"
	"time"

	"github.com/SscSPs/mma_currency/internal/apperrors"
	"github.com/SscSPs/mma_currency/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding tags to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("currency", validateCurrencyCode)
}

// validateCurrencyCode accepts exactly three ASCII letters, in any case.
func validateCurrencyCode(fl validator.FieldLevel) bool {
	return domain.IsCurrencyCode(fl.Field().String())
}

// ParseRateDate parses an optional YYYY-MM-DD date. An empty string yields nil.
// Dates before the feed's first publication or after today are rejected.
func ParseRateDate(raw string, now time.Time) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, apperrors.NewValidationError("date must be formatted as YYYY-MM-DD")
	}
	if d.Before(domain.FeedInceptionDate) {
		return nil, apperrors.NewValidationError("date must not be before " + domain.FormatDate(domain.FeedInceptionDate))
	}
	if d.After(domain.DateOf(now.UTC())) {
		return nil, apperrors.NewValidationError("date must not be in the future")
	}
	return &d, nil
}
