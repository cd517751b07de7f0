package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/SscSPs/mma_currency/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	cause := errors.New("connection reset")

	fetchErr := apperrors.NewFetchError("https://feed.example/rates.xml", 0, cause)
	assert.ErrorIs(t, fetchErr, apperrors.ErrFetch)
	assert.ErrorIs(t, fetchErr, cause)
	assert.NotErrorIs(t, fetchErr, apperrors.ErrStorage)

	storageErr := apperrors.NewStorageError("upsert rate", cause)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", storageErr), apperrors.ErrStorage)
	assert.Contains(t, storageErr.Error(), "upsert rate")

	parseErr := &apperrors.ParseError{Date: "2025-13-01", Currency: "USD", Reason: "bad date"}
	assert.ErrorIs(t, parseErr, apperrors.ErrParse)
}

func TestAppErrorConstructors(t *testing.T) {
	notFound := apperrors.NewNotFoundError("no rate")
	assert.ErrorIs(t, notFound, apperrors.ErrNotFound)
	assert.Equal(t, 404, notFound.Code)

	invalid := apperrors.NewValidationError("amount must not be negative")
	assert.ErrorIs(t, invalid, apperrors.ErrValidation)
	assert.Equal(t, 400, invalid.Code)
	assert.Equal(t, "amount must not be negative: validation error", invalid.Error())
}

func TestFetchErrorMessageWithStatus(t *testing.T) {
	err := apperrors.NewFetchError("https://feed.example/rates.xml", 503, nil)
	assert.Equal(t, "fetch https://feed.example/rates.xml: unexpected status 503", err.Error())
}
