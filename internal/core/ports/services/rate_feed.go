package services

import (
	"context"

	"github.com/SscSPs/mma_currency/internal/core/domain"
)

// RateFeed fetches BaseCurrency rates from the upstream publisher.
// Transport failures are returned as errors matching apperrors.ErrFetch;
// malformed content never is, it just yields fewer (or zero) rates.
type RateFeed interface {
	// FetchRecent returns the rates of the recent window (about 90 days).
	FetchRecent(ctx context.Context) ([]domain.ExchangeRate, error)

	// FetchHistorical returns every rate published since the feed's inception.
	FetchHistorical(ctx context.Context) ([]domain.ExchangeRate, error)
}
