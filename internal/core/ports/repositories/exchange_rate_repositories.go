package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/mma_currency/internal/core/domain"
)

// ExchangeRateReader defines read operations for exchange rate data
type ExchangeRateReader interface {
	// FindRate retrieves the BaseCurrency -> targetCurrency rate stored for exactly this date.
	// It returns an error matching apperrors.ErrNotFound when there is none.
	FindRate(ctx context.Context, date time.Time, targetCurrency string) (*domain.ExchangeRate, error)

	// LatestDate returns the most recent date with any stored rate; ok is false for an empty store.
	LatestDate(ctx context.Context) (date time.Time, ok bool, err error)

	// DatesInRange returns the distinct dates in [from, to] that have at least one rate.
	DatesInRange(ctx context.Context, from, to time.Time) (map[time.Time]struct{}, error)

	// SupportedCurrencies returns every target currency ever stored plus the base currency, sorted.
	SupportedCurrencies(ctx context.Context) ([]string, error)

	// LastIngestedAt returns the newest ingestion timestamp; ok is false for an empty store.
	LastIngestedAt(ctx context.Context) (at time.Time, ok bool, err error)
}

// ExchangeRateWriter defines write operations for exchange rate data
type ExchangeRateWriter interface {
	// UpsertRate inserts the rate, or updates rate and source in place when
	// one already exists for the same date and target currency.
	UpsertRate(ctx context.Context, rate domain.ExchangeRate) error
}

// ExchangeRateRepositoryFacade combines all exchange rate-related repository interfaces
type ExchangeRateRepositoryFacade interface {
	ExchangeRateReader
	ExchangeRateWriter
}
