package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/mma_currency/internal/apperrors"
	"github.com/shopspring/decimal"
)

// RatePrecision is the number of fractional digits kept for derived (inverse and cross) rates.
const RatePrecision int32 = 12

// RateSource records which feed a rate was ingested from. It is audit data only.
type RateSource int

const (
	SourceRecentFeed RateSource = iota + 1
	SourceHistoricalFeed
)

func (s RateSource) String() string {
	switch s {
	case SourceRecentFeed:
		return "RECENT_FEED"
	case SourceHistoricalFeed:
		return "HISTORICAL_FEED"
	default:
		return fmt.Sprintf("RateSource(%d)", int(s))
	}
}

// Valid reports whether s is one of the known sources.
func (s RateSource) Valid() bool {
	return s == SourceRecentFeed || s == SourceHistoricalFeed
}

// ParseRateSource maps the persisted text form back to a RateSource.
func ParseRateSource(s string) (RateSource, error) {
	switch s {
	case "RECENT_FEED":
		return SourceRecentFeed, nil
	case "HISTORICAL_FEED":
		return SourceHistoricalFeed, nil
	default:
		return 0, fmt.Errorf("%w: unknown rate source %q", apperrors.ErrValidation, s)
	}
}

// ExchangeRate is the value of one BaseCurrency unit in TargetCurrency on Date.
type ExchangeRate struct {
	ExchangeRateID string          `json:"exchangeRateID"`
	Date           time.Time       `json:"date"`
	BaseCurrency   string          `json:"baseCurrency"`
	TargetCurrency string          `json:"targetCurrency"`
	Rate           decimal.Decimal `json:"rate"`
	Source         RateSource      `json:"source"`
	IngestedAt     time.Time       `json:"ingestedAt"`
}

// NewExchangeRate builds a validated rate. The date is truncated to a calendar date
// and the currency code upper-cased.
func NewExchangeRate(date time.Time, targetCurrency string, rate decimal.Decimal, source RateSource, ingestedAt time.Time) (ExchangeRate, error) {
	code := NormalizeCurrencyCode(targetCurrency)
	if !IsCurrencyCode(code) {
		return ExchangeRate{}, fmt.Errorf("%w: invalid currency code %q", apperrors.ErrValidation, targetCurrency)
	}
	if code == BaseCurrency {
		return ExchangeRate{}, fmt.Errorf("%w: target currency cannot be the base currency", apperrors.ErrValidation)
	}
	if !rate.IsPositive() {
		return ExchangeRate{}, fmt.Errorf("%w: exchange rate must be positive", apperrors.ErrValidation)
	}
	if !source.Valid() {
		return ExchangeRate{}, fmt.Errorf("%w: unknown rate source", apperrors.ErrValidation)
	}
	return ExchangeRate{
		Date:           DateOf(date),
		BaseCurrency:   BaseCurrency,
		TargetCurrency: code,
		Rate:           rate,
		Source:         source,
		IngestedAt:     ingestedAt,
	}, nil
}

// UpdateRate replaces the rate value and provenance in place.
func (r *ExchangeRate) UpdateRate(rate decimal.Decimal, source RateSource, at time.Time) error {
	if !rate.IsPositive() {
		return fmt.Errorf("%w: exchange rate must be positive", apperrors.ErrValidation)
	}
	if !source.Valid() {
		return fmt.Errorf("%w: unknown rate source", apperrors.ErrValidation)
	}
	r.Rate = rate
	r.Source = source
	r.IngestedAt = at
	return nil
}

// SameValue reports whether other carries the same rate and source.
func (r ExchangeRate) SameValue(other ExchangeRate) bool {
	return r.Rate.Equal(other.Rate) && r.Source == other.Source
}

// ConversionResult is the outcome of converting an amount on a given date. Not persisted.
type ConversionResult struct {
	OriginalAmount  decimal.Decimal `json:"originalAmount"`
	FromCurrency    string          `json:"fromCurrency"`
	ToCurrency      string          `json:"toCurrency"`
	ConvertedAmount decimal.Decimal `json:"convertedAmount"`
	RateUsed        decimal.Decimal `json:"rateUsed"`
	Date            time.Time       `json:"date"`
}
