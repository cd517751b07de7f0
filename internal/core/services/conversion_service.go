package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/mma_currency/internal/apperrors"
	"github.com/SscSPs/mma_currency/internal/core/domain"
	portsrepo "github.com/SscSPs/mma_currency/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mma_currency/internal/core/ports/services"
	"github.com/SscSPs/mma_currency/internal/platform/cache"
	"github.com/shopspring/decimal"
)

// DefaultRateCacheTTL bounds how stale a served rate may be after a sync updated it.
const DefaultRateCacheTTL = time.Hour

const supportedCurrenciesKey = "supported_currencies"

type currencyListCache interface {
	Get(ctx context.Context, key string) ([]string, bool)
	Set(ctx context.Context, key string, codes []string)
}

// conversionService resolves rates from the store, directly, inverted or through the base currency.
type conversionService struct {
	BaseService
	rateRepo      portsrepo.ExchangeRateReader
	rateCache     portssvc.RateCache
	currencyCache currencyListCache
	cacheTTL      time.Duration
	now           func() time.Time
}

// ConversionOption is a functional option for configuring the conversion service
type ConversionOption func(*conversionService)

// WithConversionClock replaces time.Now for the local caches and the "today" fallback date
func WithConversionClock(now func() time.Time) ConversionOption {
	return func(s *conversionService) {
		s.now = now
	}
}

// WithConversionCacheTTL sets the ttl of the caches the service creates itself
func WithConversionCacheTTL(ttl time.Duration) ConversionOption {
	return func(s *conversionService) {
		s.cacheTTL = ttl
	}
}

// WithConversionLogger sets the fallback logger used outside of a request
func WithConversionLogger(logger *slog.Logger) ConversionOption {
	return func(s *conversionService) {
		s.Logger = logger
	}
}

// NewConversionService creates the conversion service. A nil rateCache gets a local TTL cache.
func NewConversionService(repo portsrepo.ExchangeRateReader, rateCache portssvc.RateCache, options ...ConversionOption) (portssvc.ConversionSvcFacade, error) {
	svc := &conversionService{
		rateRepo:  repo,
		rateCache: rateCache,
		cacheTTL:  DefaultRateCacheTTL,
		now:       time.Now,
	}
	for _, option := range options {
		option(svc)
	}

	if svc.rateCache == nil {
		rates, err := cache.NewTTL[decimal.Decimal](cache.DefaultSize, svc.cacheTTL, cache.WithClock(svc.now))
		if err != nil {
			return nil, err
		}
		svc.rateCache = rates
	}
	currencies, err := cache.NewTTL[[]string](1, svc.cacheTTL, cache.WithClock(svc.now))
	if err != nil {
		return nil, err
	}
	svc.currencyCache = currencies

	return svc, nil
}

var _ portssvc.ConversionSvcFacade = (*conversionService)(nil)

func rateCacheKey(date time.Time, from, to string) string {
	return domain.FormatDate(date) + ":" + from + ":" + to
}

// GetRate returns the from->to rate for date. ok is false when a needed base rate is missing.
func (s *conversionService) GetRate(ctx context.Context, date time.Time, from, to string) (decimal.Decimal, bool, error) {
	from = domain.NormalizeCurrencyCode(from)
	to = domain.NormalizeCurrencyCode(to)
	if from == "" || to == "" {
		return decimal.Zero, false, apperrors.NewValidationError("currency code is required")
	}
	if from == to {
		return decimal.NewFromInt(1), true, nil
	}

	date = domain.DateOf(date)
	key := rateCacheKey(date, from, to)
	if rate, ok := s.rateCache.Get(ctx, key); ok {
		return rate, true, nil
	}

	rate, ok, err := s.resolveRate(ctx, date, from, to)
	if err != nil || !ok {
		return decimal.Zero, false, err
	}

	s.rateCache.Set(ctx, key, rate)
	return rate, true, nil
}

func (s *conversionService) resolveRate(ctx context.Context, date time.Time, from, to string) (decimal.Decimal, bool, error) {
	switch {
	case from == domain.BaseCurrency:
		return s.baseRate(ctx, date, to)

	case to == domain.BaseCurrency:
		rate, ok, err := s.baseRate(ctx, date, from)
		if err != nil || !ok {
			return decimal.Zero, false, err
		}
		return decimal.NewFromInt(1).DivRound(rate, domain.RatePrecision), true, nil

	default:
		// rate(A->B) = rate(base->B) / rate(base->A)
		fromRate, ok, err := s.baseRate(ctx, date, from)
		if err != nil || !ok {
			return decimal.Zero, false, err
		}
		toRate, ok, err := s.baseRate(ctx, date, to)
		if err != nil || !ok {
			return decimal.Zero, false, err
		}
		return toRate.DivRound(fromRate, domain.RatePrecision), true, nil
	}
}

// baseRate looks up base->currency. A missing rate is not an error.
func (s *conversionService) baseRate(ctx context.Context, date time.Time, currency string) (decimal.Decimal, bool, error) {
	rate, err := s.rateRepo.FindRate(ctx, date, currency)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogDebug(ctx, "No stored rate",
				slog.String("date", domain.FormatDate(date)),
				slog.String("currency", currency))
			return decimal.Zero, false, nil
		}
		s.LogError(ctx, err, "Failed to read exchange rate",
			slog.String("date", domain.FormatDate(date)),
			slog.String("currency", currency))
		return decimal.Zero, false, err
	}
	if !rate.Rate.IsPositive() {
		// The store never holds such a rate; treat it as missing rather than divide by it.
		s.LogWarn(ctx, "Ignoring non-positive stored rate",
			slog.String("date", domain.FormatDate(date)),
			slog.String("currency", currency))
		return decimal.Zero, false, nil
	}
	return rate.Rate, true, nil
}

// ResolveDate returns date, or the latest stored date when date is nil. An empty
// store resolves to today.
func (s *conversionService) ResolveDate(ctx context.Context, date *time.Time) (time.Time, error) {
	if date != nil {
		return domain.DateOf(*date), nil
	}
	latest, ok, err := s.rateRepo.LatestDate(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to read latest rate date")
		return time.Time{}, err
	}
	if !ok {
		return domain.DateOf(s.now().UTC()), nil
	}
	return latest, nil
}

// Convert converts amount using the rate of date, or of the latest stored date when date is nil.
func (s *conversionService) Convert(ctx context.Context, amount decimal.Decimal, from, to string, date *time.Time) (domain.ConversionResult, bool, error) {
	if amount.IsNegative() {
		return domain.ConversionResult{}, false, apperrors.NewValidationError("amount must not be negative")
	}
	from = domain.NormalizeCurrencyCode(from)
	to = domain.NormalizeCurrencyCode(to)
	if from == "" || to == "" {
		return domain.ConversionResult{}, false, apperrors.NewValidationError("currency code is required")
	}

	effective, err := s.ResolveDate(ctx, date)
	if err != nil {
		return domain.ConversionResult{}, false, err
	}

	rate, ok, err := s.GetRate(ctx, effective, from, to)
	if err != nil || !ok {
		return domain.ConversionResult{}, false, err
	}

	return domain.ConversionResult{
		OriginalAmount:  amount,
		FromCurrency:    from,
		ToCurrency:      to,
		ConvertedAmount: amount.Mul(rate),
		RateUsed:        rate,
		Date:            effective,
	}, true, nil
}

// GetSupportedCurrencies returns the currencies rates exist for, cached like rates.
func (s *conversionService) GetSupportedCurrencies(ctx context.Context) ([]string, error) {
	if codes, ok := s.currencyCache.Get(ctx, supportedCurrenciesKey); ok {
		return append([]string(nil), codes...), nil
	}
	codes, err := s.rateRepo.SupportedCurrencies(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list supported currencies")
		return nil, err
	}
	s.currencyCache.Set(ctx, supportedCurrenciesKey, append([]string(nil), codes...))
	return codes, nil
}

// GetLastUpdateTime returns the newest ingestion timestamp in the store.
func (s *conversionService) GetLastUpdateTime(ctx context.Context) (time.Time, bool, error) {
	at, ok, err := s.rateRepo.LastIngestedAt(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to read last rate update time")
		return time.Time{}, false, err
	}
	return at, ok, nil
}
