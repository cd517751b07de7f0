// Package memory holds in-process repository implementations, used when no
// database is configured and by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/mma_currency/internal/apperrors"
	"github.com/SscSPs/mma_currency/internal/core/domain"
	portsrepo "github.com/SscSPs/mma_currency/internal/core/ports/repositories"
	"github.com/google/uuid"
)

type rateKey struct {
	date     time.Time
	currency string
}

// ExchangeRateRepository keeps rates in a map keyed by (date, target currency).
type ExchangeRateRepository struct {
	mu    sync.RWMutex
	rates map[rateKey]domain.ExchangeRate
	now   func() time.Time
}

// NewExchangeRateRepository creates an empty in-memory rate store.
func NewExchangeRateRepository() *ExchangeRateRepository {
	return &ExchangeRateRepository{
		rates: make(map[rateKey]domain.ExchangeRate),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

var _ portsrepo.ExchangeRateRepositoryFacade = (*ExchangeRateRepository)(nil)

// UpsertRate inserts the rate or updates rate and source of the existing entry.
func (r *ExchangeRateRepository) UpsertRate(ctx context.Context, rate domain.ExchangeRate) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewStorageError("upsert rate", err)
	}
	if !rate.Rate.IsPositive() {
		return apperrors.NewStorageError("upsert rate", apperrors.NewValidationError("exchange rate must be positive"))
	}
	key := rateKey{date: domain.DateOf(rate.Date), currency: domain.NormalizeCurrencyCode(rate.TargetCurrency)}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, found := r.rates[key]
	if found {
		if existing.SameValue(rate) {
			return nil
		}
		ingestedAt := rate.IngestedAt
		if ingestedAt.IsZero() {
			ingestedAt = r.now()
		}
		if err := existing.UpdateRate(rate.Rate, rate.Source, ingestedAt); err != nil {
			return apperrors.NewStorageError("upsert rate", err)
		}
		r.rates[key] = existing
		return nil
	}

	rate.Date = key.date
	rate.TargetCurrency = key.currency
	rate.BaseCurrency = domain.BaseCurrency
	if rate.ExchangeRateID == "" {
		rate.ExchangeRateID = uuid.NewString()
	}
	if rate.IngestedAt.IsZero() {
		rate.IngestedAt = r.now()
	}
	r.rates[key] = rate
	return nil
}

// FindRate returns the rate stored for exactly this date and currency.
func (r *ExchangeRateRepository) FindRate(ctx context.Context, date time.Time, targetCurrency string) (*domain.ExchangeRate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rate, ok := r.rates[rateKey{date: domain.DateOf(date), currency: domain.NormalizeCurrencyCode(targetCurrency)}]
	if !ok {
		return nil, apperrors.NewNotFoundError("exchange rate not found")
	}
	return &rate, nil
}

// LatestDate returns the most recent stored date.
func (r *ExchangeRateRepository) LatestDate(ctx context.Context) (time.Time, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest time.Time
	for k := range r.rates {
		if k.date.After(latest) {
			latest = k.date
		}
	}
	return latest, !latest.IsZero(), nil
}

// DatesInRange returns the distinct stored dates within [from, to].
func (r *ExchangeRateRepository) DatesInRange(ctx context.Context, from, to time.Time) (map[time.Time]struct{}, error) {
	from, to = domain.DateOf(from), domain.DateOf(to)

	r.mu.RLock()
	defer r.mu.RUnlock()

	dates := make(map[time.Time]struct{})
	for k := range r.rates {
		if !k.date.Before(from) && !k.date.After(to) {
			dates[k.date] = struct{}{}
		}
	}
	return dates, nil
}

// SupportedCurrencies returns every stored target currency and the base currency, sorted.
func (r *ExchangeRateRepository) SupportedCurrencies(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]struct{}{domain.BaseCurrency: {}}
	for k := range r.rates {
		seen[k.currency] = struct{}{}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

// LastIngestedAt returns the newest ingestion timestamp.
func (r *ExchangeRateRepository) LastIngestedAt(ctx context.Context) (time.Time, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var last time.Time
	for _, rate := range r.rates {
		if rate.IngestedAt.After(last) {
			last = rate.IngestedAt
		}
	}
	return last, !last.IsZero(), nil
}

// Len returns the number of stored rates.
func (r *ExchangeRateRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rates)
}
