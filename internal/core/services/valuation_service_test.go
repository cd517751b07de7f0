package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/mma_currency/internal/apperrors"
	"github.com/SscSPs/mma_currency/internal/core/domain"
	"github.com/SscSPs/mma_currency/internal/core/services"
	"github.com/SscSPs/mma_currency/internal/repositories/database/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValuationFixture(t *testing.T) (*memory.ExchangeRateRepository, time.Time) {
	t.Helper()
	repo := memory.NewExchangeRateRepository()
	rateDate := date(2025, 11, 7)
	seedStore(t, repo, rateDate, map[string]string{"USD": "1.10", "GBP": "0.85"})
	return repo, rateDate
}

// advancingLatestRepo reports a newer latest date on every LatestDate call,
// like a sync committing while a valuation is in flight.
type advancingLatestRepo struct {
	*memory.ExchangeRateRepository
	dates []time.Time
	calls int
}

func (r *advancingLatestRepo) LatestDate(context.Context) (time.Time, bool, error) {
	d := r.dates[min(r.calls, len(r.dates)-1)]
	r.calls++
	return d, true, nil
}

func TestValuation_LatestDateResolvedOnce(t *testing.T) {
	repo := memory.NewExchangeRateRepository()
	seedStore(t, repo, date(2025, 11, 6), map[string]string{"USD": "1.00", "GBP": "0.80"})
	seedStore(t, repo, date(2025, 11, 7), map[string]string{"USD": "2.00", "GBP": "0.90"})
	advancing := &advancingLatestRepo{ExchangeRateRepository: repo, dates: []time.Time{date(2025, 11, 6), date(2025, 11, 7)}}

	conversion, err := services.NewConversionService(advancing, nil)
	require.NoError(t, err)
	svc := services.NewValuationService(conversion)

	holdings := []domain.MoneyAmount{
		{Amount: decimal.NewFromInt(10), CurrencyCode: "USD"},
		{Amount: decimal.NewFromInt(8), CurrencyCode: "GBP"},
	}
	valuation, err := svc.TotalIn(context.Background(), holdings, "EUR", nil)

	require.NoError(t, err)
	assert.Equal(t, 1, advancing.calls)
	assert.Equal(t, date(2025, 11, 6), valuation.Date)
	for _, c := range valuation.Converted {
		assert.Equal(t, date(2025, 11, 6), c.Date)
	}
	// 10 + 10 on the first date; mixing dates would give 5 + 10 or 10 + 8.88...
	assert.Equal(t, "20", valuation.Total.Round(8).String())
}

func TestValuation_TotalInSumsConvertedHoldings(t *testing.T) {
	repo, rateDate := newValuationFixture(t)
	conversion, err := services.NewConversionService(repo, nil)
	require.NoError(t, err)
	svc := services.NewValuationService(conversion)

	holdings := []domain.MoneyAmount{
		{Amount: decimal.NewFromInt(110), CurrencyCode: "USD"},
		{Amount: decimal.NewFromInt(50), CurrencyCode: "EUR"},
		{Amount: decimal.NewFromInt(-85), CurrencyCode: "GBP"},
	}

	valuation, err := svc.TotalIn(context.Background(), holdings, "eur", &rateDate)

	require.NoError(t, err)
	assert.True(t, valuation.Complete())
	assert.Equal(t, "EUR", valuation.Currency)
	assert.Equal(t, rateDate, valuation.Date)
	require.Len(t, valuation.Converted, 3)
	// 100 + 50 - 100
	assert.Equal(t, "50", valuation.Total.Round(8).String())
	assert.Equal(t, "-85", valuation.Converted[2].OriginalAmount.String())
	assert.True(t, valuation.Converted[2].ConvertedAmount.IsNegative())
}

func TestValuation_UnavailableRatesAreReportedNotFatal(t *testing.T) {
	repo, rateDate := newValuationFixture(t)
	conversion, err := services.NewConversionService(repo, nil)
	require.NoError(t, err)
	svc := services.NewValuationService(conversion)

	holdings := []domain.MoneyAmount{
		{Amount: decimal.NewFromInt(10), CurrencyCode: "EUR"},
		{Amount: decimal.NewFromInt(1000), CurrencyCode: "JPY"},
	}

	valuation, err := svc.TotalIn(context.Background(), holdings, "USD", &rateDate)

	require.NoError(t, err)
	assert.False(t, valuation.Complete())
	assert.Equal(t, []domain.MoneyAmount{holdings[1]}, valuation.Unconverted)
	assert.Equal(t, "11", valuation.Total.String())
}

func TestValuation_InvalidTargetIsValidationError(t *testing.T) {
	conversion, err := services.NewConversionService(memory.NewExchangeRateRepository(), nil)
	require.NoError(t, err)
	svc := services.NewValuationService(conversion)

	_, err = svc.TotalIn(context.Background(), nil, "EURO", nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestValuation_EmptyHoldingsIsZero(t *testing.T) {
	conversion, err := services.NewConversionService(memory.NewExchangeRateRepository(), nil)
	require.NoError(t, err)
	svc := services.NewValuationService(conversion)

	valuation, err := svc.TotalIn(context.Background(), nil, "GBP", nil)
	require.NoError(t, err)
	assert.True(t, valuation.Total.IsZero())
	assert.True(t, valuation.Complete())
}
