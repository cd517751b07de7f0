package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/mma_currency/internal/apperrors"
	"github.com/SscSPs/mma_currency/internal/core/domain"
	portssvc "github.com/SscSPs/mma_currency/internal/core/ports/services"
	"github.com/SscSPs/mma_currency/internal/core/services"
	"github.com/SscSPs/mma_currency/internal/repositories/database/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// --- Mock ExchangeRateRepository ---
type MockExchangeRateRepository struct {
	mock.Mock
}

func (m *MockExchangeRateRepository) FindRate(ctx context.Context, date time.Time, targetCurrency string) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, date, targetCurrency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) LatestDate(ctx context.Context) (time.Time, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

func (m *MockExchangeRateRepository) DatesInRange(ctx context.Context, from, to time.Time) (map[time.Time]struct{}, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[time.Time]struct{}), args.Error(1)
}

func (m *MockExchangeRateRepository) SupportedCurrencies(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockExchangeRateRepository) LastIngestedAt(ctx context.Context) (time.Time, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

func (m *MockExchangeRateRepository) UpsertRate(ctx context.Context, rate domain.ExchangeRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func storedRate(d time.Time, code, value string) *domain.ExchangeRate {
	return &domain.ExchangeRate{
		Date:           d,
		BaseCurrency:   domain.BaseCurrency,
		TargetCurrency: code,
		Rate:           decimal.RequireFromString(value),
		Source:         domain.SourceRecentFeed,
	}
}

// --- Test Suite ---
type ConversionServiceTestSuite struct {
	suite.Suite
	mockRateRepo *MockExchangeRateRepository
	clock        *fakeClock
	service      portssvc.ConversionSvcFacade
	rateDate     time.Time
}

func (suite *ConversionServiceTestSuite) SetupTest() {
	suite.mockRateRepo = new(MockExchangeRateRepository)
	suite.clock = &fakeClock{now: time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)}
	suite.rateDate = date(2025, 11, 7)

	svc, err := services.NewConversionService(suite.mockRateRepo, nil,
		services.WithConversionClock(suite.clock.Now),
		services.WithConversionCacheTTL(time.Hour),
	)
	suite.Require().NoError(err)
	suite.service = svc
}

func TestConversionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ConversionServiceTestSuite))
}

func (suite *ConversionServiceTestSuite) TestGetRate_SameCurrencyIsOne() {
	ctx := context.Background()

	rate, ok, err := suite.service.GetRate(ctx, suite.rateDate, "usd", "USD")

	suite.Require().NoError(err)
	suite.True(ok)
	suite.True(decimal.NewFromInt(1).Equal(rate))
	suite.mockRateRepo.AssertNotCalled(suite.T(), "FindRate")
}

func (suite *ConversionServiceTestSuite) TestGetRate_DirectFromBase() {
	ctx := context.Background()
	suite.mockRateRepo.On("FindRate", ctx, suite.rateDate, "USD").Return(storedRate(suite.rateDate, "USD", "1.10"), nil).Once()

	rate, ok, err := suite.service.GetRate(ctx, suite.rateDate, "EUR", "USD")

	suite.Require().NoError(err)
	suite.True(ok)
	suite.Equal("1.1", rate.String())
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *ConversionServiceTestSuite) TestGetRate_InverseToBase() {
	ctx := context.Background()
	suite.mockRateRepo.On("FindRate", ctx, suite.rateDate, "GBP").Return(storedRate(suite.rateDate, "GBP", "0.80"), nil).Once()

	rate, ok, err := suite.service.GetRate(ctx, suite.rateDate, "GBP", "EUR")

	suite.Require().NoError(err)
	suite.True(ok)
	suite.Equal("1.25", rate.String())
}

func (suite *ConversionServiceTestSuite) TestGetRate_TriangulatesThroughBase() {
	ctx := context.Background()
	suite.mockRateRepo.On("FindRate", ctx, suite.rateDate, "USD").Return(storedRate(suite.rateDate, "USD", "1.10"), nil).Once()
	suite.mockRateRepo.On("FindRate", ctx, suite.rateDate, "GBP").Return(storedRate(suite.rateDate, "GBP", "0.85"), nil).Once()

	rate, ok, err := suite.service.GetRate(ctx, suite.rateDate, "USD", "GBP")

	suite.Require().NoError(err)
	suite.True(ok)
	suite.Equal("0.772727272727", rate.String())
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *ConversionServiceTestSuite) TestGetRate_MissingLegIsNotFound() {
	ctx := context.Background()
	suite.mockRateRepo.On("FindRate", ctx, suite.rateDate, "USD").Return(storedRate(suite.rateDate, "USD", "1.10"), nil).Once()
	suite.mockRateRepo.On("FindRate", ctx, suite.rateDate, "XYZ").Return(nil, apperrors.NewNotFoundError("no rate")).Once()

	rate, ok, err := suite.service.GetRate(ctx, suite.rateDate, "USD", "XYZ")

	suite.Require().NoError(err)
	suite.False(ok)
	suite.True(rate.IsZero())
}

func (suite *ConversionServiceTestSuite) TestGetRate_StorageErrorPropagates() {
	ctx := context.Background()
	storageErr := apperrors.NewStorageError("find rate", errors.New("connection refused"))
	suite.mockRateRepo.On("FindRate", ctx, suite.rateDate, "USD").Return(nil, storageErr).Once()

	_, ok, err := suite.service.GetRate(ctx, suite.rateDate, "EUR", "USD")

	suite.Require().Error(err)
	suite.False(ok)
	suite.ErrorIs(err, apperrors.ErrStorage)
}

func (suite *ConversionServiceTestSuite) TestGetRate_EmptyCodeIsValidationError() {
	_, _, err := suite.service.GetRate(context.Background(), suite.rateDate, " ", "USD")

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRateRepo.AssertNotCalled(suite.T(), "FindRate")
}

func (suite *ConversionServiceTestSuite) TestGetRate_CacheHitSkipsRepository() {
	ctx := context.Background()
	suite.mockRateRepo.On("FindRate", ctx, suite.rateDate, "USD").Return(storedRate(suite.rateDate, "USD", "1.10"), nil).Once()

	first, ok, err := suite.service.GetRate(ctx, suite.rateDate, "EUR", "USD")
	suite.Require().NoError(err)
	suite.Require().True(ok)

	suite.clock.Advance(59 * time.Minute)
	second, ok, err := suite.service.GetRate(ctx, suite.rateDate, "EUR", "USD")
	suite.Require().NoError(err)
	suite.True(ok)
	suite.True(first.Equal(second))

	suite.mockRateRepo.AssertNumberOfCalls(suite.T(), "FindRate", 1)
}

func (suite *ConversionServiceTestSuite) TestGetRate_CacheEntryExpires() {
	ctx := context.Background()
	suite.mockRateRepo.On("FindRate", ctx, suite.rateDate, "USD").Return(storedRate(suite.rateDate, "USD", "1.10"), nil).Once()
	suite.mockRateRepo.On("FindRate", ctx, suite.rateDate, "USD").Return(storedRate(suite.rateDate, "USD", "1.12"), nil).Once()

	_, _, err := suite.service.GetRate(ctx, suite.rateDate, "EUR", "USD")
	suite.Require().NoError(err)

	suite.clock.Advance(time.Hour + time.Second)
	rate, ok, err := suite.service.GetRate(ctx, suite.rateDate, "EUR", "USD")
	suite.Require().NoError(err)
	suite.True(ok)
	suite.Equal("1.12", rate.String())
	suite.mockRateRepo.AssertNumberOfCalls(suite.T(), "FindRate", 2)
}

func (suite *ConversionServiceTestSuite) TestGetRate_MissIsNotCached() {
	ctx := context.Background()
	suite.mockRateRepo.On("FindRate", ctx, suite.rateDate, "USD").Return(nil, apperrors.NewNotFoundError("no rate")).Twice()

	for i := 0; i < 2; i++ {
		_, ok, err := suite.service.GetRate(ctx, suite.rateDate, "EUR", "USD")
		suite.Require().NoError(err)
		suite.False(ok)
	}
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *ConversionServiceTestSuite) TestConvert_NegativeAmountRejectedBeforeLookup() {
	_, ok, err := suite.service.Convert(context.Background(), decimal.NewFromInt(-5), "USD", "GBP", nil)

	suite.Require().Error(err)
	suite.False(ok)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRateRepo.AssertNotCalled(suite.T(), "LatestDate")
	suite.mockRateRepo.AssertNotCalled(suite.T(), "FindRate")
}

func (suite *ConversionServiceTestSuite) TestConvert_NilDateUsesLatestStoredDate() {
	ctx := context.Background()
	suite.mockRateRepo.On("LatestDate", ctx).Return(suite.rateDate, true, nil).Once()
	suite.mockRateRepo.On("FindRate", ctx, suite.rateDate, "JPY").Return(storedRate(suite.rateDate, "JPY", "160.5"), nil).Once()

	result, ok, err := suite.service.Convert(ctx, decimal.NewFromInt(2), "eur", "jpy", nil)

	suite.Require().NoError(err)
	suite.True(ok)
	suite.Equal("EUR", result.FromCurrency)
	suite.Equal("JPY", result.ToCurrency)
	suite.Equal(suite.rateDate, result.Date)
	suite.Equal("321", result.ConvertedAmount.String())
	suite.Equal("160.5", result.RateUsed.String())
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *ConversionServiceTestSuite) TestConvert_EmptyStoreFallsBackToToday() {
	ctx := context.Background()
	today := date(2025, 11, 10)
	suite.mockRateRepo.On("LatestDate", ctx).Return(time.Time{}, false, nil).Once()
	suite.mockRateRepo.On("FindRate", ctx, today, "USD").Return(nil, apperrors.NewNotFoundError("no rate")).Once()

	_, ok, err := suite.service.Convert(ctx, decimal.NewFromInt(100), "EUR", "USD", nil)

	suite.Require().NoError(err)
	suite.False(ok)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *ConversionServiceTestSuite) TestGetSupportedCurrencies_Cached() {
	ctx := context.Background()
	suite.mockRateRepo.On("SupportedCurrencies", ctx).Return([]string{"EUR", "GBP", "USD"}, nil).Once()

	first, err := suite.service.GetSupportedCurrencies(ctx)
	suite.Require().NoError(err)
	first[0] = "mutated"

	second, err := suite.service.GetSupportedCurrencies(ctx)
	suite.Require().NoError(err)
	suite.Equal([]string{"EUR", "GBP", "USD"}, second)
	suite.mockRateRepo.AssertNumberOfCalls(suite.T(), "SupportedCurrencies", 1)
}

func (suite *ConversionServiceTestSuite) TestGetLastUpdateTime() {
	ctx := context.Background()
	at := time.Date(2025, 11, 7, 16, 5, 0, 0, time.UTC)
	suite.mockRateRepo.On("LastIngestedAt", ctx).Return(at, true, nil).Once()

	got, ok, err := suite.service.GetLastUpdateTime(ctx)

	suite.Require().NoError(err)
	suite.True(ok)
	suite.Equal(at, got)
}

// The following run against the in-memory store to cover the lookup paths end to end.

func seedStore(t *testing.T, repo *memory.ExchangeRateRepository, d time.Time, rates map[string]string) {
	t.Helper()
	for code, value := range rates {
		rate, err := domain.NewExchangeRate(d, code, decimal.RequireFromString(value), domain.SourceRecentFeed, time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.UpsertRate(context.Background(), rate))
	}
}

func TestConversion_CrossRateWithMemoryStore(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewExchangeRateRepository()
	rateDate := date(2025, 11, 8)
	seedStore(t, repo, rateDate, map[string]string{"USD": "1.10", "GBP": "0.85"})

	svc, err := services.NewConversionService(repo, nil)
	require.NoError(t, err)

	result, ok, err := svc.Convert(ctx, decimal.NewFromInt(100), "USD", "GBP", &rateDate)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "77.27", result.ConvertedAmount.Round(2).String())
	assert.Equal(t, rateDate, result.Date)
}

func TestConversion_RoundTripIsIdentity(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewExchangeRateRepository()
	rateDate := date(2025, 11, 7)
	seedStore(t, repo, rateDate, map[string]string{"USD": "1.1561", "JPY": "177.88", "CHF": "0.9312"})

	svc, err := services.NewConversionService(repo, nil)
	require.NoError(t, err)

	tolerance := decimal.New(1, -9)
	codes := []string{"EUR", "USD", "JPY", "CHF"}
	for _, a := range codes {
		for _, b := range codes {
			ab, ok, err := svc.GetRate(ctx, rateDate, a, b)
			require.NoError(t, err)
			require.True(t, ok)
			ba, ok, err := svc.GetRate(ctx, rateDate, b, a)
			require.NoError(t, err)
			require.True(t, ok)
			product := ab.Mul(ba)
			assert.True(t, product.Sub(decimal.NewFromInt(1)).Abs().LessThan(tolerance),
				"%s->%s->%s = %s", a, b, a, product)
		}
	}
}

func TestConversion_EmptyStoreHasNoRate(t *testing.T) {
	svc, err := services.NewConversionService(memory.NewExchangeRateRepository(), nil)
	require.NoError(t, err)

	_, ok, err := svc.GetRate(context.Background(), date(2025, 11, 7), "USD", "GBP")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = svc.Convert(context.Background(), decimal.NewFromInt(1), "USD", "GBP", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConversion_NoNearbyDateFallback(t *testing.T) {
	repo := memory.NewExchangeRateRepository()
	seedStore(t, repo, date(2025, 11, 7), map[string]string{"USD": "1.10"})

	svc, err := services.NewConversionService(repo, nil)
	require.NoError(t, err)

	_, ok, err := svc.GetRate(context.Background(), date(2025, 11, 8), "EUR", "USD")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewConversionService_RejectsNonPositiveTTL(t *testing.T) {
	_, err := services.NewConversionService(memory.NewExchangeRateRepository(), nil, services.WithConversionCacheTTL(0))
	assert.Error(t, err)
}
