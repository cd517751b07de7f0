package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/mma_currency/internal/apperrors"
	"github.com/SscSPs/mma_currency/internal/core/domain"
	portssvc "github.com/SscSPs/mma_currency/internal/core/ports/services"
	"github.com/SscSPs/mma_currency/internal/dto"
	"github.com/SscSPs/mma_currency/internal/handlers"
	"github.com/SscSPs/mma_currency/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock ConversionService ---
type MockConversionService struct {
	mock.Mock
}

func (m *MockConversionService) GetRate(ctx context.Context, date time.Time, from, to string) (decimal.Decimal, bool, error) {
	args := m.Called(ctx, date, from, to)
	return args.Get(0).(decimal.Decimal), args.Bool(1), args.Error(2)
}

func (m *MockConversionService) ResolveDate(ctx context.Context, date *time.Time) (time.Time, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockConversionService) Convert(ctx context.Context, amount decimal.Decimal, from, to string, date *time.Time) (domain.ConversionResult, bool, error) {
	args := m.Called(ctx, amount, from, to, date)
	return args.Get(0).(domain.ConversionResult), args.Bool(1), args.Error(2)
}

func (m *MockConversionService) GetLastUpdateTime(ctx context.Context) (time.Time, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

func (m *MockConversionService) GetSupportedCurrencies(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

var _ portssvc.ConversionSvcFacade = (*MockConversionService)(nil)

// --- Mock RateSyncService ---
type MockRateSyncService struct {
	mock.Mock
}

func (m *MockRateSyncService) Run(ctx context.Context) { m.Called(ctx) }

func (m *MockRateSyncService) Stop() { m.Called() }

func (m *MockRateSyncService) Wait() { m.Called() }

func (m *MockRateSyncService) RunCycle(ctx context.Context, trigger domain.SyncTrigger) (domain.SyncReport, error) {
	args := m.Called(ctx, trigger)
	return args.Get(0).(domain.SyncReport), args.Error(1)
}

func (m *MockRateSyncService) TriggerAsync(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRateSyncService) Phase() domain.SyncPhase {
	args := m.Called()
	return args.Get(0).(domain.SyncPhase)
}

func (m *MockRateSyncService) LastReport() (domain.SyncReport, bool) {
	args := m.Called()
	return args.Get(0).(domain.SyncReport), args.Bool(1)
}

var _ portssvc.RateSyncSvc = (*MockRateSyncService)(nil)

// --- Mock ValuationService ---
type MockValuationService struct {
	mock.Mock
}

func (m *MockValuationService) TotalIn(ctx context.Context, holdings []domain.MoneyAmount, target string, date *time.Time) (domain.Valuation, error) {
	args := m.Called(ctx, holdings, target, date)
	return args.Get(0).(domain.Valuation), args.Error(1)
}

var _ portssvc.ValuationSvc = (*MockValuationService)(nil)

func decimalEq(s string) interface{} {
	want := decimal.RequireFromString(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// --- Test Suite ---
type HandlersTestSuite struct {
	suite.Suite
	router         *gin.Engine
	jwtSecret      string
	mockConversion *MockConversionService
	mockSync       *MockRateSyncService
	mockValuation  *MockValuationService
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (suite *HandlersTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	suite.Require().NoError(err)
	return signed
}

func (suite *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.mockConversion = new(MockConversionService)
	suite.mockSync = new(MockRateSyncService)
	suite.mockValuation = new(MockValuationService)

	container := &portssvc.ServiceContainer{
		Conversion: suite.mockConversion,
		RateSync:   suite.mockSync,
		Valuation:  suite.mockValuation,
	}
	now := func() time.Time { return time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC) }

	v1 := suite.router.Group("/api/v1", middleware.AuthMiddleware(suite.jwtSecret))
	suite.Require().NoError(handlers.RegisterAPIRoutes(v1, container, now))
}

func (suite *HandlersTestSuite) do(method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken("user-1"))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) TestGetExchangeRate_WithDate() {
	suite.mockConversion.On("GetRate", mock.Anything, *datePtr(2025, 11, 7), "USD", "GBP").
		Return(decimal.RequireFromString("0.772727272727"), true, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/exchange-rates/USD/GBP?date=2025-11-07", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ExchangeRateResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("USD", resp.FromCurrencyCode)
	suite.Equal("GBP", resp.ToCurrencyCode)
	suite.Equal("2025-11-07", resp.Date)
	suite.Equal("0.772727272727", resp.Rate.String())
	suite.mockConversion.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) TestGetExchangeRate_LatestDate() {
	result := domain.ConversionResult{
		OriginalAmount:  decimal.NewFromInt(1),
		FromCurrency:    "EUR",
		ToCurrency:      "USD",
		ConvertedAmount: decimal.RequireFromString("1.1561"),
		RateUsed:        decimal.RequireFromString("1.1561"),
		Date:            *datePtr(2025, 11, 7),
	}
	suite.mockConversion.On("Convert", mock.Anything, decimalEq("1"), "eur", "usd", (*time.Time)(nil)).
		Return(result, true, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/exchange-rates/eur/usd", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"date":"2025-11-07"`)
	suite.Contains(w.Body.String(), `"fromCurrencyCode":"EUR"`)
}

func (suite *HandlersTestSuite) TestGetExchangeRate_Unavailable() {
	suite.mockConversion.On("GetRate", mock.Anything, *datePtr(2025, 11, 8), "USD", "XYZ").
		Return(decimal.Zero, false, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/exchange-rates/USD/XYZ?date=2025-11-08", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestGetExchangeRate_BadInput() {
	for _, path := range []string{
		"/api/v1/exchange-rates/US1/GBP",
		"/api/v1/exchange-rates/USDX/GBP",
		"/api/v1/exchange-rates/USD/GBP?date=2025-11-11",
		"/api/v1/exchange-rates/USD/GBP?date=1998-12-31",
		"/api/v1/exchange-rates/USD/GBP?date=07.11.2025",
	} {
		w := suite.do(http.MethodGet, path, nil)
		suite.Equal(http.StatusBadRequest, w.Code, path)
	}
	suite.mockConversion.AssertNotCalled(suite.T(), "GetRate")
	suite.mockConversion.AssertNotCalled(suite.T(), "Convert")
}

func (suite *HandlersTestSuite) TestGetExchangeRate_StorageWrappedValidationIs500() {
	cause := apperrors.NewStorageError("find rate", apperrors.NewValidationError("corrupt row"))
	suite.mockConversion.On("GetRate", mock.Anything, *datePtr(2025, 11, 7), "USD", "GBP").
		Return(decimal.Zero, false, cause).Once()

	w := suite.do(http.MethodGet, "/api/v1/exchange-rates/USD/GBP?date=2025-11-07", nil)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.NotContains(w.Body.String(), "corrupt row")
}

func (suite *HandlersTestSuite) TestConvert_AppErrorCodeIsUsed() {
	suite.mockConversion.On("Convert", mock.Anything, decimalEq("10"), "USD", "GBP", datePtr(2025, 11, 7)).
		Return(domain.ConversionResult{}, false, apperrors.NewNotFoundError("no rates published for that date")).Once()

	w := suite.do(http.MethodGet, "/api/v1/conversions?amount=10&from=USD&to=GBP&date=2025-11-07", nil)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.Contains(w.Body.String(), "no rates published for that date")
}

func (suite *HandlersTestSuite) TestGetExchangeRate_StorageErrorIsGeneric500() {
	suite.mockConversion.On("GetRate", mock.Anything, *datePtr(2025, 11, 7), "USD", "GBP").
		Return(decimal.Zero, false, apperrors.NewStorageError("find rate", errors.New("connection reset"))).Once()

	w := suite.do(http.MethodGet, "/api/v1/exchange-rates/USD/GBP?date=2025-11-07", nil)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.NotContains(w.Body.String(), "connection reset")
}

func (suite *HandlersTestSuite) TestConvert_Success() {
	result := domain.ConversionResult{
		OriginalAmount:  decimal.NewFromInt(100),
		FromCurrency:    "USD",
		ToCurrency:      "GBP",
		ConvertedAmount: decimal.RequireFromString("77.2727272727"),
		RateUsed:        decimal.RequireFromString("0.772727272727"),
		Date:            *datePtr(2025, 11, 7),
	}
	suite.mockConversion.On("Convert", mock.Anything, decimalEq("100"), "USD", "GBP", datePtr(2025, 11, 7)).
		Return(result, true, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/conversions?amount=100&from=USD&to=GBP&date=2025-11-07", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ConversionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("77.27", resp.ConvertedAmount.Round(2).String())
	suite.Equal("2025-11-07", resp.Date)
}

func (suite *HandlersTestSuite) TestConvert_NegativeAmountIs400() {
	suite.mockConversion.On("Convert", mock.Anything, decimalEq("-5"), "USD", "GBP", (*time.Time)(nil)).
		Return(domain.ConversionResult{}, false, apperrors.NewValidationError("amount must not be negative")).Once()

	w := suite.do(http.MethodGet, "/api/v1/conversions?amount=-5&from=USD&to=GBP", nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "must not be negative")
}

func (suite *HandlersTestSuite) TestConvert_MissingParams() {
	w := suite.do(http.MethodGet, "/api/v1/conversions?from=USD&to=GBP", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/conversions?amount=abc&from=USD&to=GBP", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	suite.mockConversion.AssertNotCalled(suite.T(), "Convert")
}

func (suite *HandlersTestSuite) TestConvert_Unavailable() {
	suite.mockConversion.On("Convert", mock.Anything, decimalEq("10"), "USD", "XYZ", (*time.Time)(nil)).
		Return(domain.ConversionResult{}, false, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/conversions?amount=10&from=USD&to=XYZ", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestTotal_Success() {
	holdings := []domain.MoneyAmount{
		{Amount: decimal.NewFromInt(110), CurrencyCode: "USD"},
		{Amount: decimal.NewFromInt(1000), CurrencyCode: "JPY"},
	}
	valuation := domain.Valuation{
		Currency:    "EUR",
		Date:        *datePtr(2025, 11, 7),
		Total:       decimal.NewFromInt(100),
		Unconverted: []domain.MoneyAmount{holdings[1]},
	}
	suite.mockValuation.On("TotalIn", mock.Anything, mock.MatchedBy(func(got []domain.MoneyAmount) bool {
		return len(got) == 2 && got[0].CurrencyCode == "USD" && got[1].CurrencyCode == "JPY"
	}), "EUR", (*time.Time)(nil)).Return(valuation, nil).Once()

	body := []byte(`{"holdings":[{"amount":"110","currencyCode":"usd"},{"amount":"1000","currencyCode":"JPY"}],"targetCurrencyCode":"EUR"}`)
	w := suite.do(http.MethodPost, "/api/v1/conversions/total", body)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ValuationResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.False(resp.Complete)
	suite.Len(resp.Unconverted, 1)
	suite.Equal("100", resp.Total.String())
}

func (suite *HandlersTestSuite) TestTotal_InvalidBody() {
	for _, body := range []string{
		`{"holdings":[],"targetCurrencyCode":"EUR"}`,
		`{"holdings":[{"amount":"1","currencyCode":"EURO"}],"targetCurrencyCode":"EUR"}`,
		`{"holdings":[{"amount":"1","currencyCode":"USD"}]}`,
		`not json`,
	} {
		w := suite.do(http.MethodPost, "/api/v1/conversions/total", []byte(body))
		suite.Equal(http.StatusBadRequest, w.Code, body)
	}
	suite.mockValuation.AssertNotCalled(suite.T(), "TotalIn")
}

func (suite *HandlersTestSuite) TestListCurrencies() {
	suite.mockConversion.On("GetSupportedCurrencies", mock.Anything).Return([]string{"EUR", "GBP", "USD"}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/currencies", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.SupportedCurrenciesResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("EUR", resp.BaseCurrency)
	suite.Equal([]string{"EUR", "GBP", "USD"}, resp.Currencies)
}

func (suite *HandlersTestSuite) TestLastUpdate() {
	at := time.Date(2025, 11, 7, 16, 5, 0, 0, time.UTC)
	suite.mockConversion.On("GetLastUpdateTime", mock.Anything).Return(at, true, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/exchange-rates/last-update", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "2025-11-07T16:05:00Z")
}

func (suite *HandlersTestSuite) TestLastUpdate_EmptyStore() {
	suite.mockConversion.On("GetLastUpdateTime", mock.Anything).Return(time.Time{}, false, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/exchange-rates/last-update", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestTriggerSync() {
	suite.mockSync.On("TriggerAsync", mock.Anything).Return(nil).Once()
	w := suite.do(http.MethodPost, "/api/v1/exchange-rates/sync", nil)
	suite.Equal(http.StatusAccepted, w.Code)

	suite.mockSync.On("TriggerAsync", mock.Anything).Return(apperrors.ErrSyncInProgress).Once()
	w = suite.do(http.MethodPost, "/api/v1/exchange-rates/sync", nil)
	suite.Equal(http.StatusConflict, w.Code)

	suite.mockSync.On("TriggerAsync", mock.Anything).Return(apperrors.ErrSyncStopped).Once()
	w = suite.do(http.MethodPost, "/api/v1/exchange-rates/sync", nil)
	suite.Equal(http.StatusServiceUnavailable, w.Code)

	suite.mockSync.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) TestSyncStatus() {
	report := domain.SyncReport{
		Trigger:       domain.TriggerScheduled,
		StartedAt:     time.Date(2025, 11, 10, 3, 0, 0, 0, time.UTC),
		FinishedAt:    time.Date(2025, 11, 10, 3, 0, 2, 0, time.UTC),
		Outcome:       domain.SyncPartial,
		RecentFetched: 30,
		MissingDates:  []time.Time{*datePtr(2025, 11, 6)},
		Saved:         30,
		Err:           errors.New("historical feed unavailable"),
	}
	suite.mockSync.On("Phase").Return(domain.PhaseIdle).Once()
	suite.mockSync.On("LastReport").Return(report, true).Once()

	w := suite.do(http.MethodGet, "/api/v1/exchange-rates/sync/status", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.SyncStatusResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("IDLE", resp.Phase)
	suite.Require().NotNil(resp.LastReport)
	suite.Equal("partial", resp.LastReport.Outcome)
	suite.Equal([]string{"2025-11-06"}, resp.LastReport.MissingDates)
	suite.Equal(int64(2000), resp.LastReport.DurationMillis)
	suite.Equal("historical feed unavailable", resp.LastReport.Error)
}

func (suite *HandlersTestSuite) TestRequiresToken() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/currencies", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.True(strings.Contains(w.Body.String(), "Authorization"))
}
