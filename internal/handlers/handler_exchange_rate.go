package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/mma_currency/internal/core/ports/services"
	"github.com/SscSPs/mma_currency/internal/dto"
	"github.com/SscSPs/mma_currency/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// exchangeRateHandler handles HTTP requests related to exchange rates and their sync.
type exchangeRateHandler struct {
	conversionService portssvc.ConversionSvcFacade
	rateSyncService   portssvc.RateSyncSvc
	now               func() time.Time
}

// newExchangeRateHandler creates a new exchangeRateHandler.
func newExchangeRateHandler(cs portssvc.ConversionSvcFacade, rs portssvc.RateSyncSvc, now func() time.Time) *exchangeRateHandler {
	return &exchangeRateHandler{
		conversionService: cs,
		rateSyncService:   rs,
		now:               now,
	}
}

// registerExchangeRateRoutes registers routes related to exchange rates.
func registerExchangeRateRoutes(rg *gin.RouterGroup, cs portssvc.ConversionSvcFacade, rs portssvc.RateSyncSvc, now func() time.Time) {
	h := newExchangeRateHandler(cs, rs, now)

	exchangeRates := rg.Group("/exchange-rates")
	{
		exchangeRates.GET("/last-update", h.getLastUpdate)
		exchangeRates.POST("/sync", h.triggerSync)
		exchangeRates.GET("/sync/status", h.getSyncStatus)
		exchangeRates.GET("/:from/:to", h.getExchangeRate)
	}
}

// getExchangeRate godoc
// @Summary Get an exchange rate
// @Description Returns how many units of {to} one unit of {from} buys on the given date (latest stored date by default). Cross rates are derived through EUR.
// @Tags exchange rates
// @Produce  json
// @Param   from path string true "From Currency Code (3 letters)" MinLength(3) MaxLength(3)
// @Param   to   path string true "To Currency Code (3 letters)" MinLength(3) MaxLength(3)
// @Param   date query string false "Rate date (YYYY-MM-DD)"
// @Success 200 {object} dto.ExchangeRateResponse
// @Failure 400 {object} map[string]string "Invalid currency code or date"
// @Failure 404 {object} map[string]string "Exchange rate not available"
// @Failure 500 {object} map[string]string "Failed to retrieve exchange rate"
// @Security BearerAuth
// @Router /exchange-rates/{from}/{to} [get]
func (h *exchangeRateHandler) getExchangeRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var uri dto.GetExchangeRateURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Currency codes must be 3 letters"})
		return
	}
	var query dto.DateQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: " + err.Error()})
		return
	}
	date, err := dto.ParseRateDate(query.Date, h.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logger = logger.With(slog.String("from_code", uri.From), slog.String("to_code", uri.To), slog.String("date", query.Date))
	logger.Info("Received request to get exchange rate")

	if date == nil {
		// Converting one unit resolves the latest stored date for us.
		result, ok, err := h.conversionService.Convert(c.Request.Context(), decimal.NewFromInt(1), uri.From, uri.To, nil)
		if err != nil {
			respondServiceError(c, logger, err, "Failed to retrieve exchange rate")
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Exchange rate not available"})
			return
		}
		c.JSON(http.StatusOK, dto.ToExchangeRateResponse(uri.From, uri.To, result.RateUsed, result.Date))
		return
	}

	rate, ok, err := h.conversionService.GetRate(c.Request.Context(), *date, uri.From, uri.To)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve exchange rate")
		return
	}
	if !ok {
		logger.Info("Exchange rate not available")
		c.JSON(http.StatusNotFound, gin.H{"error": "Exchange rate not available"})
		return
	}

	c.JSON(http.StatusOK, dto.ToExchangeRateResponse(uri.From, uri.To, rate, *date))
}

// getLastUpdate godoc
// @Summary Get the last rate update time
// @Description Returns when exchange rates were last ingested
// @Tags exchange rates
// @Produce  json
// @Success 200 {object} dto.LastUpdateResponse
// @Failure 404 {object} map[string]string "No rates stored yet"
// @Failure 500 {object} map[string]string "Failed to retrieve last update time"
// @Security BearerAuth
// @Router /exchange-rates/last-update [get]
func (h *exchangeRateHandler) getLastUpdate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	at, ok, err := h.conversionService.GetLastUpdateTime(c.Request.Context())
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve last update time")
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No exchange rates stored yet"})
		return
	}

	c.JSON(http.StatusOK, dto.LastUpdateResponse{LastUpdatedAt: at})
}

// triggerSync godoc
// @Summary Start a rate sync
// @Description Starts a sync cycle in the background
// @Tags exchange rates
// @Produce  json
// @Success 202 {object} map[string]string "Sync started"
// @Failure 409 {object} map[string]string "A sync is already running"
// @Failure 500 {object} map[string]string "Failed to start sync"
// @Security BearerAuth
// @Router /exchange-rates/sync [post]
func (h *exchangeRateHandler) triggerSync(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	if err := h.rateSyncService.TriggerAsync(c.Request.Context()); err != nil {
		respondServiceError(c, logger, err, "Failed to start rate sync")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	logger.Info("Manual rate sync started", slog.String("user_id", userID))
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// getSyncStatus godoc
// @Summary Get the rate sync status
// @Description Returns the current sync phase and the report of the last finished cycle
// @Tags exchange rates
// @Produce  json
// @Success 200 {object} dto.SyncStatusResponse
// @Security BearerAuth
// @Router /exchange-rates/sync/status [get]
func (h *exchangeRateHandler) getSyncStatus(c *gin.Context) {
	resp := dto.SyncStatusResponse{Phase: h.rateSyncService.Phase().String()}
	if report, ok := h.rateSyncService.LastReport(); ok {
		r := dto.ToSyncReportResponse(report)
		resp.LastReport = &r
	}
	c.JSON(http.StatusOK, resp)
}
