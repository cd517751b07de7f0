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

// conversionHandler handles HTTP requests that convert amounts between currencies.
type conversionHandler struct {
	conversionService portssvc.ConversionSvcFacade
	valuationService  portssvc.ValuationSvc
	now               func() time.Time
}

func newConversionHandler(cs portssvc.ConversionSvcFacade, vs portssvc.ValuationSvc, now func() time.Time) *conversionHandler {
	return &conversionHandler{
		conversionService: cs,
		valuationService:  vs,
		now:               now,
	}
}

// registerConversionRoutes registers routes related to conversions.
func registerConversionRoutes(rg *gin.RouterGroup, cs portssvc.ConversionSvcFacade, vs portssvc.ValuationSvc, now func() time.Time) {
	h := newConversionHandler(cs, vs, now)

	conversions := rg.Group("/conversions")
	{
		conversions.GET("", h.convert)
		conversions.POST("/total", h.total)
	}
}

// convert godoc
// @Summary Convert an amount
// @Description Converts an amount between two currencies using the rate of the given date (latest stored date by default)
// @Tags conversions
// @Produce  json
// @Param   amount query number true "Amount to convert (not negative)"
// @Param   from query string true "From Currency Code (3 letters)"
// @Param   to query string true "To Currency Code (3 letters)"
// @Param   date query string false "Rate date (YYYY-MM-DD)"
// @Success 200 {object} dto.ConversionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Exchange rate not available"
// @Failure 500 {object} map[string]string "Failed to convert amount"
// @Security BearerAuth
// @Router /conversions [get]
func (h *conversionHandler) convert(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var query dto.ConversionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		logger.Warn("Failed to bind query for Convert", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: " + err.Error()})
		return
	}
	amount, err := decimal.NewFromString(query.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a decimal number"})
		return
	}
	date, err := dto.ParseRateDate(query.Date, h.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logger = logger.With(slog.String("from_code", query.From), slog.String("to_code", query.To))

	result, ok, err := h.conversionService.Convert(c.Request.Context(), amount, query.From, query.To, date)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to convert amount")
		return
	}
	if !ok {
		logger.Info("Conversion not available")
		c.JSON(http.StatusNotFound, gin.H{"error": "Exchange rate not available"})
		return
	}

	c.JSON(http.StatusOK, dto.ToConversionResponse(result))
}

// total godoc
// @Summary Total amounts in one currency
// @Description Converts every holding to the target currency and sums them. Holdings without a rate are listed as unconverted.
// @Tags conversions
// @Accept  json
// @Produce  json
// @Param   valuation body dto.ValuationRequest true "Holdings and target currency"
// @Success 200 {object} dto.ValuationResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to total amounts"
// @Security BearerAuth
// @Router /conversions/total [post]
func (h *conversionHandler) total(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ValuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Total", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	date, err := dto.ParseRateDate(req.Date, h.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	valuation, err := h.valuationService.TotalIn(c.Request.Context(), req.ToMoneyAmounts(), req.TargetCurrencyCode, date)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to total amounts")
		return
	}

	c.JSON(http.StatusOK, dto.ToValuationResponse(valuation))
}
