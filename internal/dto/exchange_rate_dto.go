package dto

import (
	"time"

	"github.com/SscSPs/mma_currency/internal/core/domain"
	"github.com/shopspring/decimal"
)

// GetExchangeRateURI binds the currency pair of GET /exchange-rates/{from}/{to}.
type GetExchangeRateURI struct {
	From string `uri:"from" binding:"required,currency"`
	To   string `uri:"to" binding:"required,currency"`
}

// DateQuery binds the optional ?date=YYYY-MM-DD parameter.
type DateQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// ExchangeRateResponse is the rate of one currency pair on one date.
type ExchangeRateResponse struct {
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	Date             string          `json:"date"`
}

// ToExchangeRateResponse builds the response for a resolved rate.
func ToExchangeRateResponse(from, to string, rate decimal.Decimal, date time.Time) ExchangeRateResponse {
	return ExchangeRateResponse{
		FromCurrencyCode: domain.NormalizeCurrencyCode(from),
		ToCurrencyCode:   domain.NormalizeCurrencyCode(to),
		Rate:             rate,
		Date:             domain.FormatDate(date),
	}
}

// LastUpdateResponse reports when rates were last ingested.
type LastUpdateResponse struct {
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// SupportedCurrenciesResponse lists the currencies rates can be resolved for.
type SupportedCurrenciesResponse struct {
	BaseCurrency string   `json:"baseCurrency"`
	Currencies   []string `json:"currencies"`
}

// SyncReportResponse describes a finished sync cycle.
type SyncReportResponse struct {
	Trigger         string    `json:"trigger"`
	Outcome         string    `json:"outcome"`
	StartedAt       time.Time `json:"startedAt"`
	FinishedAt      time.Time `json:"finishedAt"`
	DurationMillis  int64     `json:"durationMillis"`
	RecentFetched   int       `json:"recentFetched"`
	MissingDates    []string  `json:"missingDates"`
	BackfillFetched int       `json:"backfillFetched"`
	Saved           int       `json:"saved"`
	Failed          int       `json:"failed"`
	Error           string    `json:"error,omitempty"`
}

// SyncStatusResponse is the current sync phase plus the last finished cycle, if any.
type SyncStatusResponse struct {
	Phase      string              `json:"phase"`
	LastReport *SyncReportResponse `json:"lastReport,omitempty"`
}

// ToSyncReportResponse converts a domain.SyncReport to its DTO.
func ToSyncReportResponse(report domain.SyncReport) SyncReportResponse {
	missing := make([]string, len(report.MissingDates))
	for i, d := range report.MissingDates {
		missing[i] = domain.FormatDate(d)
	}
	resp := SyncReportResponse{
		Trigger:         string(report.Trigger),
		Outcome:         report.Outcome.String(),
		StartedAt:       report.StartedAt,
		FinishedAt:      report.FinishedAt,
		DurationMillis:  report.Duration().Milliseconds(),
		RecentFetched:   report.RecentFetched,
		MissingDates:    missing,
		BackfillFetched: report.BackfillFetched,
		Saved:           report.Saved,
		Failed:          report.Failed,
	}
	if report.Err != nil {
		resp.Error = report.Err.Error()
	}
	return resp
}
