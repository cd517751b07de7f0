package services

import (
	"context"
	"time"

	"github.com/SscSPs/mma_currency/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ExchangeRateReaderSvc serves point-in-time rates and conversions.
type ExchangeRateReaderSvc interface {
	// GetRate returns how many units of `to` one unit of `from` buys on date.
	// ok is false when the rate cannot be resolved from stored data.
	GetRate(ctx context.Context, date time.Time, from, to string) (rate decimal.Decimal, ok bool, err error)

	// ResolveDate returns the calendar date a conversion on date uses: date itself, or the
	// latest stored date when date is nil, or today when the store is empty.
	ResolveDate(ctx context.Context, date *time.Time) (time.Time, error)

	// Convert converts amount from one currency to another. A nil date means the latest stored date.
	Convert(ctx context.Context, amount decimal.Decimal, from, to string, date *time.Time) (result domain.ConversionResult, ok bool, err error)

	// GetLastUpdateTime returns the newest ingestion timestamp across all stored rates.
	GetLastUpdateTime(ctx context.Context) (at time.Time, ok bool, err error)
}

// CurrencyReaderSvc defines read operations for currency data
type CurrencyReaderSvc interface {
	// GetSupportedCurrencies lists every currency code a rate can be resolved for.
	GetSupportedCurrencies(ctx context.Context) ([]string, error)
}

// ConversionSvcFacade combines all conversion-related service interfaces
type ConversionSvcFacade interface {
	ExchangeRateReaderSvc
	CurrencyReaderSvc
}

// RateSyncSvc drives ingestion of the upstream feed.
type RateSyncSvc interface {
	// Run runs a catch-up cycle and then scheduled cycles until ctx is cancelled.
	Run(ctx context.Context)

	// Stop cancels a running background cycle and rejects new ones.
	Stop()

	// Wait blocks until background cycles started by TriggerAsync have finished.
	Wait()

	// RunCycle performs one synchronization cycle.
	RunCycle(ctx context.Context, trigger domain.SyncTrigger) (domain.SyncReport, error)

	// TriggerAsync starts a cycle in the background. It returns apperrors.ErrSyncInProgress
	// when a cycle is already running and apperrors.ErrSyncStopped after Stop.
	TriggerAsync(ctx context.Context) error

	// Phase returns the current state of the sync state machine.
	Phase() domain.SyncPhase

	// LastReport returns the report of the most recent finished cycle.
	LastReport() (domain.SyncReport, bool)
}

// ValuationSvc totals amounts held in several currencies.
type ValuationSvc interface {
	TotalIn(ctx context.Context, holdings []domain.MoneyAmount, target string, date *time.Time) (domain.Valuation, error)
}
