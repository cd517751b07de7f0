package services

import (
	"log/slog"

	portsrepo "github.com/SscSPs/mma_currency/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mma_currency/internal/core/ports/services"
	"github.com/SscSPs/mma_currency/internal/platform/config"
	"github.com/SscSPs/mma_currency/internal/platform/metrics"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// A nil rateCache makes the conversion service use a local TTL cache.
func NewServiceContainer(
	cfg *config.Config,
	repos portsrepo.RepositoryProvider,
	feed portssvc.RateFeed,
	rateCache portssvc.RateCache,
	collector *metrics.Collector,
	logger *slog.Logger,
) (*portssvc.ServiceContainer, error) {
	container := &portssvc.ServiceContainer{}

	conversion, err := NewConversionService(
		repos.ExchangeRateRepo,
		rateCache,
		WithConversionCacheTTL(cfg.Cache.TTL),
		WithConversionLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	container.Conversion = conversion

	// Valuation depends on conversion, so it is created after it
	container.Valuation = NewValuationService(container.Conversion)

	container.RateSync, err = NewRateSyncService(
		feed,
		repos.ExchangeRateRepo,
		WithSyncLogger(logger),
		WithSyncSchedule(cfg.Sync.Schedule),
		WithSyncRetry(cfg.Sync.RetryBase, cfg.Sync.RetryAttempts),
		WithGapWindowDays(cfg.Sync.GapWindowDays),
		WithSyncMetrics(collector),
	)
	if err != nil {
		return nil, err
	}

	return container, nil
}
