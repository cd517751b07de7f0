package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SscSPs/mma_currency/internal/apperrors"
	"github.com/SscSPs/mma_currency/internal/core/domain"
	portsrepo "github.com/SscSPs/mma_currency/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mma_currency/internal/core/ports/services"
	"github.com/SscSPs/mma_currency/internal/platform/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"
)

const (
	// DefaultSyncSchedule runs the sync once a day after the publisher's afternoon release.
	DefaultSyncSchedule = "CRON_TZ=UTC 0 3 * * *"
	// DefaultSyncRetryBase is the wait before the second fetch attempt; it doubles after that.
	DefaultSyncRetryBase = 2 * time.Second
	// DefaultSyncRetryAttempts is the total number of fetch attempts, including the first.
	DefaultSyncRetryAttempts = 3
	// DefaultGapWindowDays is how far back missing business dates are looked for.
	DefaultGapWindowDays = 90
)

// syncRecorder receives the cycle metrics; *metrics.Collector implements it.
type syncRecorder interface {
	RecordSyncCycle(outcome string, duration time.Duration, failed bool, finishedAt time.Time)
	AddSyncRecords(stage string, n int)
	RecordInterruptedSyncCycle(duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordSyncCycle(string, time.Duration, bool, time.Time) {}
func (noopRecorder) AddSyncRecords(string, int) {}
func (noopRecorder) RecordInterruptedSyncCycle(time.Duration) {}

// RateSyncService keeps the rate store current with the upstream feed.
// One cycle fetches the recent window, backfills missing business dates from
// the historical feed and upserts everything. At most one cycle runs at a time.
type RateSyncService struct {
	BaseService
	feed          portssvc.RateFeed
	store         portsrepo.ExchangeRateRepositoryFacade
	recorder      syncRecorder
	scheduleExpr  string
	schedule      cron.Schedule
	retryBase     time.Duration
	retryAttempts int
	gapWindowDays int
	now           func() time.Time

	running sync.Mutex
	phase   atomic.Int32
	async   sync.WaitGroup

	// stopped is cancelled by Stop or when the context given to Run ends.
	// Manual cycles are bound to it.
	stopped context.Context
	stop    context.CancelFunc

	reportMu   sync.RWMutex
	lastReport *domain.SyncReport
}

// RateSyncOption is a functional option for configuring the rate sync service
type RateSyncOption func(*RateSyncService)

// WithSyncLogger sets the logger used by the scheduler
func WithSyncLogger(logger *slog.Logger) RateSyncOption {
	return func(s *RateSyncService) {
		s.Logger = logger
	}
}

// WithSyncClock replaces time.Now
func WithSyncClock(now func() time.Time) RateSyncOption {
	return func(s *RateSyncService) {
		s.now = now
	}
}

// WithSyncSchedule sets the cron expression of the scheduled cycles
func WithSyncSchedule(expr string) RateSyncOption {
	return func(s *RateSyncService) {
		s.scheduleExpr = expr
	}
}

// WithSyncRetry sets the fetch retry policy
func WithSyncRetry(base time.Duration, attempts int) RateSyncOption {
	return func(s *RateSyncService) {
		s.retryBase = base
		s.retryAttempts = attempts
	}
}

// WithGapWindowDays sets how many days back gaps are detected
func WithGapWindowDays(days int) RateSyncOption {
	return func(s *RateSyncService) {
		s.gapWindowDays = days
	}
}

// WithSyncMetrics reports cycles to the given collector
func WithSyncMetrics(collector *metrics.Collector) RateSyncOption {
	return func(s *RateSyncService) {
		if collector != nil {
			s.recorder = collector
		}
	}
}

// NewRateSyncService creates the sync service. It fails on an invalid schedule or retry policy.
func NewRateSyncService(feed portssvc.RateFeed, store portsrepo.ExchangeRateRepositoryFacade, options ...RateSyncOption) (*RateSyncService, error) {
	s := &RateSyncService{
		BaseService:   BaseService{Logger: slog.Default()},
		feed:          feed,
		store:         store,
		recorder:      noopRecorder{},
		scheduleExpr:  DefaultSyncSchedule,
		retryBase:     DefaultSyncRetryBase,
		retryAttempts: DefaultSyncRetryAttempts,
		gapWindowDays: DefaultGapWindowDays,
		now:           time.Now,
	}
	for _, option := range options {
		option(s)
	}

	schedule, err := cron.ParseStandard(s.scheduleExpr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid sync schedule %q: %v", apperrors.ErrValidation, s.scheduleExpr, err)
	}
	s.schedule = schedule

	if s.retryAttempts < 1 {
		return nil, fmt.Errorf("%w: sync retry attempts must be at least 1", apperrors.ErrValidation)
	}
	if s.retryBase < 0 {
		return nil, fmt.Errorf("%w: sync retry base must not be negative", apperrors.ErrValidation)
	}
	if s.gapWindowDays < 1 {
		return nil, fmt.Errorf("%w: gap window must be at least one day", apperrors.ErrValidation)
	}

	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	s.Logger = s.Logger.With(slog.String("component", "rate_sync"))
	s.stopped, s.stop = context.WithCancel(context.Background())
	return s, nil
}

var _ portssvc.RateSyncSvc = (*RateSyncService)(nil)

// Run performs a catch-up cycle, then one cycle per schedule tick until ctx is cancelled.
// Cancelling ctx also stops the service, cancelling any manual cycle.
func (s *RateSyncService) Run(ctx context.Context) {
	context.AfterFunc(ctx, s.Stop)
	s.LogInfo(ctx, "Rate sync scheduler started", slog.String("schedule", s.scheduleExpr))
	s.runGuarded(ctx, domain.TriggerStartup)

	for {
		next := s.schedule.Next(s.now())
		timer := time.NewTimer(next.Sub(s.now()))
		s.LogDebug(ctx, "Next rate sync scheduled", slog.Time("at", next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.LogInfo(ctx, "Rate sync scheduler stopped")
			return
		case <-timer.C:
		}

		s.runGuarded(ctx, domain.TriggerScheduled)
	}
}

// runGuarded runs a cycle and keeps a failing or panicking cycle from ending the loop.
func (s *RateSyncService) runGuarded(ctx context.Context, trigger domain.SyncTrigger) {
	defer func() {
		if r := recover(); r != nil {
			s.setPhase(domain.PhaseIdle)
			s.LogError(ctx, fmt.Errorf("panic: %v", r), "Rate sync cycle panicked", slog.String("trigger", string(trigger)))
		}
	}()

	if _, err := s.RunCycle(ctx, trigger); err != nil {
		if errors.Is(err, apperrors.ErrSyncInProgress) {
			s.LogInfo(ctx, "Rate sync already running, skipping tick", slog.String("trigger", string(trigger)))
			return
		}
		s.LogError(ctx, err, "Rate sync cycle failed", slog.String("trigger", string(trigger)))
	}
}

// RunCycle runs one sync cycle. The returned error is only set when no cycle ran;
// how far a cycle got is described by the report.
func (s *RateSyncService) RunCycle(ctx context.Context, trigger domain.SyncTrigger) (domain.SyncReport, error) {
	if !s.running.TryLock() {
		return domain.SyncReport{}, apperrors.ErrSyncInProgress
	}
	defer s.running.Unlock()

	return s.cycle(ctx, trigger), nil
}

// TriggerAsync starts a manual cycle in the background. The cycle keeps the values of ctx
// but not its cancellation, so it outlives the request that started it. It is cancelled
// by Stop instead.
func (s *RateSyncService) TriggerAsync(ctx context.Context) error {
	if s.stopped.Err() != nil {
		return apperrors.ErrSyncStopped
	}
	if !s.running.TryLock() {
		return apperrors.ErrSyncInProgress
	}

	cycleCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	unbind := context.AfterFunc(s.stopped, cancel)
	s.async.Add(1)
	go func() {
		defer s.async.Done()
		defer s.running.Unlock()
		defer cancel()
		defer unbind()
		defer func() {
			if r := recover(); r != nil {
				s.setPhase(domain.PhaseIdle)
				s.LogError(cycleCtx, fmt.Errorf("panic: %v", r), "Manual rate sync cycle panicked")
			}
		}()
		s.cycle(cycleCtx, domain.TriggerManual)
	}()
	return nil
}

// Stop cancels the running manual cycle and rejects new ones. It does not stop Run;
// cancel Run's context for that. Stop is idempotent.
func (s *RateSyncService) Stop() {
	s.stop()
}

// Wait blocks until background cycles started by TriggerAsync have finished.
func (s *RateSyncService) Wait() {
	s.async.Wait()
}

// Phase returns the phase of the running cycle, or PhaseIdle.
func (s *RateSyncService) Phase() domain.SyncPhase {
	return domain.SyncPhase(s.phase.Load())
}

// LastReport returns the report of the last finished cycle.
func (s *RateSyncService) LastReport() (domain.SyncReport, bool) {
	s.reportMu.RLock()
	defer s.reportMu.RUnlock()
	if s.lastReport == nil {
		return domain.SyncReport{}, false
	}
	return *s.lastReport, true
}

func (s *RateSyncService) setPhase(p domain.SyncPhase) {
	s.phase.Store(int32(p))
}

// cycle must be called with s.running held.
func (s *RateSyncService) cycle(ctx context.Context, trigger domain.SyncTrigger) domain.SyncReport {
	report := domain.SyncReport{Trigger: trigger, StartedAt: s.now()}
	defer s.setPhase(domain.PhaseIdle)

	s.LogInfo(ctx, "Rate sync cycle started", slog.String("trigger", string(trigger)))

	s.setPhase(domain.PhaseFetchingRecent)
	recent, err := s.fetchWithRetry(ctx, "recent", s.feed.FetchRecent)
	if err != nil && ctx.Err() != nil {
		report.Outcome = domain.SyncCancelled
		report.Err = err
		return s.finish(ctx, report)
	}
	if err != nil {
		s.LogError(ctx, err, "Recent feed unavailable, skipping cycle",
			slog.Int("attempts", s.retryAttempts))
		report.Outcome = domain.SyncSkipped
		report.Err = err
		return s.finish(ctx, report)
	}
	report.RecentFetched = len(recent)
	s.recorder.AddSyncRecords(metrics.StageFetchedRecent, len(recent))

	partial := false

	s.setPhase(domain.PhaseDetectingGaps)
	missing, err := s.detectGaps(ctx, recent)
	if err != nil {
		s.LogError(ctx, err, "Gap detection failed, skipping backfill")
		partial = true
		report.Err = err
	}
	report.MissingDates = missing

	batch := make([]domain.ExchangeRate, 0, len(recent))
	batch = append(batch, recent...)

	if len(missing) > 0 {
		s.setPhase(domain.PhaseBackfillingHistorical)
		s.LogInfo(ctx, "Backfilling missing dates",
			slog.Int("missing", len(missing)),
			slog.String("first", domain.FormatDate(missing[0])),
			slog.String("last", domain.FormatDate(missing[len(missing)-1])))

		historical, err := s.fetchWithRetry(ctx, "historical", s.feed.FetchHistorical)
		if err != nil {
			s.LogError(ctx, err, "Historical feed unavailable, continuing without backfill")
			partial = true
			report.Err = err
		} else {
			backfill := ratesOnDates(historical, missing)
			report.BackfillFetched = len(backfill)
			s.recorder.AddSyncRecords(metrics.StageFetchedBackfill, len(backfill))
			batch = append(batch, backfill...)
		}
	}

	s.setPhase(domain.PhasePersisting)
	saved, failed, err := s.persist(ctx, batch)
	report.Saved = saved
	report.Failed = failed
	s.recorder.AddSyncRecords(metrics.StageSaved, saved)
	s.recorder.AddSyncRecords(metrics.StageFailed, failed)
	if err != nil {
		partial = true
		report.Err = err
	}

	switch {
	case ctx.Err() != nil && (partial || failed > 0):
		report.Outcome = domain.SyncCancelled
	case partial || failed > 0:
		report.Outcome = domain.SyncPartial
	default:
		report.Outcome = domain.SyncSucceeded
	}
	return s.finish(ctx, report)
}

func (s *RateSyncService) finish(ctx context.Context, report domain.SyncReport) domain.SyncReport {
	report.FinishedAt = s.now()
	if report.Outcome == domain.SyncCancelled {
		s.recorder.RecordInterruptedSyncCycle(report.Duration())
	} else {
		s.recorder.RecordSyncCycle(report.Outcome.String(), report.Duration(), report.Outcome == domain.SyncSkipped, report.FinishedAt)
	}

	s.reportMu.Lock()
	s.lastReport = &report
	s.reportMu.Unlock()

	attrs := []any{
		slog.String("trigger", string(report.Trigger)),
		slog.String("outcome", report.Outcome.String()),
		slog.Int("recentFetched", report.RecentFetched),
		slog.Int("missingDates", len(report.MissingDates)),
		slog.Int("backfillFetched", report.BackfillFetched),
		slog.Int("saved", report.Saved),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", report.Duration()),
	}
	switch report.Outcome {
	case domain.SyncSucceeded:
		s.LogInfo(ctx, "Rate sync cycle finished", attrs...)
	case domain.SyncCancelled:
		s.LogInfo(ctx, "Rate sync cycle cancelled", attrs...)
	default:
		s.LogWarn(ctx, "Rate sync cycle finished incomplete", attrs...)
	}
	return report
}

// fetchWithRetry retries fetch on ErrFetch with exponential backoff: base, 2*base, ...
// Any other error stops immediately.
func (s *RateSyncService) fetchWithRetry(ctx context.Context, feedName string, fetch func(context.Context) ([]domain.ExchangeRate, error)) ([]domain.ExchangeRate, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retryBase
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxInterval = s.retryBase << s.retryAttempts
	policy.MaxElapsedTime = 0

	attempt := 0
	operation := func() ([]domain.ExchangeRate, error) {
		attempt++
		rates, err := fetch(ctx)
		if err != nil {
			if errors.Is(err, apperrors.ErrFetch) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return rates, nil
	}
	notify := func(err error, wait time.Duration) {
		s.LogWarn(ctx, "Feed fetch failed, retrying",
			slog.String("feed", feedName),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()))
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.retryAttempts-1)), ctx)
	return backoff.RetryNotifyWithData(operation, b, notify)
}

// detectGaps returns the business dates of the gap window with no stored rate.
// Dates present in the recent feed count as stored, and dates newer than the
// newest published date are not gaps yet.
func (s *RateSyncService) detectGaps(ctx context.Context, recent []domain.ExchangeRate) ([]time.Time, error) {
	to := domain.DateOf(s.now().UTC())
	from := to.AddDate(0, 0, -s.gapWindowDays)

	existing, err := s.store.DatesInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	present := make(map[time.Time]struct{}, len(existing)+len(recent))
	for d := range existing {
		present[domain.DateOf(d)] = struct{}{}
	}
	var newest time.Time
	for _, r := range recent {
		present[r.Date] = struct{}{}
		if r.Date.After(newest) {
			newest = r.Date
		}
	}
	if !newest.IsZero() && newest.Before(to) {
		to = newest
	}

	return FindMissingBusinessDates(present, from, to), nil
}

// ratesOnDates keeps the rates whose date is one of dates.
func ratesOnDates(rates []domain.ExchangeRate, dates []time.Time) []domain.ExchangeRate {
	wanted := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		wanted[d] = struct{}{}
	}
	kept := make([]domain.ExchangeRate, 0)
	for _, r := range rates {
		if _, ok := wanted[r.Date]; ok {
			kept = append(kept, r)
		}
	}
	return kept
}

// persist upserts every rate; a failed record is logged and the batch continues.
// Cancellation stops the batch between records.
func (s *RateSyncService) persist(ctx context.Context, rates []domain.ExchangeRate) (saved, failed int, err error) {
	for _, rate := range rates {
		if ctxErr := ctx.Err(); ctxErr != nil {
			s.LogWarn(ctx, "Persisting interrupted",
				slog.Int("saved", saved),
				slog.Int("remaining", len(rates)-saved-failed))
			return saved, failed, ctxErr
		}
		if upsertErr := s.store.UpsertRate(ctx, rate); upsertErr != nil {
			failed++
			s.LogError(ctx, upsertErr, "Failed to save exchange rate",
				slog.String("date", domain.FormatDate(rate.Date)),
				slog.String("currency", rate.TargetCurrency))
			continue
		}
		saved++
	}
	return saved, failed, nil
}
