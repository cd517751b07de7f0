package domain

import "time"

// SyncPhase is the state of the rate sync state machine.
type SyncPhase int

const (
	PhaseIdle SyncPhase = iota
	PhaseFetchingRecent
	PhaseDetectingGaps
	PhaseBackfillingHistorical
	PhasePersisting
)

func (p SyncPhase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseFetchingRecent:
		return "FETCHING_RECENT"
	case PhaseDetectingGaps:
		return "DETECTING_GAPS"
	case PhaseBackfillingHistorical:
		return "BACKFILLING_HISTORICAL"
	case PhasePersisting:
		return "PERSISTING"
	default:
		return "UNKNOWN"
	}
}

// SyncOutcome summarizes how a cycle ended.
type SyncOutcome int

const (
	// SyncSucceeded: recent feed fetched, backfill (if any) fetched, every record saved.
	SyncSucceeded SyncOutcome = iota + 1
	// SyncPartial: recent feed fetched but backfill or some upserts failed.
	SyncPartial
	// SyncSkipped: recent feed unavailable; nothing was written.
	SyncSkipped
	// SyncCancelled: the cycle was stopped by shutdown; records saved before that remain.
	SyncCancelled
)

func (o SyncOutcome) String() string {
	switch o {
	case SyncSucceeded:
		return "succeeded"
	case SyncPartial:
		return "partial"
	case SyncSkipped:
		return "skipped"
	case SyncCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// SyncTrigger says why a cycle started.
type SyncTrigger string

const (
	TriggerStartup   SyncTrigger = "startup"
	TriggerScheduled SyncTrigger = "scheduled"
	TriggerManual    SyncTrigger = "manual"
)

// SyncReport describes one finished sync cycle.
type SyncReport struct {
	Trigger         SyncTrigger `json:"trigger"`
	StartedAt       time.Time   `json:"startedAt"`
	FinishedAt      time.Time   `json:"finishedAt"`
	Outcome         SyncOutcome `json:"-"`
	RecentFetched   int         `json:"recentFetched"`
	MissingDates    []time.Time `json:"missingDates"`
	BackfillFetched int         `json:"backfillFetched"`
	Saved           int         `json:"saved"`
	Failed          int         `json:"failed"`
	Err             error       `json:"-"`
}

// Duration is the wall time the cycle took.
func (r SyncReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
