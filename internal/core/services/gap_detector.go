package services

import (
	"time"

	"github.com/SscSPs/mma_currency/internal/core/domain"
)

// FindMissingBusinessDates lists the weekdays in [from, to] that are not in existing, ascending.
// Weekends are never reported because the feed publisher does not publish on them.
func FindMissingBusinessDates(existing map[time.Time]struct{}, from, to time.Time) []time.Time {
	from, to = domain.DateOf(from), domain.DateOf(to)
	missing := []time.Time{}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !domain.IsBusinessDay(d) {
			continue
		}
		if _, ok := existing[d]; ok {
			continue
		}
		missing = append(missing, d)
	}
	return missing
}
