package domain

import (
	"strings"
	"time"
)

// BaseCurrency is the pivot currency of the rate feed. Every stored rate is BaseCurrency -> target.
const BaseCurrency = "EUR"

// DateLayout is the calendar date format used by the feed and the API.
const DateLayout = "2006-01-02"

// FeedInceptionDate is the first date the reference feed published rates for.
var FeedInceptionDate = time.Date(1999, time.January, 4, 0, 0, 0, 0, time.UTC)

// DateOf truncates t to its calendar date at 00:00 UTC.
// The calendar date is taken in t's own location before conversion.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// IsBusinessDay reports whether the feed publisher publishes on the given date.
func IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// NormalizeCurrencyCode trims and upper-cases a currency code.
func NormalizeCurrencyCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsCurrencyCode reports whether code is exactly three ASCII letters.
func IsCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}
