package pool

import "time"

// IsStale reports whether a pool fetched at the given time should be
// refreshed. Staleness is calendar-month granularity in UTC: a pool fetched
// in month M is stale once the current month differs, however recently it
// was written. A zero fetchedAt is always stale.
func IsStale(fetchedAt, now time.Time) bool {
	if fetchedAt.IsZero() {
		return true
	}
	f, n := fetchedAt.UTC(), now.UTC()
	return f.Year() != n.Year() || f.Month() != n.Month()
}

// EndOfMonthTTL returns the duration from now until the end of the current
// UTC month, used as the TTL for assembled community data.
func EndOfMonthTTL(now time.Time) time.Duration {
	n := now.UTC()
	nextMonth := time.Date(n.Year(), n.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return nextMonth.Sub(n)
}
