package credauth

import "time"

// isExpired applies the inactivity policy. An absent (zero) lastActivity is
// expired, fail-closed. The limit is whole days for determinism, never
// calendar months.
func isExpired(lastActivity time.Time, limitDays int, now time.Time) bool {
	if lastActivity.IsZero() {
		return true
	}
	deadline := lastActivity.Add(time.Duration(limitDays) * 24 * time.Hour)
	return now.After(deadline)
}
