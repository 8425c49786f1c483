package lending

import "time"

// today returns the calendar date of t as midnight UTC, so that whole-day
// differences are exact multiples of 24 hours.
func today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days from due to day; negative when day is
// earlier.
func daysBetween(due, day time.Time) int {
	y, m, d := due.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(day.Sub(start).Hours() / 24)
}
