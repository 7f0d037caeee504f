package quota

import "time"

// Decision is the outcome of the monthly quota guard for one creation
// attempt. Current counts appointments already in the month, before the new
// one is inserted.
type Decision struct {
	Allowed bool
	Current int
	Max     int
	Limited bool
}

// Check compares the month's existing booking count against the plan
// ceiling. A nil ceiling means the plan is unlimited and always passes.
func Check(current int, max *int) Decision {
	if max == nil {
		return Decision{Allowed: true, Current: current}
	}
	return Decision{
		Allowed: current < *max,
		Current: current,
		Max:     *max,
		Limited: true,
	}
}

// MonthRange returns the half-open [start, end) instant range of t's
// calendar month in t's location, used to count bookings for the guard.
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}
