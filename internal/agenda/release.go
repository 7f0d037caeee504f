package agenda

import (
	"time"

	"agendly/internal/model"
)

// Month identifies one calendar month.
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Before orders months chronologically.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// Horizon is the set of months currently open for booking. A nil policy (or
// an inactive one) leaves the horizon unrestricted: every month from the
// current one forward is bookable.
type Horizon struct {
	Restricted bool
	Current    Month
	First      Month
	Count      int
	ReleaseDay int
}

// Compute derives the released window from the active policy and "today"
// (establishment-local). With a policy: if today's day-of-month has reached
// the release day, the window starts next month; otherwise it starts at the
// current month. The window spans ReleaseInterval consecutive months.
func Compute(policy *model.ReleasePolicy, today time.Time) Horizon {
	current := MonthOf(today)
	if policy == nil || !policy.IsActive {
		return Horizon{Restricted: false, Current: current}
	}

	first := current
	if today.Day() >= policy.ReleaseDay {
		first = current.Next()
	}
	count := policy.ReleaseInterval
	if count < 1 {
		count = 1
	}
	return Horizon{
		Restricted: true,
		Current:    current,
		First:      first,
		Count:      count,
		ReleaseDay: policy.ReleaseDay,
	}
}

// Released reports whether the given month may receive bookings. Months in
// the past are never released, even under an unrestricted horizon.
func (h Horizon) Released(m Month) bool {
	if m.Before(h.Current) {
		return false
	}
	if !h.Restricted {
		return true
	}
	if m.Before(h.First) {
		return false
	}
	limit := h.First
	for i := 1; i < h.Count; i++ {
		limit = limit.Next()
	}
	return !limit.Before(m)
}

// Months lists the released window. Unrestricted horizons have no finite
// listing; callers get the current month plus a rolling year for display.
func (h Horizon) Months() []Month {
	if !h.Restricted {
		out := make([]Month, 0, 12)
		m := h.Current
		for i := 0; i < 12; i++ {
			out = append(out, m)
			m = m.Next()
		}
		return out
	}
	out := make([]Month, 0, h.Count)
	m := h.First
	for i := 0; i < h.Count; i++ {
		out = append(out, m)
		m = m.Next()
	}
	return out
}

// NextRelease is the next day the window advances. Meaningless for an
// unrestricted horizon (zero time).
func (h Horizon) NextRelease(today time.Time) time.Time {
	if !h.Restricted {
		return time.Time{}
	}
	next := time.Date(today.Year(), today.Month(), h.ReleaseDay, 0, 0, 0, 0, today.Location())
	if today.Day() >= h.ReleaseDay {
		next = next.AddDate(0, 1, 0)
	}
	return next
}
