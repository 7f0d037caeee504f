package schedule

import (
	"time"

	"agendly/internal/model"
)

// ActiveLeave reports whether any active leave record covers the queried
// calendar day. Leave covers whole days: the comparison is by calendar date
// in the day's location, never by instant, so a vacation ending "today"
// still blocks an evening slot.
func ActiveLeave(vacations []model.StaffVacation, day time.Time) (model.StaffVacation, bool) {
	for _, v := range vacations {
		if !v.IsActive {
			continue
		}
		if !dateBefore(day, v.StartDate) && !dateBefore(v.EndDate, day) {
			return v, true
		}
	}
	return model.StaffVacation{}, false
}

// dateBefore compares calendar dates, ignoring time-of-day.
func dateBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
