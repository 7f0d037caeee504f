package schedule

import (
	"time"

	"agendly/internal/model"
)

// ClockRange is an effective open interval for one day, in wall-clock
// minutes from midnight. The range is half-open: a staff member working
// 09:00-17:00 has StartMinute 540 and EndMinute 1020.
type ClockRange struct {
	StartMinute int
	EndMinute   int
}

// EffectiveInterval intersects business hours with staff working hours for
// one weekday. The day is closed when the business is closed, the staff
// member does not work that weekday, or the two ranges share no overlap.
// Staff availability never exceeds the establishment's own hours, and vice
// versa.
func EffectiveInterval(business, staff model.DayHours) (ClockRange, bool) {
	if !business.Open || !staff.Open {
		return ClockRange{}, false
	}
	open := business.StartMinute
	if staff.StartMinute > open {
		open = staff.StartMinute
	}
	close := business.EndMinute
	if staff.EndMinute < close {
		close = staff.EndMinute
	}
	if open >= close {
		return ClockRange{}, false
	}
	return ClockRange{StartMinute: open, EndMinute: close}, true
}

// Times anchors the range on a calendar day, returning concrete instants in
// the day's location.
func (r ClockRange) Times(day time.Time) (time.Time, time.Time) {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return midnight.Add(time.Duration(r.StartMinute) * time.Minute),
		midnight.Add(time.Duration(r.EndMinute) * time.Minute)
}
