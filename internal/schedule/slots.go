package schedule

import (
	"errors"
	"time"
)

// ErrInvalidDuration rejects non-positive service durations or step sizes as
// malformed input rather than reporting an empty day.
var ErrInvalidDuration = errors.New("service duration and step must be positive")

// BusyInterval is an occupied half-open window [Start, End) belonging to an
// existing non-cancelled appointment.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Slot is one candidate start time with its classification. The generator
// never filters the sequence down to only-available entries; callers render
// past and booked slots distinctly.
type Slot struct {
	Start     time.Time
	End       time.Time
	IsPast    bool
	IsBooked  bool
	Available bool
}

// GenerateSlots walks candidate start times across the effective interval of
// a day in fixed steps. Candidates whose end would overrun the closing time
// are discarded entirely; the rest are classified against "now" and the busy
// intervals. All inputs are expected in the establishment's location.
func GenerateSlots(day time.Time, hours ClockRange, duration, step time.Duration, busy []BusyInterval, now time.Time) ([]Slot, error) {
	if duration <= 0 || step <= 0 {
		return nil, ErrInvalidDuration
	}

	open, close := hours.Times(day)
	var slots []Slot
	for t := open; !t.Add(duration).After(close); t = t.Add(step) {
		end := t.Add(duration)
		past := !t.After(now)
		_, booked := Conflict(t, end, busy)
		slots = append(slots, Slot{
			Start:     t,
			End:       end,
			IsPast:    past,
			IsBooked:  booked,
			Available: !past && !booked,
		})
	}
	return slots, nil
}

// Conflict reports the first busy interval overlapping [start, end).
// Half-open semantics: touching endpoints do not conflict, which is what
// allows back-to-back bookings.
func Conflict(start, end time.Time, busy []BusyInterval) (BusyInterval, bool) {
	for _, b := range busy {
		if start.Before(b.End) && b.Start.Before(end) {
			return b, true
		}
	}
	return BusyInterval{}, false
}
