package schedule

import (
	"testing"
	"time"
)

func TestGenerateSlots_LastSlotFitsExactly(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 4, 6, 0, 0, 0, 0, loc)
	hours := ClockRange{StartMinute: 9 * 60, EndMinute: 17 * 60}
	now := day.Add(-time.Hour) // everything is in the future

	slots, err := GenerateSlots(day, hours, 60*time.Minute, 10*time.Minute, nil, now)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	last := slots[len(slots)-1]
	wantStart := day.Add(16 * time.Hour)
	if !last.Start.Equal(wantStart) {
		t.Fatalf("expected last start 16:00, got %s", last.Start.Format("15:04"))
	}
	if !last.End.Equal(day.Add(17 * time.Hour)) {
		t.Fatalf("expected last end 17:00, got %s", last.End.Format("15:04"))
	}
	// 09:00..16:00 inclusive at 10-minute steps.
	if len(slots) != 43 {
		t.Fatalf("expected 43 slots, got %d", len(slots))
	}
}

func TestGenerateSlots_PastIncludesExactNow(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 4, 6, 0, 0, 0, 0, loc)
	hours := ClockRange{StartMinute: 9 * 60, EndMinute: 10 * 60}
	now := day.Add(9*time.Hour + 30*time.Minute)

	slots, err := GenerateSlots(day, hours, 30*time.Minute, 10*time.Minute, nil, now)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, s := range slots {
		if s.Start.Equal(now) && !s.IsPast {
			t.Fatalf("slot starting exactly at now must count as past")
		}
		if s.Start.After(now) && s.IsPast {
			t.Fatalf("future slot %s flagged past", s.Start.Format("15:04"))
		}
	}
}

func TestGenerateSlots_BookedClassification(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 4, 6, 0, 0, 0, 0, loc)
	hours := ClockRange{StartMinute: 10 * 60, EndMinute: 12 * 60}
	now := day // morning of; all slots future
	busy := []BusyInterval{
		{Start: day.Add(10 * time.Hour), End: day.Add(10*time.Hour + 30*time.Minute)},
	}

	slots, err := GenerateSlots(day, hours, 30*time.Minute, 10*time.Minute, busy, now)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	byStart := func(hh, mm int) Slot {
		want := day.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
		for _, s := range slots {
			if s.Start.Equal(want) {
				return s
			}
		}
		t.Fatalf("slot %02d:%02d missing", hh, mm)
		return Slot{}
	}

	if s := byStart(10, 0); !s.IsBooked || s.Available {
		t.Fatalf("10:00 should be booked")
	}
	if s := byStart(10, 20); !s.IsBooked {
		t.Fatalf("10:20 overlaps the booking tail and should be booked")
	}
	// 10:30 starts exactly when the booking ends: back-to-back is fine.
	if s := byStart(10, 30); s.IsBooked || !s.Available {
		t.Fatalf("10:30 back-to-back slot should be available")
	}
}

func TestGenerateSlots_InvalidDuration(t *testing.T) {
	day := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	if _, err := GenerateSlots(day, ClockRange{StartMinute: 540, EndMinute: 600}, 0, 10*time.Minute, nil, day); err != ErrInvalidDuration {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := GenerateSlots(day, ClockRange{StartMinute: 540, EndMinute: 600}, 30*time.Minute, 0, nil, day); err != ErrInvalidDuration {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestConflict_HalfOpen(t *testing.T) {
	day := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	busy := []BusyInterval{
		{Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)},
	}

	// Touching endpoints on either side.
	if _, hit := Conflict(day.Add(9*time.Hour), day.Add(10*time.Hour), busy); hit {
		t.Fatalf("slot ending at busy start must not conflict")
	}
	if _, hit := Conflict(day.Add(11*time.Hour), day.Add(12*time.Hour), busy); hit {
		t.Fatalf("slot starting at busy end must not conflict")
	}
	// One minute of overlap.
	if _, hit := Conflict(day.Add(10*time.Hour+15*time.Minute), day.Add(11*time.Hour+15*time.Minute), busy); !hit {
		t.Fatalf("overlapping slot must conflict")
	}
	if _, hit := Conflict(day.Add(9*time.Hour+30*time.Minute), day.Add(10*time.Hour+1*time.Minute), busy); !hit {
		t.Fatalf("slot crossing busy start must conflict")
	}
}
