package schedule

import (
	"testing"
	"time"

	"agendly/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestActiveLeave_CoversInclusiveRange(t *testing.T) {
	vacations := []model.StaffVacation{
		{ID: "v1", StartDate: date(2026, 7, 10), EndDate: date(2026, 7, 14), Type: model.LeaveVacation, IsActive: true},
	}

	for _, d := range []time.Time{date(2026, 7, 10), date(2026, 7, 12), date(2026, 7, 14)} {
		if _, ok := ActiveLeave(vacations, d); !ok {
			t.Fatalf("expected leave on %s", d.Format("2006-01-02"))
		}
	}
	for _, d := range []time.Time{date(2026, 7, 9), date(2026, 7, 15)} {
		if _, ok := ActiveLeave(vacations, d); ok {
			t.Fatalf("expected no leave on %s", d.Format("2006-01-02"))
		}
	}
}

func TestActiveLeave_LastDayEveningStillBlocked(t *testing.T) {
	vacations := []model.StaffVacation{
		{ID: "v1", StartDate: date(2026, 7, 10), EndDate: date(2026, 7, 14), Type: model.LeaveTimeOff, IsActive: true},
	}

	evening := time.Date(2026, 7, 14, 22, 30, 0, 0, time.UTC)
	if _, ok := ActiveLeave(vacations, evening); !ok {
		t.Fatalf("leave must cover the whole final calendar day")
	}
}

func TestActiveLeave_IgnoresInactive(t *testing.T) {
	vacations := []model.StaffVacation{
		{ID: "v1", StartDate: date(2026, 7, 10), EndDate: date(2026, 7, 14), Type: model.LeaveSickLeave, IsActive: false},
	}

	if _, ok := ActiveLeave(vacations, date(2026, 7, 12)); ok {
		t.Fatalf("deactivated leave must not block the day")
	}
}
