package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"agendly/internal/model"
	"agendly/internal/schedule"
	"agendly/internal/storage"
)

type fakeStore struct {
	business  map[time.Weekday]model.DayHours
	staff     map[time.Weekday]model.DayHours
	vacations []model.StaffVacation
	service   model.Service
	policy    *model.ReleasePolicy
	busy      []schedule.BusyInterval
}

func (f *fakeStore) BusinessDay(_ context.Context, _ string, wd time.Weekday) (model.DayHours, error) {
	return f.business[wd], nil
}

func (f *fakeStore) StaffDay(_ context.Context, _ string, wd time.Weekday) (model.DayHours, error) {
	return f.staff[wd], nil
}

func (f *fakeStore) ActiveVacations(context.Context, string) ([]model.StaffVacation, error) {
	return f.vacations, nil
}

func (f *fakeStore) GetService(context.Context, string, string) (model.Service, error) {
	if f.service.ID == "" {
		return model.Service{}, storage.ErrNotFound
	}
	return f.service, nil
}

func (f *fakeStore) ActiveReleasePolicy(context.Context, string) (*model.ReleasePolicy, error) {
	return f.policy, nil
}

func (f *fakeStore) BookedIntervals(context.Context, string, time.Time, time.Time) ([]schedule.BusyInterval, error) {
	return f.busy, nil
}

func weekdays(start, end int, days ...time.Weekday) map[time.Weekday]model.DayHours {
	out := make(map[time.Weekday]model.DayHours, 7)
	for _, wd := range days {
		out[wd] = model.DayHours{Weekday: wd, Open: true, StartMinute: start, EndMinute: end}
	}
	return out
}

func newTestService(store *fakeStore) *Service {
	svc := NewService(store, time.UTC, 10*time.Minute)
	svc.now = func() time.Time {
		return time.Date(2026, 5, 11, 8, 0, 0, 0, time.UTC) // Monday morning
	}
	return svc
}

func baseStore() *fakeStore {
	all := []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}
	return &fakeStore{
		business: weekdays(9*60, 18*60, all...),
		staff:    weekdays(9*60, 18*60, all...),
		service:  model.Service{ID: "svc-1", DurationMins: 60, IsActive: true},
	}
}

func TestDay_OpenDayYieldsSlots(t *testing.T) {
	svc := newTestService(baseStore())

	day, err := svc.Day(context.Background(), "est-1", "staff-1", "svc-1", "2026-05-11")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if !day.Available || day.Reason != "" {
		t.Fatalf("expected an available day, got %+v", day)
	}
	if day.ServiceDuration != 60 {
		t.Fatalf("unexpected service duration %d", day.ServiceDuration)
	}
	if len(day.Slots) != 43 {
		t.Fatalf("expected 43 candidate slots for 09:00-18:00, got %d", len(day.Slots))
	}
	first := day.Slots[0]
	if !first.Start.Equal(time.Date(2026, 5, 11, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected first slot %s", first.Start)
	}
}

func TestDay_NarrowerStaffHoursWin(t *testing.T) {
	store := baseStore()
	store.staff[time.Monday] = model.DayHours{
		Weekday: time.Monday, Open: true, StartMinute: 9 * 60, EndMinute: 17 * 60,
	}
	svc := newTestService(store)

	day, err := svc.Day(context.Background(), "est-1", "staff-1", "svc-1", "2026-05-11")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	last := day.Slots[len(day.Slots)-1]
	if !last.Start.Equal(time.Date(2026, 5, 11, 16, 0, 0, 0, time.UTC)) {
		t.Fatalf("last slot must start 16:00 under a 17:00 close, got %s", last.Start.Format("15:04"))
	}
}

func TestDay_LeaveBeatsOpenHours(t *testing.T) {
	store := baseStore()
	store.vacations = []model.StaffVacation{
		{
			StartDate: time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC),
			Type:      model.LeaveSickLeave,
			IsActive:  true,
		},
	}
	svc := newTestService(store)

	day, err := svc.Day(context.Background(), "est-1", "staff-1", "svc-1", "2026-05-11")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if day.Available || len(day.Slots) != 0 {
		t.Fatalf("leave day must carry no slots, got %+v", day)
	}
	if day.Reason != "staff member is on sick leave" {
		t.Fatalf("unexpected reason %q", day.Reason)
	}
}

func TestDay_ClosedWeekday(t *testing.T) {
	store := baseStore()
	delete(store.staff, time.Monday)
	svc := newTestService(store)

	day, err := svc.Day(context.Background(), "est-1", "staff-1", "svc-1", "2026-05-11")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if day.Available || day.Reason != "closed on this weekday" {
		t.Fatalf("expected a closed-day answer, got %+v", day)
	}
}

func TestDay_HorizonExcludedIsAnswerNotError(t *testing.T) {
	store := baseStore()
	store.policy = &model.ReleasePolicy{ReleaseInterval: 1, ReleaseDay: 25, IsActive: true}
	svc := newTestService(store)

	day, err := svc.Day(context.Background(), "est-1", "staff-1", "svc-1", "2026-07-06")
	if err != nil {
		t.Fatalf("horizon exclusion must not be an error: %v", err)
	}
	if day.Available || day.Reason == "" {
		t.Fatalf("expected an unavailable day with a reason, got %+v", day)
	}
}

func TestDay_PastDateHasOwnReason(t *testing.T) {
	// No release policy: under an unrestricted horizon a past month must be
	// reported as past, not as waiting for a release that never comes.
	svc := newTestService(baseStore())

	day, err := svc.Day(context.Background(), "est-1", "staff-1", "svc-1", "2026-03-15")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if day.Available || day.Reason != "date is in the past" {
		t.Fatalf("expected a past-date answer, got %+v", day)
	}

	// Yesterday, inside the current month, classifies the same way.
	day, err = svc.Day(context.Background(), "est-1", "staff-1", "svc-1", "2026-05-10")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if day.Available || day.Reason != "date is in the past" {
		t.Fatalf("expected a past-date answer, got %+v", day)
	}
}

func TestDay_UnknownServiceIsInvalid(t *testing.T) {
	store := baseStore()
	store.service = model.Service{}
	svc := newTestService(store)

	_, err := svc.Day(context.Background(), "est-1", "staff-1", "svc-x", "2026-05-11")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMonth_Classifications(t *testing.T) {
	store := baseStore()
	delete(store.business, time.Sunday)
	store.vacations = []model.StaffVacation{
		{
			StartDate: time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 5, 22, 0, 0, 0, 0, time.UTC),
			Type:      model.LeaveVacation,
			IsActive:  true,
		},
	}
	svc := newTestService(store)

	days, err := svc.Month(context.Background(), "est-1", "staff-1", "svc-1", 2026, time.May)
	if err != nil {
		t.Fatalf("month: %v", err)
	}
	if len(days) != 31 {
		t.Fatalf("expected 31 entries for May, got %d", len(days))
	}
	byDay := func(d int) DaySummary { return days[d-1] }

	if s := byDay(3); s.Available || s.Reason != "date is in the past" { // before "now"
		t.Fatalf("May 3 should be past, got %+v", s)
	}
	if s := byDay(17); s.Available || s.Reason != "closed on this weekday" { // a Sunday
		t.Fatalf("May 17 should be closed, got %+v", s)
	}
	if s := byDay(21); s.Available || s.Reason != "staff member is on vacation" {
		t.Fatalf("May 21 should be leave, got %+v", s)
	}
	if s := byDay(12); !s.Available { // Tuesday after "now"
		t.Fatalf("May 12 should be available, got %+v", s)
	}
}

func TestMonth_FullyBookedDay(t *testing.T) {
	store := baseStore()
	// One booking covering the whole open interval of May 12.
	store.busy = []schedule.BusyInterval{
		{
			Start: time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 5, 12, 18, 0, 0, 0, time.UTC),
		},
	}
	svc := newTestService(store)

	days, err := svc.Month(context.Background(), "est-1", "staff-1", "svc-1", 2026, time.May)
	if err != nil {
		t.Fatalf("month: %v", err)
	}
	s := days[11] // May 12
	if s.Available || s.Reason != "fully booked" {
		t.Fatalf("May 12 should be fully booked, got %+v", s)
	}
}

func TestHorizon_RestrictedWindow(t *testing.T) {
	store := baseStore()
	store.policy = &model.ReleasePolicy{ReleaseInterval: 2, ReleaseDay: 25, IsActive: true}
	svc := newTestService(store)

	h, err := svc.Horizon(context.Background(), "est-1")
	if err != nil {
		t.Fatalf("horizon: %v", err)
	}
	if !h.Restricted || len(h.Months) != 2 {
		t.Fatalf("expected a 2-month window, got %+v", h)
	}
	if h.Months[0].Month != time.May || h.Months[1].Month != time.June {
		t.Fatalf("expected {May, June}, got %v", h.Months)
	}
	if h.NextRelease.IsZero() {
		t.Fatalf("restricted horizon must report the next release date")
	}
}

func TestHorizon_Unrestricted(t *testing.T) {
	svc := newTestService(baseStore())

	h, err := svc.Horizon(context.Background(), "est-1")
	if err != nil {
		t.Fatalf("horizon: %v", err)
	}
	if h.Restricted {
		t.Fatalf("no policy means unrestricted")
	}
	if len(h.Months) != 12 {
		t.Fatalf("unrestricted display window should span 12 months, got %d", len(h.Months))
	}
}
