package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agendly/internal/agenda"
	"agendly/internal/model"
	"agendly/internal/schedule"
	"agendly/internal/storage"
)

// ErrInvalidInput marks malformed queries (bad date, unknown service,
// non-positive duration) that are rejected before touching the engine.
var ErrInvalidInput = errors.New("invalid availability query")

// Store is the read-only slice of persistence the availability path needs.
type Store interface {
	BusinessDay(ctx context.Context, establishmentID string, weekday time.Weekday) (model.DayHours, error)
	StaffDay(ctx context.Context, staffID string, weekday time.Weekday) (model.DayHours, error)
	ActiveVacations(ctx context.Context, staffID string) ([]model.StaffVacation, error)
	GetService(ctx context.Context, establishmentID, serviceID string) (model.Service, error)
	ActiveReleasePolicy(ctx context.Context, establishmentID string) (*model.ReleasePolicy, error)
	BookedIntervals(ctx context.Context, staffID string, from, to time.Time) ([]schedule.BusyInterval, error)
}

type Service struct {
	store Store
	loc   *time.Location
	step  time.Duration

	now func() time.Time
}

func NewService(store Store, loc *time.Location, step time.Duration) *Service {
	if step <= 0 {
		step = 10 * time.Minute
	}
	return &Service{store: store, loc: loc, step: step, now: time.Now}
}

// Day is the availability answer for one staff/service/date. Closed, leave,
// and horizon-excluded days are classifications carried in Reason, never
// errors: a day with Available=false is a perfectly normal answer.
type Day struct {
	Date            time.Time
	Available       bool
	Reason          string
	ServiceDuration int
	Slots           []schedule.Slot
}

// DaySummary is one entry of a whole-month listing.
type DaySummary struct {
	Date      time.Time
	Available bool
	Reason    string
}

// Horizon reports the released month set for display and automated clients.
type Horizon struct {
	Restricted  bool
	Months      []agenda.Month
	NextRelease time.Time
}

func (s *Service) Day(ctx context.Context, establishmentID, staffID, serviceID, date string) (Day, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return Day{}, fmt.Errorf("%w: bad date %q", ErrInvalidInput, date)
	}
	svc, err := s.store.GetService(ctx, establishmentID, serviceID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Day{}, fmt.Errorf("%w: unknown service %q", ErrInvalidInput, serviceID)
		}
		return Day{}, err
	}
	if svc.DurationMins <= 0 {
		return Day{}, fmt.Errorf("%w: service duration must be positive", ErrInvalidInput)
	}

	now := s.now().In(s.loc)
	if pastDay(day, now) {
		return Day{Date: day, Reason: "date is in the past"}, nil
	}
	policy, err := s.store.ActiveReleasePolicy(ctx, establishmentID)
	if err != nil {
		return Day{}, err
	}
	horizon := agenda.Compute(policy, now)
	if !horizon.Released(agenda.MonthOf(day)) {
		return Day{
			Date:   day,
			Reason: fmt.Sprintf("agenda for that month opens on %s", horizon.NextRelease(now).Format("2006-01-02")),
		}, nil
	}

	vacations, err := s.store.ActiveVacations(ctx, staffID)
	if err != nil {
		return Day{}, err
	}
	if v, ok := schedule.ActiveLeave(vacations, day); ok {
		return Day{Date: day, Reason: leaveReason(v.Type)}, nil
	}

	hours, open, err := s.effectiveHours(ctx, establishmentID, staffID, day.Weekday())
	if err != nil {
		return Day{}, err
	}
	if !open {
		return Day{Date: day, Reason: "closed on this weekday"}, nil
	}

	dayOpen, dayClose := hours.Times(day)
	busy, err := s.store.BookedIntervals(ctx, staffID, dayOpen, dayClose)
	if err != nil {
		return Day{}, err
	}
	slots, err := schedule.GenerateSlots(day, hours, time.Duration(svc.DurationMins)*time.Minute, s.step, busy, now)
	if err != nil {
		return Day{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return Day{
		Date:            day,
		Available:       true,
		ServiceDuration: svc.DurationMins,
		Slots:           slots,
	}, nil
}

// Month classifies every day of a calendar month. Hours are fetched once per
// weekday and bookings once for the whole month, so the per-day loop is pure
// computation.
func (s *Service) Month(ctx context.Context, establishmentID, staffID, serviceID string, year int, month time.Month) ([]DaySummary, error) {
	if year < 2000 || year > 2200 || month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: bad month/year", ErrInvalidInput)
	}
	svc, err := s.store.GetService(ctx, establishmentID, serviceID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown service %q", ErrInvalidInput, serviceID)
		}
		return nil, err
	}
	if svc.DurationMins <= 0 {
		return nil, fmt.Errorf("%w: service duration must be positive", ErrInvalidInput)
	}

	now := s.now().In(s.loc)
	policy, err := s.store.ActiveReleasePolicy(ctx, establishmentID)
	if err != nil {
		return nil, err
	}
	horizon := agenda.Compute(policy, now)

	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	monthEnd := monthStart.AddDate(0, 1, 0)

	released := horizon.Released(agenda.Month{Year: year, Month: month})
	nextRelease := horizon.NextRelease(now)

	var hoursByWeekday [7]schedule.ClockRange
	var openByWeekday [7]bool
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		hours, open, err := s.effectiveHours(ctx, establishmentID, staffID, wd)
		if err != nil {
			return nil, err
		}
		hoursByWeekday[wd] = hours
		openByWeekday[wd] = open
	}

	vacations, err := s.store.ActiveVacations(ctx, staffID)
	if err != nil {
		return nil, err
	}
	busy, err := s.store.BookedIntervals(ctx, staffID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(svc.DurationMins) * time.Minute
	var out []DaySummary
	for day := monthStart; day.Before(monthEnd); day = day.AddDate(0, 0, 1) {
		summary := DaySummary{Date: day}
		switch {
		case pastDay(day, now):
			summary.Reason = "date is in the past"
		case !released:
			summary.Reason = fmt.Sprintf("agenda for that month opens on %s", nextRelease.Format("2006-01-02"))
		case !openByWeekday[day.Weekday()]:
			summary.Reason = "closed on this weekday"
		default:
			if v, ok := schedule.ActiveLeave(vacations, day); ok {
				summary.Reason = leaveReason(v.Type)
				break
			}
			slots, err := schedule.GenerateSlots(day, hoursByWeekday[day.Weekday()], duration, s.step, busy, now)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			for _, slot := range slots {
				if slot.Available {
					summary.Available = true
					break
				}
			}
			if !summary.Available {
				summary.Reason = "fully booked"
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

// Horizon answers the agenda horizon query: which months are currently open
// and, under a restricted policy, when the window next advances.
func (s *Service) Horizon(ctx context.Context, establishmentID string) (Horizon, error) {
	policy, err := s.store.ActiveReleasePolicy(ctx, establishmentID)
	if err != nil {
		return Horizon{}, err
	}
	now := s.now().In(s.loc)
	h := agenda.Compute(policy, now)
	return Horizon{
		Restricted:  h.Restricted,
		Months:      h.Months(),
		NextRelease: h.NextRelease(now),
	}, nil
}

func (s *Service) effectiveHours(ctx context.Context, establishmentID, staffID string, weekday time.Weekday) (schedule.ClockRange, bool, error) {
	business, err := s.store.BusinessDay(ctx, establishmentID, weekday)
	if err != nil {
		return schedule.ClockRange{}, false, err
	}
	staff, err := s.store.StaffDay(ctx, staffID, weekday)
	if err != nil {
		return schedule.ClockRange{}, false, err
	}
	hours, open := schedule.EffectiveInterval(business, staff)
	return hours, open, nil
}

// pastDay reports whether the calendar date is already behind now in the
// establishment's location. Past days get their own classification instead
// of falling into the horizon or booked branches.
func pastDay(day, now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.Before(today)
}

func leaveReason(t model.LeaveType) string {
	switch t {
	case model.LeaveSickLeave:
		return "staff member is on sick leave"
	case model.LeaveTimeOff:
		return "staff member has time off"
	default:
		return "staff member is on vacation"
	}
}
