package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"agendly/internal/agenda"
	"agendly/internal/lock"
	"agendly/internal/model"
	"agendly/internal/notify"
	"agendly/internal/schedule"
	"agendly/internal/storage"
)

// Store is the persisted state the booking path reads and writes. Implemented
// by storage.Repository.
type Store interface {
	BusinessDay(ctx context.Context, establishmentID string, weekday time.Weekday) (model.DayHours, error)
	StaffDay(ctx context.Context, staffID string, weekday time.Weekday) (model.DayHours, error)
	ActiveVacations(ctx context.Context, staffID string) ([]model.StaffVacation, error)
	GetService(ctx context.Context, establishmentID, serviceID string) (model.Service, error)
	ActiveReleasePolicy(ctx context.Context, establishmentID string) (*model.ReleasePolicy, error)
	GetPlan(ctx context.Context, establishmentID string) (model.Plan, error)
	BookedIntervalsExcluding(ctx context.Context, staffID, excludeApptID string, from, to time.Time) ([]schedule.BusyInterval, error)
	CreateAppointment(ctx context.Context, appt model.Appointment, maxMonthly *int) (model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	CancelAppointment(ctx context.Context, id string) (model.Appointment, error)
	RescheduleAppointment(ctx context.Context, id string, newStart time.Time) (model.Appointment, error)
	ClearReminder(ctx context.Context, appointmentID string) error
}

// Reminders is the slice of the timer coordinator the booking path drives.
type Reminders interface {
	Reschedule(appt model.Appointment)
	Cancel(appointmentID string)
}

type Service struct {
	store      Store
	locks      lock.Locker
	reminders  Reminders
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	loc        *time.Location

	lockTTL time.Duration
	now     func() time.Time
}

func NewService(store Store, locks lock.Locker, reminders Reminders, dispatcher notify.Dispatcher, logger *slog.Logger, loc *time.Location) *Service {
	return &Service{
		store:      store,
		locks:      locks,
		reminders:  reminders,
		dispatcher: dispatcher,
		logger:     logger,
		loc:        loc,
		lockTTL:    10 * time.Second,
		now:        time.Now,
	}
}

type CreateRequest struct {
	EstablishmentID string
	StaffID         string
	ServiceID       string
	ClientID        string
	Date            string // 2006-01-02, establishment-local
	Time            string // 15:04
}

// Create runs the full gate sequence: input validation, agenda horizon,
// effective hours, leave, then under the per-staff lock the proactive
// conflict check and the quota-guarded insert. The storage exclusion
// constraint backs the proactive check, so a racing writer that slips past
// it still gets the same SchedulingConflict.
func (s *Service) Create(ctx context.Context, req CreateRequest) (model.Appointment, error) {
	if req.EstablishmentID == "" || req.StaffID == "" || req.ServiceID == "" || req.ClientID == "" {
		return model.Appointment{}, invalidInput("establishment_id, staff_id, service_id, and client_id are required")
	}
	start, err := s.parseLocal(req.Date, req.Time)
	if err != nil {
		return model.Appointment{}, err
	}

	svc, err := s.store.GetService(ctx, req.EstablishmentID, req.ServiceID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Appointment{}, invalidInput("unknown service %s", req.ServiceID)
		}
		return model.Appointment{}, internal("service lookup failed", err)
	}
	if svc.DurationMins <= 0 {
		return model.Appointment{}, invalidInput("service has no positive duration")
	}
	end := start.Add(time.Duration(svc.DurationMins) * time.Minute)

	now := s.now().In(s.loc)
	if !start.After(now) {
		return model.Appointment{}, invalidInput("requested time is in the past")
	}

	if err := s.checkHorizon(ctx, req.EstablishmentID, start, now); err != nil {
		return model.Appointment{}, err
	}
	if err := s.checkDay(ctx, req.EstablishmentID, req.StaffID, start, end); err != nil {
		return model.Appointment{}, err
	}

	release, err := s.acquireStaffLock(ctx, req.StaffID)
	if err != nil {
		return model.Appointment{}, err
	}
	defer release()

	busy, err := s.store.BookedIntervalsExcluding(ctx, req.StaffID, "", start, end)
	if err != nil {
		return model.Appointment{}, internal("loading existing bookings failed", err)
	}
	if window, ok := schedule.Conflict(start, end, busy); ok {
		return model.Appointment{}, conflict(window)
	}

	plan, err := s.store.GetPlan(ctx, req.EstablishmentID)
	if err != nil {
		return model.Appointment{}, internal("plan lookup failed", err)
	}

	appt, err := s.store.CreateAppointment(ctx, model.Appointment{
		EstablishmentID: req.EstablishmentID,
		StaffID:         req.StaffID,
		ServiceID:       req.ServiceID,
		ClientID:        req.ClientID,
		StartTime:       start,
		DurationMins:    svc.DurationMins,
		Status:          model.StatusScheduled,
	}, plan.MaxMonthlyAppointments)
	if err != nil {
		return model.Appointment{}, s.translateWrite(ctx, req.StaffID, start, end, err)
	}

	s.reminders.Reschedule(appt)
	s.announce(ctx, appt)
	return appt, nil
}

// Cancel is idempotent: cancelling a cancelled appointment returns it
// unchanged.
func (s *Service) Cancel(ctx context.Context, appointmentID string) (model.Appointment, error) {
	if appointmentID == "" {
		return model.Appointment{}, invalidInput("appointment id is required")
	}
	current, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Appointment{}, invalidInput("unknown appointment %s", appointmentID)
		}
		return model.Appointment{}, internal("appointment lookup failed", err)
	}
	if current.Status == model.StatusCancelled {
		return current, nil
	}

	appt, err := s.store.CancelAppointment(ctx, appointmentID)
	if err != nil {
		return model.Appointment{}, internal("cancel failed", err)
	}
	s.reminders.Cancel(appt.ID)
	if err := s.dispatcher.AppointmentCancelled(ctx, bookingEvent(appt)); err != nil {
		s.logger.Warn("cancel event dispatch failed", "appointment_id", appt.ID, "err", err)
	}
	return appt, nil
}

// Reschedule moves an appointment, applying the same gates as creation for
// the new window (quota excepted: the booking already counts against the
// month it lands in). The old reminder state is retired exactly once and a
// fresh one owns the new time.
func (s *Service) Reschedule(ctx context.Context, appointmentID, date, clock string) (model.Appointment, error) {
	if appointmentID == "" {
		return model.Appointment{}, invalidInput("appointment id is required")
	}
	start, err := s.parseLocal(date, clock)
	if err != nil {
		return model.Appointment{}, err
	}

	current, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Appointment{}, invalidInput("unknown appointment %s", appointmentID)
		}
		return model.Appointment{}, internal("appointment lookup failed", err)
	}
	if current.Status == model.StatusCancelled {
		return model.Appointment{}, invalidInput("appointment %s is cancelled", appointmentID)
	}
	end := start.Add(time.Duration(current.DurationMins) * time.Minute)

	now := s.now().In(s.loc)
	if !start.After(now) {
		return model.Appointment{}, invalidInput("requested time is in the past")
	}
	if err := s.checkHorizon(ctx, current.EstablishmentID, start, now); err != nil {
		return model.Appointment{}, err
	}
	if err := s.checkDay(ctx, current.EstablishmentID, current.StaffID, start, end); err != nil {
		return model.Appointment{}, err
	}

	release, err := s.acquireStaffLock(ctx, current.StaffID)
	if err != nil {
		return model.Appointment{}, err
	}
	defer release()

	busy, err := s.store.BookedIntervalsExcluding(ctx, current.StaffID, appointmentID, start, end)
	if err != nil {
		return model.Appointment{}, internal("loading existing bookings failed", err)
	}
	if window, ok := schedule.Conflict(start, end, busy); ok {
		return model.Appointment{}, conflict(window)
	}

	appt, err := s.store.RescheduleAppointment(ctx, appointmentID, start)
	if err != nil {
		return model.Appointment{}, s.translateWrite(ctx, current.StaffID, start, end, err)
	}

	// A reminder already fired for the old time must not suppress the one
	// owed at the new time.
	if err := s.store.ClearReminder(ctx, appt.ID); err != nil {
		s.logger.Warn("reminder claim reset failed", "appointment_id", appt.ID, "err", err)
	}
	s.reminders.Reschedule(appt)
	s.announce(ctx, appt)
	return appt, nil
}

func (s *Service) parseLocal(date, clock string) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return time.Time{}, invalidInput("invalid date %q, want YYYY-MM-DD", date)
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, invalidInput("invalid time %q, want HH:MM", clock)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, s.loc), nil
}

func (s *Service) checkHorizon(ctx context.Context, establishmentID string, start, now time.Time) error {
	policy, err := s.store.ActiveReleasePolicy(ctx, establishmentID)
	if err != nil {
		return internal("release policy lookup failed", err)
	}
	horizon := agenda.Compute(policy, now)
	if !horizon.Released(agenda.MonthOf(start)) {
		return horizonExcluded(horizon.NextRelease(now))
	}
	return nil
}

// checkDay verifies the requested window fits the effective open interval
// and the staff member is not on leave.
func (s *Service) checkDay(ctx context.Context, establishmentID, staffID string, start, end time.Time) error {
	vacations, err := s.store.ActiveVacations(ctx, staffID)
	if err != nil {
		return internal("leave lookup failed", err)
	}
	if v, ok := schedule.ActiveLeave(vacations, start); ok {
		return onLeave(string(v.Type))
	}

	business, err := s.store.BusinessDay(ctx, establishmentID, start.Weekday())
	if err != nil {
		return internal("business hours lookup failed", err)
	}
	staff, err := s.store.StaffDay(ctx, staffID, start.Weekday())
	if err != nil {
		return internal("staff hours lookup failed", err)
	}
	hours, open := schedule.EffectiveInterval(business, staff)
	if !open {
		return closedDay("no working hours for that weekday")
	}
	dayOpen, dayClose := hours.Times(start)
	if start.Before(dayOpen) || end.After(dayClose) {
		return closedDay("requested time falls outside working hours")
	}
	return nil
}

func (s *Service) acquireStaffLock(ctx context.Context, staffID string) (func(), error) {
	ok, err := s.locks.Acquire(ctx, "staff:"+staffID, s.lockTTL)
	if err != nil {
		return nil, internal("staff lock unavailable", err)
	}
	if !ok {
		return nil, internal("another booking for this staff member is in progress, retry", nil)
	}
	return func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), "staff:"+staffID); err != nil {
			s.logger.Warn("staff lock release failed", "staff_id", staffID, "err", err)
		}
	}, nil
}

// translateWrite maps storage-layer rejections onto the same error kinds the
// proactive checks report, so callers cannot tell which guard caught them.
func (s *Service) translateWrite(ctx context.Context, staffID string, start, end time.Time, err error) error {
	var q *storage.QuotaError
	if errors.As(err, &q) {
		return quotaExceeded(q.Current, q.Max)
	}
	if errors.Is(err, storage.ErrOverlap) {
		busy, lookupErr := s.store.BookedIntervalsExcluding(ctx, staffID, "", start, end)
		if lookupErr == nil {
			if window, ok := schedule.Conflict(start, end, busy); ok {
				return conflict(window)
			}
		}
		return conflict(schedule.BusyInterval{Start: start, End: end})
	}
	return internal("booking write failed", err)
}

func (s *Service) announce(ctx context.Context, appt model.Appointment) {
	if err := s.dispatcher.AppointmentBooked(ctx, bookingEvent(appt)); err != nil {
		s.logger.Warn("booking event dispatch failed", "appointment_id", appt.ID, "err", err)
	}
}

func bookingEvent(appt model.Appointment) notify.BookingEvent {
	return notify.BookingEvent{
		AppointmentID:   appt.ID,
		EstablishmentID: appt.EstablishmentID,
		StaffID:         appt.StaffID,
		ClientID:        appt.ClientID,
		ServiceID:       appt.ServiceID,
		StartTime:       appt.StartTime,
		EndTime:         appt.EndTime(),
		Status:          string(appt.Status),
	}
}
