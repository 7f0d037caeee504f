package booking

import (
	"errors"
	"fmt"
	"time"

	"agendly/internal/schedule"
)

// Kind classifies every outcome the engine can hand a caller. ClosedDay,
// OnLeave, and HorizonExcluded are availability classifications, not
// failures: handlers render them as available:false payloads, never as
// HTTP-level errors. Only SchedulingConflict, QuotaExceeded, and Internal
// can arise from the creation path after validation.
type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindClosedDay       Kind = "closed_day"
	KindOnLeave         Kind = "on_leave"
	KindHorizonExcluded Kind = "horizon_excluded"
	KindConflict        Kind = "scheduling_conflict"
	KindQuotaExceeded   Kind = "quota_exceeded"
	KindInternal        Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string

	// Conflict carries the occupied window for SchedulingConflict, enough
	// detail for the caller to pick another slot.
	Conflict *schedule.BusyInterval

	// Current/Max are set for QuotaExceeded.
	Current int
	Max     int

	// NextRelease is set for HorizonExcluded under an active release policy.
	NextRelease time.Time

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// KindOf extracts the engine classification; unrecognized errors are
// Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func invalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func closedDay(message string) *Error {
	return &Error{Kind: KindClosedDay, Message: message}
}

func onLeave(leaveType string) *Error {
	return &Error{Kind: KindOnLeave, Message: fmt.Sprintf("staff member is on %s that day", leaveType)}
}

func horizonExcluded(next time.Time) *Error {
	return &Error{
		Kind:        KindHorizonExcluded,
		Message:     fmt.Sprintf("agenda for that month opens on %s", next.Format("2006-01-02")),
		NextRelease: next,
	}
}

func conflict(window schedule.BusyInterval) *Error {
	return &Error{
		Kind:     KindConflict,
		Message:  fmt.Sprintf("time window %s-%s is already booked", window.Start.Format("15:04"), window.End.Format("15:04")),
		Conflict: &window,
	}
}

func quotaExceeded(current, max int) *Error {
	return &Error{
		Kind:    KindQuotaExceeded,
		Message: fmt.Sprintf("monthly booking limit reached (%d/%d)", current, max),
		Current: current,
		Max:     max,
	}
}

func internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, cause: cause}
}
