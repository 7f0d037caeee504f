package model

import "time"

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Blocks reports whether an appointment in this status occupies its time
// window for conflict detection. Only cancelled appointments free the slot.
func (s AppointmentStatus) Blocks() bool {
	return s != StatusCancelled
}

type Appointment struct {
	ID              string
	EstablishmentID string
	StaffID         string
	ServiceID       string
	ClientID        string
	StartTime       time.Time
	// DurationMins is snapshotted from the service at creation time so later
	// service edits do not move existing bookings.
	DurationMins int
	Status       AppointmentStatus
	CreatedAt    time.Time
}

// EndTime is derived; it is never stored independently of start + duration.
func (a Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMins) * time.Minute)
}

// DayHours is one weekday row of either the establishment's business-hours
// table or a staff member's working-hours table. Times are wall-clock minutes
// from midnight, local to the establishment.
type DayHours struct {
	Weekday     time.Weekday
	Open        bool
	StartMinute int
	EndMinute   int
}

type LeaveType string

const (
	LeaveVacation  LeaveType = "vacation"
	LeaveSickLeave LeaveType = "sick_leave"
	LeaveTimeOff   LeaveType = "time_off"
)

// StaffVacation covers whole calendar days: StartDate and EndDate are
// inclusive dates (midnight local), regardless of time-of-day.
type StaffVacation struct {
	ID        string
	StaffID   string
	StartDate time.Time
	EndDate   time.Time
	Type      LeaveType
	IsActive  bool
}

type Service struct {
	ID              string
	EstablishmentID string
	Name            string
	DurationMins    int
	Price           string
	IsActive        bool
}

// ReleasePolicy describes batch agenda release: every ReleaseDay of the
// month, the next ReleaseInterval months open for booking.
type ReleasePolicy struct {
	EstablishmentID string
	ReleaseInterval int
	ReleaseDay      int
	IsActive        bool
}

// Plan carries the subscription ceiling. A nil MaxMonthlyAppointments means
// unlimited.
type Plan struct {
	Name                   string
	MaxMonthlyAppointments *int
}
