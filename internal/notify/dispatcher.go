package notify

import (
	"context"
	"time"
)

// ReminderEvent is the trigger contract consumed by the external
// notification dispatcher. Delivery and its retry semantics are entirely the
// consumer's responsibility.
type ReminderEvent struct {
	AppointmentID   string    `json:"appointment_id"`
	EstablishmentID string    `json:"establishment_id"`
	StaffID         string    `json:"staff_id"`
	ClientID        string    `json:"client_id"`
	ServiceID       string    `json:"service_id"`
	StartTime       time.Time `json:"start_time"`
}

// BookingEvent announces appointment lifecycle changes to downstream
// channels (confirmation emails, calendars).
type BookingEvent struct {
	AppointmentID   string    `json:"appointment_id"`
	EstablishmentID string    `json:"establishment_id"`
	StaffID         string    `json:"staff_id"`
	ClientID        string    `json:"client_id"`
	ServiceID       string    `json:"service_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Status          string    `json:"status"`
}

type Dispatcher interface {
	ReminderDue(ctx context.Context, evt ReminderEvent) error
	AppointmentBooked(ctx context.Context, evt BookingEvent) error
	AppointmentCancelled(ctx context.Context, evt BookingEvent) error
}

// Noop stands in when no brokers are configured (dev, tests).
type Noop struct{}

func (Noop) ReminderDue(context.Context, ReminderEvent) error { return nil }

func (Noop) AppointmentBooked(context.Context, BookingEvent) error { return nil }

func (Noop) AppointmentCancelled(context.Context, BookingEvent) error { return nil }
