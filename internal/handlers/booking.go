package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"agendly/internal/booking"
	"agendly/internal/model"
)

type createBookingRequest struct {
	EstablishmentID string `json:"establishment_id"`
	StaffID         string `json:"staff_id"`
	ServiceID       string `json:"service_id"`
	ClientID        string `json:"client_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type appointmentResponse struct {
	AppointmentID string `json:"appointment_id"`
	StaffID       string `json:"staff_id"`
	ServiceID     string `json:"service_id"`
	ClientID      string `json:"client_id"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	appt, err := h.bookings.Create(r.Context(), booking.CreateRequest{
		EstablishmentID: strings.TrimSpace(req.EstablishmentID),
		StaffID:         strings.TrimSpace(req.StaffID),
		ServiceID:       strings.TrimSpace(req.ServiceID),
		ClientID:        strings.TrimSpace(req.ClientID),
		Date:            strings.TrimSpace(req.Date),
		Time:            strings.TrimSpace(req.Time),
	})
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appointmentJSON(appt))
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	appt, err := h.bookings.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appointmentJSON(appt))
}

func (h *Handler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	appt, err := h.bookings.Reschedule(r.Context(), r.PathValue("id"),
		strings.TrimSpace(req.Date), strings.TrimSpace(req.Time))
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appointmentJSON(appt))
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	staffID := strings.TrimSpace(r.URL.Query().Get("staff_id"))
	if staffID == "" {
		http.Error(w, "staff_id is required", http.StatusBadRequest)
		return
	}
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, "to must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	appts, err := h.repo.ListAppointments(r.Context(), staffID, from, to.AddDate(0, 0, 1))
	if err != nil {
		h.logger.Error("listing appointments failed", "err", err)
		http.Error(w, "listing appointments failed", http.StatusInternalServerError)
		return
	}
	items := make([]appointmentResponse, 0, len(appts))
	for _, appt := range appts {
		items = append(items, appointmentJSON(appt))
	}
	writeJSON(w, http.StatusOK, items)
}

// writeBookingError maps engine error kinds onto HTTP statuses. Internal
// failures get a generic message; the detail stays in the log.
func (h *Handler) writeBookingError(w http.ResponseWriter, err error) {
	var e *booking.Error
	if !errors.As(err, &e) {
		h.logger.Error("booking failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errorDetail{
			Kind:    string(booking.KindInternal),
			Message: "booking failed, retry later",
		}})
		return
	}

	detail := errorDetail{Kind: string(e.Kind), Message: e.Message}
	status := http.StatusBadRequest
	switch e.Kind {
	case booking.KindConflict:
		status = http.StatusConflict
		if e.Conflict != nil {
			detail.ConflictsAt = e.Conflict.Start.Format(time.RFC3339)
			detail.ConflictsTo = e.Conflict.End.Format(time.RFC3339)
		}
	case booking.KindQuotaExceeded:
		status = http.StatusUnprocessableEntity
		current, max := e.Current, e.Max
		detail.Current = &current
		detail.Max = &max
	case booking.KindHorizonExcluded:
		status = http.StatusUnprocessableEntity
		detail.NextRelease = e.NextRelease.Format("2006-01-02")
	case booking.KindClosedDay, booking.KindOnLeave:
		status = http.StatusUnprocessableEntity
	case booking.KindInternal:
		h.logger.Error("booking failed", "err", e)
		status = http.StatusInternalServerError
		detail.Message = "booking failed, retry later"
	}
	writeJSON(w, status, errorResponse{Error: detail})
}

func appointmentJSON(appt model.Appointment) appointmentResponse {
	return appointmentResponse{
		AppointmentID: appt.ID,
		StaffID:       appt.StaffID,
		ServiceID:     appt.ServiceID,
		ClientID:      appt.ClientID,
		StartTime:     appt.StartTime.Format(time.RFC3339),
		EndTime:       appt.EndTime().Format(time.RFC3339),
		Status:        string(appt.Status),
	}
}
