package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"agendly/internal/availability"
	"agendly/internal/booking"
	"agendly/internal/storage"
)

// Handler is the HTTP surface of the engine. Availability classifications
// (closed, leave, horizon) are 200 responses with available:false; only
// creation-path failures and malformed input become HTTP errors.
type Handler struct {
	bookings     *booking.Service
	availability *availability.Service
	repo         *storage.Repository
	logger       *slog.Logger
}

func New(bookings *booking.Service, avail *availability.Service, repo *storage.Repository, logger *slog.Logger) *Handler {
	return &Handler{
		bookings:     bookings,
		availability: avail,
		repo:         repo,
		logger:       logger,
	}
}

// Register wires every route onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/availability", h.Day)
	mux.HandleFunc("GET /v1/availability/month", h.Month)
	mux.HandleFunc("GET /v1/agenda/horizon", h.Horizon)

	mux.HandleFunc("POST /v1/bookings", h.CreateBooking)
	mux.HandleFunc("GET /v1/bookings", h.ListBookings)
	mux.HandleFunc("POST /v1/bookings/{id}/cancel", h.CancelBooking)
	mux.HandleFunc("POST /v1/bookings/{id}/reschedule", h.RescheduleBooking)

	mux.HandleFunc("PUT /v1/establishments/{id}/business-hours", h.PutBusinessHours)
	mux.HandleFunc("GET /v1/establishments/{id}/business-hours", h.GetBusinessHours)
	mux.HandleFunc("PUT /v1/staff/{id}/working-hours", h.PutStaffHours)
	mux.HandleFunc("GET /v1/staff/{id}/working-hours", h.GetStaffHours)
	mux.HandleFunc("POST /v1/staff/{id}/vacations", h.CreateVacation)
	mux.HandleFunc("GET /v1/staff/{id}/vacations", h.ListVacations)
	mux.HandleFunc("DELETE /v1/staff/{id}/vacations/{vacationId}", h.DeactivateVacation)
	mux.HandleFunc("POST /v1/establishments/{id}/services", h.CreateService)
	mux.HandleFunc("GET /v1/establishments/{id}/services", h.ListServices)
	mux.HandleFunc("PUT /v1/establishments/{id}/release-policy", h.PutReleasePolicy)
	mux.HandleFunc("PUT /v1/establishments/{id}/plan", h.PutPlan)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind        string `json:"kind"`
	Message     string `json:"message"`
	Current     *int   `json:"current_count,omitempty"`
	Max         *int   `json:"max_count,omitempty"`
	ConflictsAt string `json:"conflict_start,omitempty"`
	ConflictsTo string `json:"conflict_end,omitempty"`
	NextRelease string `json:"next_release,omitempty"`
}
