package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agendly/internal/availability"
	"agendly/internal/schedule"
)

type timeSlotItem struct {
	Time            string `json:"time"`
	Available       bool   `json:"available"`
	IsPast          bool   `json:"isPast"`
	IsBooked        bool   `json:"isBooked"`
	ServiceDuration int    `json:"serviceDuration"`
	EndTime         string `json:"endTime"`
}

type dayResponse struct {
	Date      string         `json:"date"`
	Available bool           `json:"available"`
	Reason    string         `json:"reason,omitempty"`
	TimeSlots []timeSlotItem `json:"timeSlots,omitempty"`
}

type daySummaryItem struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type horizonResponse struct {
	Restricted  bool     `json:"restricted"`
	Months      []string `json:"months"`
	NextRelease string   `json:"nextRelease,omitempty"`
}

func (h *Handler) Day(w http.ResponseWriter, r *http.Request) {
	establishmentID := strings.TrimSpace(r.URL.Query().Get("establishment_id"))
	staffID := strings.TrimSpace(r.URL.Query().Get("staff_id"))
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if establishmentID == "" || staffID == "" || serviceID == "" || date == "" {
		http.Error(w, "establishment_id, staff_id, service_id, and date are required", http.StatusBadRequest)
		return
	}

	day, err := h.availability.Day(r.Context(), establishmentID, staffID, serviceID, date)
	if err != nil {
		if errors.Is(err, availability.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("availability query failed", "err", err)
		http.Error(w, "availability query failed", http.StatusInternalServerError)
		return
	}

	resp := dayResponse{
		Date:      day.Date.Format("2006-01-02"),
		Available: day.Available,
		Reason:    day.Reason,
	}
	if day.Available {
		resp.TimeSlots = slotItems(day.Slots, day.ServiceDuration)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Month(w http.ResponseWriter, r *http.Request) {
	establishmentID := strings.TrimSpace(r.URL.Query().Get("establishment_id"))
	staffID := strings.TrimSpace(r.URL.Query().Get("staff_id"))
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	if establishmentID == "" || staffID == "" || serviceID == "" {
		http.Error(w, "establishment_id, staff_id, and service_id are required", http.StatusBadRequest)
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		http.Error(w, "year must be numeric", http.StatusBadRequest)
		return
	}
	monthNum, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || monthNum < 1 || monthNum > 12 {
		http.Error(w, "month must be 1-12", http.StatusBadRequest)
		return
	}

	days, err := h.availability.Month(r.Context(), establishmentID, staffID, serviceID, year, time.Month(monthNum))
	if err != nil {
		if errors.Is(err, availability.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("month availability query failed", "err", err)
		http.Error(w, "availability query failed", http.StatusInternalServerError)
		return
	}

	items := make([]daySummaryItem, 0, len(days))
	for _, d := range days {
		items = append(items, daySummaryItem{
			Date:      d.Date.Format("2006-01-02"),
			Available: d.Available,
			Reason:    d.Reason,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) Horizon(w http.ResponseWriter, r *http.Request) {
	establishmentID := strings.TrimSpace(r.URL.Query().Get("establishment_id"))
	if establishmentID == "" {
		http.Error(w, "establishment_id is required", http.StatusBadRequest)
		return
	}
	horizon, err := h.availability.Horizon(r.Context(), establishmentID)
	if err != nil {
		h.logger.Error("horizon query failed", "err", err)
		http.Error(w, "horizon query failed", http.StatusInternalServerError)
		return
	}

	months := make([]string, 0, len(horizon.Months))
	for _, m := range horizon.Months {
		months = append(months, time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"))
	}
	resp := horizonResponse{
		Restricted: horizon.Restricted,
		Months:     months,
	}
	if horizon.Restricted {
		resp.NextRelease = horizon.NextRelease.Format("2006-01-02")
	}
	writeJSON(w, http.StatusOK, resp)
}

func slotItems(slots []schedule.Slot, durationMins int) []timeSlotItem {
	items := make([]timeSlotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, timeSlotItem{
			Time:            s.Start.Format("15:04"),
			Available:       s.Available,
			IsPast:          s.IsPast,
			IsBooked:        s.IsBooked,
			ServiceDuration: durationMins,
			EndTime:         s.End.Format("15:04"),
		})
	}
	return items
}
