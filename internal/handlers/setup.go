package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"agendly/internal/model"
	"agendly/internal/storage"
)

type dayHoursItem struct {
	Weekday     int  `json:"weekday"`
	Open        bool `json:"open"`
	StartMinute int  `json:"start_minute"`
	EndMinute   int  `json:"end_minute"`
}

func (h *Handler) PutBusinessHours(w http.ResponseWriter, r *http.Request) {
	days, ok := h.decodeDayHours(w, r)
	if !ok {
		return
	}
	if err := h.repo.UpsertBusinessHours(r.Context(), r.PathValue("id"), days); err != nil {
		h.logger.Error("business hours upsert failed", "err", err)
		http.Error(w, "saving business hours failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetBusinessHours(w http.ResponseWriter, r *http.Request) {
	days, err := h.repo.ListBusinessHours(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("business hours lookup failed", "err", err)
		http.Error(w, "loading business hours failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dayHoursItems(days))
}

func (h *Handler) PutStaffHours(w http.ResponseWriter, r *http.Request) {
	days, ok := h.decodeDayHours(w, r)
	if !ok {
		return
	}
	if err := h.repo.UpsertStaffHours(r.Context(), r.PathValue("id"), days); err != nil {
		h.logger.Error("staff hours upsert failed", "err", err)
		http.Error(w, "saving working hours failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetStaffHours(w http.ResponseWriter, r *http.Request) {
	days, err := h.repo.ListStaffHours(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("staff hours lookup failed", "err", err)
		http.Error(w, "loading working hours failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dayHoursItems(days))
}

type vacationRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Type      string `json:"type"`
}

type vacationItem struct {
	ID        string `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Type      string `json:"type"`
}

func (h *Handler) CreateVacation(w http.ResponseWriter, r *http.Request) {
	var req vacationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if end.Before(start) {
		http.Error(w, "end_date must not precede start_date", http.StatusBadRequest)
		return
	}
	leaveType := model.LeaveType(strings.TrimSpace(req.Type))
	switch leaveType {
	case model.LeaveVacation, model.LeaveSickLeave, model.LeaveTimeOff:
	default:
		http.Error(w, "type must be vacation, sick_leave, or time_off", http.StatusBadRequest)
		return
	}

	id, err := h.repo.CreateVacation(r.Context(), model.StaffVacation{
		StaffID:   r.PathValue("id"),
		StartDate: start,
		EndDate:   end,
		Type:      leaveType,
		IsActive:  true,
	})
	if err != nil {
		h.logger.Error("vacation create failed", "err", err)
		http.Error(w, "saving leave failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) ListVacations(w http.ResponseWriter, r *http.Request) {
	vacations, err := h.repo.ActiveVacations(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("vacation list failed", "err", err)
		http.Error(w, "loading leave failed", http.StatusInternalServerError)
		return
	}
	items := make([]vacationItem, 0, len(vacations))
	for _, v := range vacations {
		items = append(items, vacationItem{
			ID:        v.ID,
			StartDate: v.StartDate.Format("2006-01-02"),
			EndDate:   v.EndDate.Format("2006-01-02"),
			Type:      string(v.Type),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) DeactivateVacation(w http.ResponseWriter, r *http.Request) {
	err := h.repo.DeactivateVacation(r.Context(), r.PathValue("id"), r.PathValue("vacationId"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "leave record not found", http.StatusNotFound)
			return
		}
		h.logger.Error("vacation deactivate failed", "err", err)
		http.Error(w, "removing leave failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type serviceRequest struct {
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           string `json:"price"`
}

type serviceItem struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           string `json:"price"`
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.DurationMinutes <= 0 {
		http.Error(w, "name and a positive duration_minutes are required", http.StatusBadRequest)
		return
	}
	price := strings.TrimSpace(req.Price)
	if price == "" {
		price = "0"
	}

	id, err := h.repo.CreateService(r.Context(), model.Service{
		EstablishmentID: r.PathValue("id"),
		Name:            strings.TrimSpace(req.Name),
		DurationMins:    req.DurationMinutes,
		Price:           price,
		IsActive:        true,
	})
	if err != nil {
		h.logger.Error("service create failed", "err", err)
		http.Error(w, "saving service failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.repo.ListServices(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("service list failed", "err", err)
		http.Error(w, "loading services failed", http.StatusInternalServerError)
		return
	}
	items := make([]serviceItem, 0, len(services))
	for _, svc := range services {
		items = append(items, serviceItem{
			ID:              svc.ID,
			Name:            svc.Name,
			DurationMinutes: svc.DurationMins,
			Price:           svc.Price,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

type releasePolicyRequest struct {
	ReleaseInterval int  `json:"release_interval"`
	ReleaseDay      int  `json:"release_day"`
	IsActive        bool `json:"is_active"`
}

func (h *Handler) PutReleasePolicy(w http.ResponseWriter, r *http.Request) {
	var req releasePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.ReleaseInterval < 1 || req.ReleaseDay < 1 || req.ReleaseDay > 28 {
		http.Error(w, "release_interval must be >= 1 and release_day 1-28", http.StatusBadRequest)
		return
	}
	err := h.repo.UpsertReleasePolicy(r.Context(), model.ReleasePolicy{
		EstablishmentID: r.PathValue("id"),
		ReleaseInterval: req.ReleaseInterval,
		ReleaseDay:      req.ReleaseDay,
		IsActive:        req.IsActive,
	})
	if err != nil {
		h.logger.Error("release policy upsert failed", "err", err)
		http.Error(w, "saving release policy failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type planRequest struct {
	Name                   string `json:"name"`
	MaxMonthlyAppointments *int   `json:"max_monthly_appointments"`
}

func (h *Handler) PutPlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.MaxMonthlyAppointments != nil && *req.MaxMonthlyAppointments < 0 {
		http.Error(w, "max_monthly_appointments must not be negative", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "free"
	}
	err := h.repo.UpsertPlan(r.Context(), r.PathValue("id"), model.Plan{
		Name:                   name,
		MaxMonthlyAppointments: req.MaxMonthlyAppointments,
	})
	if err != nil {
		h.logger.Error("plan upsert failed", "err", err)
		http.Error(w, "saving plan failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeDayHours(w http.ResponseWriter, r *http.Request) ([]model.DayHours, bool) {
	var items []dayHoursItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return nil, false
	}
	days := make([]model.DayHours, 0, len(items))
	for _, item := range items {
		if item.Weekday < 0 || item.Weekday > 6 {
			http.Error(w, "weekday must be 0-6", http.StatusBadRequest)
			return nil, false
		}
		if item.Open && (item.StartMinute < 0 || item.EndMinute > 24*60 || item.StartMinute >= item.EndMinute) {
			http.Error(w, "open days need 0 <= start_minute < end_minute <= 1440", http.StatusBadRequest)
			return nil, false
		}
		days = append(days, model.DayHours{
			Weekday:     time.Weekday(item.Weekday),
			Open:        item.Open,
			StartMinute: item.StartMinute,
			EndMinute:   item.EndMinute,
		})
	}
	return days, true
}

func dayHoursItems(days []model.DayHours) []dayHoursItem {
	items := make([]dayHoursItem, 0, len(days))
	for _, d := range days {
		items = append(items, dayHoursItem{
			Weekday:     int(d.Weekday),
			Open:        d.Open,
			StartMinute: d.StartMinute,
			EndMinute:   d.EndMinute,
		})
	}
	return items
}
