package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/blueharbor/divebook/internal/middleware"
	"github.com/blueharbor/divebook/internal/service"
)

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) ListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.storeService.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]storeJSON, 0, len(stores))
	for _, s := range stores {
		out = append(out, toStoreJSON(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": len(out), "stores": out})
}

func (h *Handler) GetStore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store id"})
		return
	}

	store, schedules, err := h.storeService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	out := toStoreJSON(store)
	out.Schedules = make([]scheduleJSON, 0, len(schedules))
	for _, s := range schedules {
		out.Schedules = append(out.Schedules, toScheduleJSON(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"store": out})
}

type createStoreRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	ContactNumber string `json:"contact_number"`
	Address       string `json:"address"`
}

func (h *Handler) CreateStore(w http.ResponseWriter, r *http.Request) {
	var req createStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	store, err := h.storeService.Create(r.Context(), middleware.GetUser(r.Context()), service.CreateStoreInput{
		Name:          req.Name,
		Description:   req.Description,
		ContactNumber: req.ContactNumber,
		Address:       req.Address,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"store": toStoreJSON(store)})
}

type createScheduleRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Date        string  `json:"date"` // YYYY-MM-DD
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Price       float64 `json:"price"`
	MaxSlots    int     `json:"max_slots"`
}

func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	storeID, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store id"})
		return
	}

	var req createScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var date time.Time
	if req.Date != "" {
		var err error
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date; use YYYY-MM-DD"})
			return
		}
	}

	schedule, err := h.storeService.CreateSchedule(r.Context(), middleware.GetUser(r.Context()), storeID, service.CreateScheduleInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Price:       decimal.NewFromFloat(req.Price),
		MaxSlots:    req.MaxSlots,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"schedule": toScheduleJSON(schedule)})
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid schedule id"})
		return
	}

	schedule, err := h.storeService.GetSchedule(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedule": toScheduleJSON(schedule)})
}
