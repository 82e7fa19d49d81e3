package handler

import (
	"encoding/json"
	"net/http"

	"github.com/blueharbor/divebook/internal/middleware"
	"github.com/blueharbor/divebook/internal/service"
)

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	bookings, err := h.bookingService.List(r.Context(), user, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":    len(bookings),
		"bookings": toBookingListJSON(bookings),
	})
}

func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	bookings, err := h.bookingService.ListOwn(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":    len(bookings),
		"bookings": toBookingListJSON(bookings),
	})
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid booking id"})
		return
	}

	booking, err := h.bookingService.Get(r.Context(), middleware.GetUser(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": toBookingJSON(booking)})
}

type createBookingRequest struct {
	ScheduleID int64  `json:"schedule_id"`
	Slots      int    `json:"slots"`
	Notes      string `json:"notes"`
	CouponCode string `json:"coupon_code"`
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	req := createBookingRequest{Slots: 1}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user := middleware.GetUser(r.Context())
	booking, err := h.bookingService.Create(r.Context(), user, service.CreateBookingInput{
		ScheduleID: req.ScheduleID,
		Slots:      req.Slots,
		Notes:      req.Notes,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]any{
		"message": "booking confirmed",
		"booking": toBookingJSON(booking),
	}
	if booking.DiscountApplied.IsPositive() {
		resp["coupon_applied"] = map[string]any{
			"original_price":   booking.OriginalPrice.InexactFloat64(),
			"discount_applied": booking.DiscountApplied.InexactFloat64(),
			"final_price":      booking.FinalPrice.InexactFloat64(),
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid booking id"})
		return
	}

	booking, err := h.bookingService.Cancel(r.Context(), middleware.GetUser(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "booking cancelled successfully",
		"booking": toBookingJSON(booking),
	})
}
