package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/blueharbor/divebook/internal/domain"
	"github.com/blueharbor/divebook/internal/token"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError maps domain failures to HTTP responses. Every business-rule
// violation has a stable status; only unknown errors become 500s.
func writeError(w http.ResponseWriter, err error) {
	var (
		capErr    *domain.CapacityError
		couponErr *domain.CouponError
		valErr    *domain.ValidationError
	)

	switch {
	case errors.As(err, &capErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":           capErr.Reason,
			"available_slots": capErr.AvailableSlots,
		})
	case errors.As(err, &couponErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": couponErr.Reason})
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": valErr.Error()})
	case errors.Is(err, domain.ErrScheduleNotFound),
		errors.Is(err, domain.ErrBookingNotFound),
		errors.Is(err, domain.ErrCouponNotFound),
		errors.Is(err, domain.ErrStoreNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrDuplicateBooking),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrCouponCodeTaken):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadyCancelled):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidLogin), errors.Is(err, token.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrTransient):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
