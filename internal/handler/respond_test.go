package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueharbor/divebook/internal/domain"
	"github.com/blueharbor/divebook/internal/token"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"capacity", &domain.CapacityError{Reason: "fully booked"}, http.StatusBadRequest},
		{"coupon", &domain.CouponError{Reason: "not applicable"}, http.StatusBadRequest},
		{"validation", &domain.ValidationError{Field: "slots", Reason: "must be at least 1"}, http.StatusBadRequest},
		{"already cancelled", domain.ErrAlreadyCancelled, http.StatusBadRequest},
		{"schedule not found", domain.ErrScheduleNotFound, http.StatusNotFound},
		{"booking not found", domain.ErrBookingNotFound, http.StatusNotFound},
		{"coupon not found", domain.ErrCouponNotFound, http.StatusNotFound},
		{"duplicate booking", domain.ErrDuplicateBooking, http.StatusConflict},
		{"email taken", domain.ErrEmailTaken, http.StatusConflict},
		{"coupon code taken", domain.ErrCouponCodeTaken, http.StatusConflict},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"invalid login", domain.ErrInvalidLogin, http.StatusUnauthorized},
		{"invalid token", token.ErrInvalidToken, http.StatusUnauthorized},
		{"transient", domain.ErrTransient, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)
			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestWriteErrorCapacityIncludesAvailableSlots(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &domain.CapacityError{Reason: "only 2 slot(s) left", AvailableSlots: 2})

	var body struct {
		Error          string `json:"error"`
		AvailableSlots int    `json:"available_slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "only 2 slot(s) left", body.Error)
	assert.Equal(t, 2, body.AvailableSlots)
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("pq: connection reset"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["error"])
}

func TestWriteErrorWrappedErrors(t *testing.T) {
	// Services wrap repository failures; mapping must see through the wrap.
	rec := httptest.NewRecorder()
	writeError(rec, errors.Join(errors.New("commit"), domain.ErrTransient))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
