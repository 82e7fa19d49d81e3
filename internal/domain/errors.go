package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrInvalidLogin     = errors.New("invalid email or password")
	ErrStoreNotFound    = errors.New("store not found")
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrCouponNotFound   = errors.New("coupon not found")
	ErrCouponCodeTaken  = errors.New("coupon code already exists")
	ErrDuplicateBooking = errors.New("active booking already exists for this schedule")
	ErrForbidden        = errors.New("access denied")
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
	ErrTransient        = errors.New("transient database conflict, retry")
)

// CapacityError is returned when a schedule cannot accept a reservation.
// AvailableSlots is echoed back so clients can adjust and retry.
type CapacityError struct {
	Reason         string
	AvailableSlots int
}

func (e *CapacityError) Error() string {
	return e.Reason
}

// CouponError is a coupon rejection with a distinct human-readable reason.
type CouponError struct {
	Reason string
}

func (e *CouponError) Error() string {
	return e.Reason
}

// ValidationError reports malformed request input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
