package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking links a user to a schedule. Immutable after creation except for
// the one-way Active -> Cancelled flip.
type Booking struct {
	ID              int64
	UserID          int64
	ScheduleID      int64
	Slots           int
	Notes           string
	OriginalPrice   decimal.Decimal
	DiscountApplied decimal.Decimal
	FinalPrice      decimal.Decimal
	IsCancelled     bool
	CreatedAt       time.Time

	// Denormalized for responses.
	BookedBy string
	Email    string
	Schedule *Schedule
}
