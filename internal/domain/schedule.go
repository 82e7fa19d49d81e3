package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ScheduleStatus string

const (
	ScheduleCancelled   ScheduleStatus = "cancelled"
	ScheduleFullyBooked ScheduleStatus = "fully_booked"
	ScheduleInactive    ScheduleStatus = "inactive"
	ScheduleAvailable   ScheduleStatus = "available"
)

// Schedule is one bookable diving trip. BookedSlots is mutated only by the
// booking service inside its transaction; everything else here is derived.
type Schedule struct {
	ID          int64
	StoreID     int64
	StoreName   string
	Title       string
	Description string
	Date        time.Time // date only, midnight UTC
	StartTime   string    // "HH:MM"
	EndTime     string    // "HH:MM"
	Price       decimal.Decimal
	MaxSlots    int
	BookedSlots int
	IsActive    bool
	IsCancelled bool
	CreatedAt   time.Time
}

func (s *Schedule) AvailableSlots() int {
	return s.MaxSlots - s.BookedSlots
}

func (s *Schedule) IsFullyBooked() bool {
	return s.AvailableSlots() == 0
}

// Status precedence: cancelled > fully_booked > inactive > available.
func (s *Schedule) Status() ScheduleStatus {
	switch {
	case s.IsCancelled:
		return ScheduleCancelled
	case s.IsFullyBooked():
		return ScheduleFullyBooked
	case !s.IsActive:
		return ScheduleInactive
	default:
		return ScheduleAvailable
	}
}

// CanReserve checks every reservation precondition against the current
// counters and clock. It does not mutate anything.
func (s *Schedule) CanReserve(slots int, now time.Time) *CapacityError {
	if s.IsCancelled {
		return &CapacityError{Reason: "this schedule has been cancelled", AvailableSlots: 0}
	}
	if !s.IsActive {
		return &CapacityError{Reason: "this schedule is no longer available", AvailableSlots: 0}
	}
	if s.Date.Before(dateOf(now)) {
		return &CapacityError{Reason: "cannot book a past schedule", AvailableSlots: 0}
	}
	if s.IsFullyBooked() {
		return &CapacityError{Reason: "this schedule is fully booked", AvailableSlots: 0}
	}
	if slots > s.AvailableSlots() {
		return &CapacityError{
			Reason:         fmt.Sprintf("only %d slot(s) left", s.AvailableSlots()),
			AvailableSlots: s.AvailableSlots(),
		}
	}
	return nil
}

// ReleaseSlots returns the booked counter after giving slots back,
// floored at zero so a stray double-release can never drive it negative.
func (s *Schedule) ReleaseSlots(slots int) int {
	released := s.BookedSlots - slots
	if released < 0 {
		released = 0
	}
	return released
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
