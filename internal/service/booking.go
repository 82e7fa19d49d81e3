package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/blueharbor/divebook/internal/config"
	"github.com/blueharbor/divebook/internal/domain"
	"github.com/blueharbor/divebook/internal/repository"
)

type BookingService struct {
	db      *pgxpool.Pool
	queries *repository.Queries
	now     func() time.Time
}

func NewBookingService(db *pgxpool.Pool, queries *repository.Queries) *BookingService {
	return &BookingService{db: db, queries: queries, now: time.Now}
}

type CreateBookingInput struct {
	ScheduleID int64
	Slots      int
	Notes      string
	CouponCode string // optional
}

// Create reserves slots on a schedule and optionally redeems a coupon.
// Everything from the capacity check to the redemption record runs in one
// transaction holding row locks on the schedule and (if used) the coupon,
// so concurrent requests cannot both consume the last slot or the last
// coupon use.
func (s *BookingService) Create(ctx context.Context, user *domain.User, in CreateBookingInput) (*domain.Booking, error) {
	if in.ScheduleID == 0 {
		return nil, &domain.ValidationError{Field: "schedule_id", Reason: "required"}
	}
	if in.Slots < 1 {
		return nil, &domain.ValidationError{Field: "slots", Reason: "must be at least 1"}
	}
	if len(in.Notes) > config.MaxNotesLen {
		return nil, &domain.ValidationError{Field: "notes", Reason: "at most 500 characters"}
	}
	couponCode := strings.ToUpper(strings.TrimSpace(in.CouponCode))

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", repository.MapError(err))
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	// Lock the schedule row; the capacity check and the slot increment must
	// see the same counters.
	schedule, err := qtx.GetScheduleForUpdate(ctx, in.ScheduleID)
	if err != nil {
		if errors.Is(err, domain.ErrScheduleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("lock schedule: %w", repository.MapError(err))
	}

	if capErr := schedule.CanReserve(in.Slots, s.now()); capErr != nil {
		return nil, capErr
	}

	exists, err := qtx.HasActiveBooking(ctx, user.ID, schedule.ID)
	if err != nil {
		return nil, fmt.Errorf("check duplicate booking: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateBooking
	}

	originalPrice := schedule.Price.Mul(decimal.NewFromInt(int64(in.Slots))).Round(2)
	discountApplied := decimal.Zero
	finalPrice := originalPrice

	var coupon *domain.Coupon
	if couponCode != "" {
		coupon, err = qtx.GetCouponByCodeForUpdate(ctx, couponCode)
		if err != nil {
			if errors.Is(err, domain.ErrCouponNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("lock coupon: %w", repository.MapError(err))
		}

		userUses, err := qtx.CountUserRedemptions(ctx, coupon.ID, user.ID)
		if err != nil {
			return nil, fmt.Errorf("count redemptions: %w", err)
		}
		if couponErr := coupon.ValidateFor(schedule, originalPrice, userUses, s.now()); couponErr != nil {
			return nil, couponErr
		}

		discountApplied = coupon.ComputeDiscount(originalPrice)
		finalPrice = originalPrice.Sub(discountApplied).Round(2)
	}

	if err := qtx.UpdateScheduleBookedSlots(ctx, schedule.ID, schedule.BookedSlots+in.Slots); err != nil {
		return nil, fmt.Errorf("reserve slots: %w", repository.MapError(err))
	}

	bookingID, err := qtx.CreateBooking(ctx, repository.CreateBookingParams{
		UserID:          user.ID,
		ScheduleID:      schedule.ID,
		Slots:           in.Slots,
		Notes:           strings.TrimSpace(in.Notes),
		OriginalPrice:   originalPrice,
		DiscountApplied: discountApplied,
		FinalPrice:      finalPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", repository.MapError(err))
	}

	if coupon != nil {
		if err := qtx.CreateRedemption(ctx, repository.CreateRedemptionParams{
			CouponID:        coupon.ID,
			UserID:          user.ID,
			BookingID:       bookingID,
			OriginalPrice:   originalPrice,
			DiscountApplied: discountApplied,
			FinalPrice:      finalPrice,
		}); err != nil {
			return nil, fmt.Errorf("insert redemption: %w", err)
		}
		if err := qtx.IncrementCouponUsage(ctx, coupon.ID); err != nil {
			return nil, fmt.Errorf("increment coupon usage: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", repository.MapError(err))
	}

	return s.queries.GetBooking(ctx, bookingID)
}

// Cancel flips a booking to cancelled and gives its slots back to the
// schedule. Coupon usage is deliberately not reversed, so a book-then-cancel
// cycle still counts against the coupon's limits.
func (s *BookingService) Cancel(ctx context.Context, caller *domain.User, bookingID int64) (*domain.Booking, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", repository.MapError(err))
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	booking, err := qtx.GetBookingForUpdate(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("lock booking: %w", repository.MapError(err))
	}

	if booking.UserID != caller.ID && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if booking.IsCancelled {
		return nil, domain.ErrAlreadyCancelled
	}

	schedule, err := qtx.GetScheduleForUpdate(ctx, booking.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("lock schedule: %w", repository.MapError(err))
	}

	if err := qtx.UpdateScheduleBookedSlots(ctx, schedule.ID, schedule.ReleaseSlots(booking.Slots)); err != nil {
		return nil, fmt.Errorf("release slots: %w", repository.MapError(err))
	}
	if err := qtx.SetBookingCancelled(ctx, booking.ID); err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", repository.MapError(err))
	}

	return s.queries.GetBooking(ctx, bookingID)
}

// List returns bookings newest first. Admins see every booking; everyone
// else sees only their own. statusFilter is "", "active" or "cancelled".
func (s *BookingService) List(ctx context.Context, caller *domain.User, statusFilter string) ([]*domain.Booking, error) {
	var arg repository.ListBookingsParams
	if !caller.IsAdmin() {
		arg.UserID = &caller.ID
	}
	switch statusFilter {
	case "":
	case string(domain.BookingActive), string(domain.BookingCancelled):
		status := domain.BookingStatus(statusFilter)
		arg.Status = &status
	default:
		return nil, &domain.ValidationError{Field: "status", Reason: "must be active or cancelled"}
	}
	return s.queries.ListBookings(ctx, arg)
}

// ListOwn returns the caller's bookings regardless of role.
func (s *BookingService) ListOwn(ctx context.Context, caller *domain.User) ([]*domain.Booking, error) {
	return s.queries.ListBookings(ctx, repository.ListBookingsParams{UserID: &caller.ID})
}

// Get returns one booking; only the owner or an admin may view it.
func (s *BookingService) Get(ctx context.Context, caller *domain.User, bookingID int64) (*domain.Booking, error) {
	booking, err := s.queries.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != caller.ID && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return booking, nil
}
