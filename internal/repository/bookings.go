package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/blueharbor/divebook/internal/domain"
)

const bookingColumns = `b.id, b.user_id, b.schedule_id, b.slots, b.notes,
	b.original_price, b.discount_applied, b.final_price, b.is_cancelled, b.created_at,
	u.first_name || ' ' || u.last_name, u.email`

const bookingJoin = `
	FROM bookings b
	JOIN users u ON u.id = b.user_id
	JOIN schedules s ON s.id = b.schedule_id
	JOIN stores st ON st.id = s.store_id`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	b := &domain.Booking{Schedule: &domain.Schedule{}}
	s := b.Schedule
	err := row.Scan(
		&b.ID, &b.UserID, &b.ScheduleID, &b.Slots, &b.Notes,
		&b.OriginalPrice, &b.DiscountApplied, &b.FinalPrice, &b.IsCancelled, &b.CreatedAt,
		&b.BookedBy, &b.Email,
		&s.ID, &s.StoreID, &s.StoreName, &s.Title, &s.Description, &s.Date, &s.StartTime, &s.EndTime,
		&s.Price, &s.MaxSlots, &s.BookedSlots, &s.IsActive, &s.IsCancelled, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

type CreateBookingParams struct {
	UserID          int64
	ScheduleID      int64
	Slots           int
	Notes           string
	OriginalPrice   decimal.Decimal
	DiscountApplied decimal.Decimal
	FinalPrice      decimal.Decimal
}

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO bookings (user_id, schedule_id, slots, notes, original_price, discount_applied, final_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		arg.UserID, arg.ScheduleID, arg.Slots, arg.Notes, arg.OriginalPrice, arg.DiscountApplied, arg.FinalPrice,
	).Scan(&id)
	return id, err
}

func (q *Queries) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+bookingColumns+`, `+scheduleColumns+bookingJoin+`
		WHERE b.id = $1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

// GetBookingForUpdate locks the booking row so a concurrent cancel of the
// same booking serializes behind this transaction.
func (q *Queries) GetBookingForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+bookingColumns+`, `+scheduleColumns+bookingJoin+`
		WHERE b.id = $1
		FOR UPDATE OF b`, id)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

func (q *Queries) HasActiveBooking(ctx context.Context, userID, scheduleID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE user_id = $1 AND schedule_id = $2 AND NOT is_cancelled
		)`, userID, scheduleID).Scan(&exists)
	return exists, err
}

func (q *Queries) SetBookingCancelled(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, `UPDATE bookings SET is_cancelled = TRUE WHERE id = $1`, id)
	return err
}

type ListBookingsParams struct {
	UserID *int64 // nil = all users (admin)
	Status *domain.BookingStatus
}

// ListBookings returns bookings newest first, optionally filtered to one
// user and/or one status.
func (q *Queries) ListBookings(ctx context.Context, arg ListBookingsParams) ([]*domain.Booking, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+bookingColumns+`, `+scheduleColumns+bookingJoin+`
		WHERE ($1::bigint IS NULL OR b.user_id = $1)
		  AND ($2::text IS NULL
		       OR ($2 = 'active' AND NOT b.is_cancelled)
		       OR ($2 = 'cancelled' AND b.is_cancelled))
		ORDER BY b.created_at DESC`,
		arg.UserID, arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
