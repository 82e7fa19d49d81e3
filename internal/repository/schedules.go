package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/blueharbor/divebook/internal/domain"
)

const scheduleColumns = `s.id, s.store_id, st.name, s.title, s.description, s.date, s.start_time, s.end_time,
	s.price, s.max_slots, s.booked_slots, s.is_active, s.is_cancelled, s.created_at`

func scanSchedule(row pgx.Row) (*domain.Schedule, error) {
	s := &domain.Schedule{}
	err := row.Scan(&s.ID, &s.StoreID, &s.StoreName, &s.Title, &s.Description, &s.Date, &s.StartTime, &s.EndTime,
		&s.Price, &s.MaxSlots, &s.BookedSlots, &s.IsActive, &s.IsCancelled, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

type CreateScheduleParams struct {
	StoreID     int64
	Title       string
	Description string
	Date        time.Time
	StartTime   string
	EndTime     string
	Price       decimal.Decimal
	MaxSlots    int
}

func (q *Queries) CreateSchedule(ctx context.Context, arg CreateScheduleParams) (*domain.Schedule, error) {
	row := q.db.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO schedules (store_id, title, description, date, start_time, end_time, price, max_slots)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING *
		)
		SELECT `+scheduleColumns+`
		FROM inserted s
		JOIN stores st ON st.id = s.store_id`,
		arg.StoreID, arg.Title, arg.Description, arg.Date, arg.StartTime, arg.EndTime, arg.Price, arg.MaxSlots,
	)
	return scanSchedule(row)
}

func (q *Queries) GetSchedule(ctx context.Context, id int64) (*domain.Schedule, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules s
		JOIN stores st ON st.id = s.store_id
		WHERE s.id = $1`, id)
	s, err := scanSchedule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrScheduleNotFound
	}
	return s, err
}

// GetScheduleForUpdate locks the schedule row for the duration of the
// enclosing transaction. Capacity checks and the booked_slots mutation must
// both happen under this lock.
func (q *Queries) GetScheduleForUpdate(ctx context.Context, id int64) (*domain.Schedule, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules s
		JOIN stores st ON st.id = s.store_id
		WHERE s.id = $1
		FOR UPDATE OF s`, id)
	s, err := scanSchedule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrScheduleNotFound
	}
	return s, err
}

func (q *Queries) UpdateScheduleBookedSlots(ctx context.Context, id int64, bookedSlots int) error {
	_, err := q.db.Exec(ctx, `UPDATE schedules SET booked_slots = $2 WHERE id = $1`, id, bookedSlots)
	return err
}

func (q *Queries) ListSchedulesByStore(ctx context.Context, storeID int64) ([]*domain.Schedule, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules s
		JOIN stores st ON st.id = s.store_id
		WHERE s.store_id = $1 AND s.is_active
		ORDER BY s.date, s.start_time`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*domain.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}
