package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/blueharbor/divebook/internal/domain"
)

const couponColumns = `id, code, description, discount_type, discount_value, min_price, max_discount,
	scope, store_id, schedule_id, max_uses, uses_per_user, total_used,
	valid_from, valid_until, created_by, is_active, created_at`

func scanCoupon(row pgx.Row) (*domain.Coupon, error) {
	c := &domain.Coupon{}
	err := row.Scan(&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.DiscountValue, &c.MinPrice, &c.MaxDiscount,
		&c.Scope, &c.StoreID, &c.ScheduleID, &c.MaxUses, &c.UsesPerUser, &c.TotalUsed,
		&c.ValidFrom, &c.ValidUntil, &c.CreatedBy, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

type CreateCouponParams struct {
	Code          string
	Description   string
	DiscountType  domain.DiscountType
	DiscountValue decimal.Decimal
	MinPrice      *decimal.Decimal
	MaxDiscount   *decimal.Decimal
	Scope         domain.CouponScope
	StoreID       *int64
	ScheduleID    *int64
	MaxUses       *int
	UsesPerUser   int
	ValidUntil    *time.Time
	CreatedBy     int64
}

func (q *Queries) CreateCoupon(ctx context.Context, arg CreateCouponParams) (*domain.Coupon, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO coupons (code, description, discount_type, discount_value, min_price, max_discount,
		                     scope, store_id, schedule_id, max_uses, uses_per_user, valid_until, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+couponColumns,
		arg.Code, arg.Description, arg.DiscountType, arg.DiscountValue, arg.MinPrice, arg.MaxDiscount,
		arg.Scope, arg.StoreID, arg.ScheduleID, arg.MaxUses, arg.UsesPerUser, arg.ValidUntil, arg.CreatedBy,
	)
	return scanCoupon(row)
}

func (q *Queries) GetCoupon(ctx context.Context, id int64) (*domain.Coupon, error) {
	row := q.db.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id)
	c, err := scanCoupon(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCouponNotFound
	}
	return c, err
}

func (q *Queries) GetCouponByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	row := q.db.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = $1`, code)
	c, err := scanCoupon(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCouponNotFound
	}
	return c, err
}

// GetCouponByCodeForUpdate locks the coupon row so that the usage-count
// check and the total_used increment form one serializable unit.
func (q *Queries) GetCouponByCodeForUpdate(ctx context.Context, code string) (*domain.Coupon, error) {
	row := q.db.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = $1 FOR UPDATE`, code)
	c, err := scanCoupon(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCouponNotFound
	}
	return c, err
}

func (q *Queries) ListCoupons(ctx context.Context) ([]*domain.Coupon, error) {
	rows, err := q.db.Query(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []*domain.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

type UpdateCouponParams struct {
	ID            int64
	Description   string
	DiscountValue decimal.Decimal
	MinPrice      *decimal.Decimal
	MaxDiscount   *decimal.Decimal
	MaxUses       *int
	UsesPerUser   int
	ValidUntil    *time.Time
	IsActive      bool
}

func (q *Queries) UpdateCoupon(ctx context.Context, arg UpdateCouponParams) (*domain.Coupon, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE coupons
		SET description = $2, discount_value = $3, min_price = $4, max_discount = $5,
		    max_uses = $6, uses_per_user = $7, valid_until = $8, is_active = $9
		WHERE id = $1
		RETURNING `+couponColumns,
		arg.ID, arg.Description, arg.DiscountValue, arg.MinPrice, arg.MaxDiscount,
		arg.MaxUses, arg.UsesPerUser, arg.ValidUntil, arg.IsActive,
	)
	c, err := scanCoupon(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCouponNotFound
	}
	return c, err
}

func (q *Queries) DeactivateCoupon(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `UPDATE coupons SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCouponNotFound
	}
	return nil
}

func (q *Queries) IncrementCouponUsage(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, `UPDATE coupons SET total_used = total_used + 1 WHERE id = $1`, id)
	return err
}

func (q *Queries) CountUserRedemptions(ctx context.Context, couponID, userID int64) (int, error) {
	var count int
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM coupon_redemptions
		WHERE coupon_id = $1 AND user_id = $2`, couponID, userID).Scan(&count)
	return count, err
}

type CreateRedemptionParams struct {
	CouponID        int64
	UserID          int64
	BookingID       int64
	OriginalPrice   decimal.Decimal
	DiscountApplied decimal.Decimal
	FinalPrice      decimal.Decimal
}

func (q *Queries) CreateRedemption(ctx context.Context, arg CreateRedemptionParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO coupon_redemptions (coupon_id, user_id, booking_id, original_price, discount_applied, final_price)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		arg.CouponID, arg.UserID, arg.BookingID, arg.OriginalPrice, arg.DiscountApplied, arg.FinalPrice,
	)
	return err
}

func (q *Queries) ListRedemptionsByCoupon(ctx context.Context, couponID int64) ([]*domain.CouponRedemption, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, coupon_id, user_id, booking_id, original_price, discount_applied, final_price, redeemed_at
		FROM coupon_redemptions
		WHERE coupon_id = $1
		ORDER BY redeemed_at DESC`, couponID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var redemptions []*domain.CouponRedemption
	for rows.Next() {
		r := &domain.CouponRedemption{}
		if err := rows.Scan(&r.ID, &r.CouponID, &r.UserID, &r.BookingID,
			&r.OriginalPrice, &r.DiscountApplied, &r.FinalPrice, &r.RedeemedAt); err != nil {
			return nil, err
		}
		redemptions = append(redemptions, r)
	}
	return redemptions, rows.Err()
}
