package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/blueharbor/divebook/internal/config"
	"github.com/blueharbor/divebook/internal/domain"
	"github.com/blueharbor/divebook/internal/repository"
)

type CouponService struct {
	db      *pgxpool.Pool
	queries *repository.Queries
	now     func() time.Time
}

func NewCouponService(db *pgxpool.Pool, queries *repository.Queries) *CouponService {
	return &CouponService{db: db, queries: queries, now: time.Now}
}

type CouponInput struct {
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
}

func (in *CouponInput) validate() error {
	switch in.DiscountType {
	case domain.DiscountPercentage, domain.DiscountFixed:
	default:
		return &domain.ValidationError{Field: "discount_type", Reason: "must be percentage or fixed"}
	}
	if !in.DiscountValue.IsPositive() {
		return &domain.ValidationError{Field: "discount_value", Reason: "must be positive"}
	}
	if in.DiscountType == domain.DiscountPercentage && in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return &domain.ValidationError{Field: "discount_value", Reason: "percentage cannot exceed 100"}
	}
	switch in.Scope {
	case domain.ScopeGlobal:
	case domain.ScopeStore:
		if in.StoreID == nil {
			return &domain.ValidationError{Field: "store_id", Reason: "required for store scope"}
		}
	case domain.ScopeSchedule:
		if in.ScheduleID == nil {
			return &domain.ValidationError{Field: "schedule_id", Reason: "required for schedule scope"}
		}
	default:
		return &domain.ValidationError{Field: "scope", Reason: "must be global, store or schedule"}
	}
	if in.UsesPerUser < 1 {
		return &domain.ValidationError{Field: "uses_per_user", Reason: "must be at least 1"}
	}
	if in.MaxUses != nil && *in.MaxUses < 1 {
		return &domain.ValidationError{Field: "max_uses", Reason: "must be at least 1 when set"}
	}
	return nil
}

func (s *CouponService) Create(ctx context.Context, admin *domain.User, in CouponInput) (*domain.Coupon, error) {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if in.Code == "" {
		return nil, &domain.ValidationError{Field: "code", Reason: "required"}
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.insert(ctx, admin.ID, in)
}

func (s *CouponService) insert(ctx context.Context, createdBy int64, in CouponInput) (*domain.Coupon, error) {
	coupon, err := s.queries.CreateCoupon(ctx, repository.CreateCouponParams{
		Code:          in.Code,
		Description:   in.Description,
		DiscountType:  in.DiscountType,
		DiscountValue: in.DiscountValue,
		MinPrice:      in.MinPrice,
		MaxDiscount:   in.MaxDiscount,
		Scope:         in.Scope,
		StoreID:       in.StoreID,
		ScheduleID:    in.ScheduleID,
		MaxUses:       in.MaxUses,
		UsesPerUser:   in.UsesPerUser,
		ValidUntil:    in.ValidUntil,
		CreatedBy:     createdBy,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrCouponCodeTaken
		}
		return nil, fmt.Errorf("create coupon: %w", err)
	}
	return coupon, nil
}

// Generate creates count coupons with random codes sharing one rule set.
func (s *CouponService) Generate(ctx context.Context, admin *domain.User, prefix string, count int, in CouponInput) ([]string, error) {
	if count < 1 || count > 100 {
		return nil, &domain.ValidationError{Field: "count", Reason: "must be between 1 and 100"}
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	prefix = strings.ToUpper(strings.TrimSpace(prefix))

	codes := make([]string, 0, count)
	for i := 0; i < count; i++ {
		suffix, err := randomCode(config.GeneratedCodeLen)
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		in.Code = prefix + suffix
		if _, err := s.insert(ctx, admin.ID, in); err != nil {
			if errors.Is(err, domain.ErrCouponCodeTaken) {
				i-- // collision, roll another code
				continue
			}
			return nil, err
		}
		codes = append(codes, in.Code)
	}
	return codes, nil
}

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomCode(n int) (string, error) {
	code := make([]byte, n)
	for i := range code {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[idx.Int64()]
	}
	return string(code), nil
}

func (s *CouponService) List(ctx context.Context) ([]*domain.Coupon, error) {
	return s.queries.ListCoupons(ctx)
}

func (s *CouponService) Get(ctx context.Context, id int64) (*domain.Coupon, []*domain.CouponRedemption, error) {
	coupon, err := s.queries.GetCoupon(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	redemptions, err := s.queries.ListRedemptionsByCoupon(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list redemptions: %w", err)
	}
	return coupon, redemptions, nil
}

type UpdateCouponInput struct {
	Description   string
	DiscountValue decimal.Decimal
	MinPrice      *decimal.Decimal
	MaxDiscount   *decimal.Decimal
	MaxUses       *int
	UsesPerUser   int
	ValidUntil    *time.Time
	IsActive      bool
}

func (s *CouponService) Update(ctx context.Context, id int64, in UpdateCouponInput) (*domain.Coupon, error) {
	if !in.DiscountValue.IsPositive() {
		return nil, &domain.ValidationError{Field: "discount_value", Reason: "must be positive"}
	}
	if in.UsesPerUser < 1 {
		return nil, &domain.ValidationError{Field: "uses_per_user", Reason: "must be at least 1"}
	}
	return s.queries.UpdateCoupon(ctx, repository.UpdateCouponParams{
		ID:            id,
		Description:   in.Description,
		DiscountValue: in.DiscountValue,
		MinPrice:      in.MinPrice,
		MaxDiscount:   in.MaxDiscount,
		MaxUses:       in.MaxUses,
		UsesPerUser:   in.UsesPerUser,
		ValidUntil:    in.ValidUntil,
		IsActive:      in.IsActive,
	})
}

func (s *CouponService) Deactivate(ctx context.Context, id int64) error {
	return s.queries.DeactivateCoupon(ctx, id)
}

type CouponCheck struct {
	Coupon          *domain.Coupon
	OriginalPrice   decimal.Decimal
	DiscountApplied decimal.Decimal
	FinalPrice      decimal.Decimal
}

// CheckForBooking is a read-only dry run of the coupon engine: it reports
// whether the code would apply to the candidate booking and what the
// discount would be. No usage is consumed.
func (s *CouponService) CheckForBooking(ctx context.Context, user *domain.User, code string, scheduleID int64, slots int) (*CouponCheck, error) {
	if slots < 1 {
		return nil, &domain.ValidationError{Field: "slots", Reason: "must be at least 1"}
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, &domain.ValidationError{Field: "coupon_code", Reason: "required"}
	}

	coupon, err := s.queries.GetCouponByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	schedule, err := s.queries.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	userUses, err := s.queries.CountUserRedemptions(ctx, coupon.ID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("count redemptions: %w", err)
	}

	originalPrice := schedule.Price.Mul(decimal.NewFromInt(int64(slots))).Round(2)
	if couponErr := coupon.ValidateFor(schedule, originalPrice, userUses, s.now()); couponErr != nil {
		return nil, couponErr
	}

	discount := coupon.ComputeDiscount(originalPrice)
	return &CouponCheck{
		Coupon:          coupon,
		OriginalPrice:   originalPrice,
		DiscountApplied: discount,
		FinalPrice:      originalPrice.Sub(discount).Round(2),
	}, nil
}
