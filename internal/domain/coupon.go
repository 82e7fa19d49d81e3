package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type CouponScope string

const (
	ScopeGlobal   CouponScope = "global"
	ScopeStore    CouponScope = "store"
	ScopeSchedule CouponScope = "schedule"
)

// Coupon is a discount code. TotalUsed is mutated only inside a booking
// transaction that redeems the coupon.
type Coupon struct {
	ID            int64
	Code          string // canonical uppercase
	Description   string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	MinPrice      *decimal.Decimal
	MaxDiscount   *decimal.Decimal // cap, percentage only
	Scope         CouponScope
	StoreID       *int64
	ScheduleID    *int64
	MaxUses       *int // nil = unlimited
	UsesPerUser   int
	TotalUsed     int
	ValidFrom     time.Time
	ValidUntil    *time.Time
	CreatedBy     int64
	IsActive      bool
	CreatedAt     time.Time
}

func (c *Coupon) IsExpired(now time.Time) bool {
	return c.ValidUntil != nil && now.After(*c.ValidUntil)
}

func (c *Coupon) IsExhausted() bool {
	return c.MaxUses != nil && c.TotalUsed >= *c.MaxUses
}

func (c *Coupon) IsValid(now time.Time) bool {
	return c.IsActive && !c.IsExpired(now) && !c.IsExhausted()
}

// ValidateFor checks the coupon against a candidate booking. First failure
// wins; each failure carries a distinct reason. userRedemptions is the
// requesting user's prior redemption count for this coupon.
func (c *Coupon) ValidateFor(schedule *Schedule, originalPrice decimal.Decimal, userRedemptions int, now time.Time) *CouponError {
	if !c.IsValid(now) {
		return &CouponError{Reason: "this coupon is invalid, expired, or exhausted"}
	}
	if c.Scope == ScopeStore && (c.StoreID == nil || schedule.StoreID != *c.StoreID) {
		return &CouponError{Reason: "this coupon is only valid for a specific store"}
	}
	if c.Scope == ScopeSchedule && (c.ScheduleID == nil || schedule.ID != *c.ScheduleID) {
		return &CouponError{Reason: "this coupon is only valid for a specific schedule"}
	}
	if c.MinPrice != nil && originalPrice.LessThan(*c.MinPrice) {
		return &CouponError{Reason: fmt.Sprintf("minimum booking of %s required", c.MinPrice.StringFixed(2))}
	}
	if userRedemptions >= c.UsesPerUser {
		return &CouponError{Reason: "you have already used this coupon the maximum number of times"}
	}
	return nil
}

// ComputeDiscount returns the discount for a price. The result never
// exceeds the price, so the final price can never go negative.
func (c *Coupon) ComputeDiscount(price decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		discount = price.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
		if c.MaxDiscount != nil && discount.GreaterThan(*c.MaxDiscount) {
			discount = *c.MaxDiscount
		}
	default: // fixed
		discount = c.DiscountValue
	}
	if discount.GreaterThan(price) {
		discount = price
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount.Round(2)
}

// CouponRedemption is the immutable audit record of one successful use.
type CouponRedemption struct {
	ID              int64
	CouponID        int64
	UserID          int64
	BookingID       int64
	OriginalPrice   decimal.Decimal
	DiscountApplied decimal.Decimal
	FinalPrice      decimal.Decimal
	RedeemedAt      time.Time
}
