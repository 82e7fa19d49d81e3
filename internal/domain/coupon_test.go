package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func testSchedule() *Schedule {
	return &Schedule{
		ID:       1,
		StoreID:  10,
		Date:     time.Now().UTC().AddDate(0, 0, 7),
		Price:    dec("1000"),
		MaxSlots: 2,
		IsActive: true,
	}
}

func percentageCoupon() *Coupon {
	return &Coupon{
		ID:            1,
		Code:          "DIVE20",
		DiscountType:  DiscountPercentage,
		DiscountValue: dec("20"),
		MaxDiscount:   decPtr("150"),
		Scope:         ScopeGlobal,
		UsesPerUser:   1,
		IsActive:      true,
	}
}

func TestComputeDiscountPercentageCapped(t *testing.T) {
	c := percentageCoupon()

	// 20% of 2000 is 400, capped to 150.
	discount := c.ComputeDiscount(dec("2000"))
	assert.True(t, discount.Equal(dec("150")), "got %s", discount)

	// Without the cap the percentage applies in full.
	c.MaxDiscount = nil
	discount = c.ComputeDiscount(dec("2000"))
	assert.True(t, discount.Equal(dec("400")), "got %s", discount)
}

func TestComputeDiscountFixedClampedAtPrice(t *testing.T) {
	c := &Coupon{
		DiscountType:  DiscountFixed,
		DiscountValue: dec("500"),
	}

	discount := c.ComputeDiscount(dec("300"))
	assert.True(t, discount.Equal(dec("300")), "fixed discount must clamp at price, got %s", discount)

	discount = c.ComputeDiscount(dec("800"))
	assert.True(t, discount.Equal(dec("500")), "got %s", discount)
}

func TestComputeDiscountRounding(t *testing.T) {
	c := &Coupon{
		DiscountType:  DiscountPercentage,
		DiscountValue: dec("33.33"),
	}
	discount := c.ComputeDiscount(dec("99.99"))
	assert.Equal(t, int32(-2), discount.Exponent(), "discount must be rounded to 2 decimals")
}

func TestComputeDiscountNeverExceedsPrice(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := &Coupon{
			DiscountType:  DiscountPercentage,
			DiscountValue: decimal.NewFromFloat(rapid.Float64Range(0, 100).Draw(t, "value")),
		}
		if rapid.Bool().Draw(t, "fixed") {
			c.DiscountType = DiscountFixed
			c.DiscountValue = decimal.NewFromFloat(rapid.Float64Range(0, 10000).Draw(t, "fixed_value"))
		}
		if rapid.Bool().Draw(t, "has_cap") {
			capValue := decimal.NewFromFloat(rapid.Float64Range(0, 5000).Draw(t, "cap"))
			c.MaxDiscount = &capValue
		}

		price := decimal.NewFromFloat(rapid.Float64Range(0, 100000).Draw(t, "price")).Round(2)
		discount := c.ComputeDiscount(price)

		if discount.GreaterThan(price) {
			t.Fatalf("discount %s exceeds price %s", discount, price)
		}
		if discount.IsNegative() {
			t.Fatalf("discount %s is negative", discount)
		}
	})
}

func TestValidateForOrderAndReasons(t *testing.T) {
	now := time.Now().UTC()
	schedule := testSchedule()
	price := dec("2000")

	t.Run("inactive coupon", func(t *testing.T) {
		c := percentageCoupon()
		c.IsActive = false
		err := c.ValidateFor(schedule, price, 0, now)
		require.NotNil(t, err)
		assert.Contains(t, err.Reason, "invalid, expired, or exhausted")
	})

	t.Run("expired coupon", func(t *testing.T) {
		c := percentageCoupon()
		past := now.Add(-time.Hour)
		c.ValidUntil = &past
		err := c.ValidateFor(schedule, price, 0, now)
		require.NotNil(t, err)
		assert.Contains(t, err.Reason, "invalid, expired, or exhausted")
	})

	t.Run("exhausted coupon", func(t *testing.T) {
		c := percentageCoupon()
		maxUses := 5
		c.MaxUses = &maxUses
		c.TotalUsed = 5
		err := c.ValidateFor(schedule, price, 0, now)
		require.NotNil(t, err)
	})

	t.Run("store scope mismatch", func(t *testing.T) {
		c := percentageCoupon()
		c.Scope = ScopeStore
		otherStore := int64(99)
		c.StoreID = &otherStore
		err := c.ValidateFor(schedule, price, 0, now)
		require.NotNil(t, err)
		assert.Contains(t, err.Reason, "specific store")
	})

	t.Run("schedule scope mismatch", func(t *testing.T) {
		c := percentageCoupon()
		c.Scope = ScopeSchedule
		otherSchedule := int64(99)
		c.ScheduleID = &otherSchedule
		err := c.ValidateFor(schedule, price, 0, now)
		require.NotNil(t, err)
		assert.Contains(t, err.Reason, "specific schedule")
	})

	t.Run("below minimum price", func(t *testing.T) {
		c := percentageCoupon()
		c.MinPrice = decPtr("5000")
		err := c.ValidateFor(schedule, price, 0, now)
		require.NotNil(t, err)
		assert.Contains(t, err.Reason, "minimum booking")
	})

	t.Run("per-user limit reached", func(t *testing.T) {
		c := percentageCoupon()
		err := c.ValidateFor(schedule, price, 1, now)
		require.NotNil(t, err)
		assert.Contains(t, err.Reason, "maximum number of times")
	})

	t.Run("matching scopes pass", func(t *testing.T) {
		c := percentageCoupon()
		c.Scope = ScopeStore
		c.StoreID = &schedule.StoreID
		assert.Nil(t, c.ValidateFor(schedule, price, 0, now))

		c = percentageCoupon()
		c.Scope = ScopeSchedule
		c.ScheduleID = &schedule.ID
		assert.Nil(t, c.ValidateFor(schedule, price, 0, now))
	})

	t.Run("no minimum when unset", func(t *testing.T) {
		c := percentageCoupon()
		c.MinPrice = nil
		assert.Nil(t, c.ValidateFor(schedule, dec("0.01"), 0, now))
	})
}

func TestCouponDerivedState(t *testing.T) {
	now := time.Now().UTC()
	c := percentageCoupon()

	assert.True(t, c.IsValid(now))
	assert.False(t, c.IsExpired(now))
	assert.False(t, c.IsExhausted())

	// No valid_until means never expired.
	c.ValidUntil = nil
	assert.False(t, c.IsExpired(now.AddDate(10, 0, 0)))

	// No max_uses means never exhausted.
	c.MaxUses = nil
	c.TotalUsed = 1 << 20
	assert.False(t, c.IsExhausted())
}
