package handler

import (
	"time"

	"github.com/blueharbor/divebook/internal/domain"
)

type userJSON struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

func toUserJSON(u *domain.User) userJSON {
	return userJSON{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Email:     u.Email,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

type storeJSON struct {
	ID            int64           `json:"id"`
	OwnerID       int64           `json:"owner_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	ContactNumber string          `json:"contact_number"`
	Address       string          `json:"address"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     string          `json:"created_at"`
	Schedules     []scheduleJSON  `json:"schedules,omitempty"`
}

func toStoreJSON(s *domain.Store) storeJSON {
	return storeJSON{
		ID:            s.ID,
		OwnerID:       s.OwnerID,
		Name:          s.Name,
		Description:   s.Description,
		ContactNumber: s.ContactNumber,
		Address:       s.Address,
		IsActive:      s.IsActive,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
}

type scheduleJSON struct {
	ID             int64   `json:"id"`
	StoreID        int64   `json:"store_id"`
	StoreName      string  `json:"store_name"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Date           string  `json:"date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	Price          float64 `json:"price"`
	MaxSlots       int     `json:"max_slots"`
	BookedSlots    int     `json:"booked_slots"`
	AvailableSlots int     `json:"available_slots"`
	IsFullyBooked  bool    `json:"is_fully_booked"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"created_at"`
}

func toScheduleJSON(s *domain.Schedule) scheduleJSON {
	return scheduleJSON{
		ID:             s.ID,
		StoreID:        s.StoreID,
		StoreName:      s.StoreName,
		Title:          s.Title,
		Description:    s.Description,
		Date:           s.Date.Format("2006-01-02"),
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		Price:          s.Price.InexactFloat64(),
		MaxSlots:       s.MaxSlots,
		BookedSlots:    s.BookedSlots,
		AvailableSlots: s.AvailableSlots(),
		IsFullyBooked:  s.IsFullyBooked(),
		Status:         string(s.Status()),
		CreatedAt:      s.CreatedAt.Format(time.RFC3339),
	}
}

type bookingJSON struct {
	ID              int64         `json:"id"`
	UserID          int64         `json:"user_id"`
	BookedBy        string        `json:"booked_by"`
	Email           string        `json:"email"`
	ScheduleID      int64         `json:"schedule_id"`
	Schedule        *scheduleJSON `json:"schedule"`
	Slots           int           `json:"slots"`
	Notes           string        `json:"notes"`
	OriginalPrice   float64       `json:"original_price"`
	DiscountApplied float64       `json:"discount_applied"`
	FinalPrice      float64       `json:"final_price"`
	CreatedAt       string        `json:"created_at"`
	IsCancelled     bool          `json:"is_cancelled"`
}

func toBookingJSON(b *domain.Booking) bookingJSON {
	out := bookingJSON{
		ID:              b.ID,
		UserID:          b.UserID,
		BookedBy:        b.BookedBy,
		Email:           b.Email,
		ScheduleID:      b.ScheduleID,
		Slots:           b.Slots,
		Notes:           b.Notes,
		OriginalPrice:   b.OriginalPrice.InexactFloat64(),
		DiscountApplied: b.DiscountApplied.InexactFloat64(),
		FinalPrice:      b.FinalPrice.InexactFloat64(),
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
		IsCancelled:     b.IsCancelled,
	}
	if b.Schedule != nil {
		s := toScheduleJSON(b.Schedule)
		out.Schedule = &s
	}
	return out
}

func toBookingListJSON(bookings []*domain.Booking) []bookingJSON {
	out := make([]bookingJSON, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingJSON(b))
	}
	return out
}

type couponJSON struct {
	ID            int64    `json:"id"`
	Code          string   `json:"code"`
	Description   string   `json:"description"`
	DiscountType  string   `json:"discount_type"`
	DiscountValue float64  `json:"discount_value"`
	MinPrice      *float64 `json:"min_price"`
	MaxDiscount   *float64 `json:"max_discount"`
	Scope         string   `json:"scope"`
	StoreID       *int64   `json:"store_id"`
	ScheduleID    *int64   `json:"schedule_id"`
	MaxUses       *int     `json:"max_uses"`
	UsesPerUser   int      `json:"uses_per_user"`
	TotalUsed     int      `json:"total_used"`
	ValidFrom     string   `json:"valid_from"`
	ValidUntil    *string  `json:"valid_until"`
	IsActive      bool     `json:"is_active"`
	IsValid       bool     `json:"is_valid"`
	CreatedAt     string   `json:"created_at"`
}

func toCouponJSON(c *domain.Coupon, now time.Time) couponJSON {
	out := couponJSON{
		ID:            c.ID,
		Code:          c.Code,
		Description:   c.Description,
		DiscountType:  string(c.DiscountType),
		DiscountValue: c.DiscountValue.InexactFloat64(),
		Scope:         string(c.Scope),
		StoreID:       c.StoreID,
		ScheduleID:    c.ScheduleID,
		MaxUses:       c.MaxUses,
		UsesPerUser:   c.UsesPerUser,
		TotalUsed:     c.TotalUsed,
		ValidFrom:     c.ValidFrom.Format(time.RFC3339),
		IsActive:      c.IsActive,
		IsValid:       c.IsValid(now),
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
	}
	if c.MinPrice != nil {
		v := c.MinPrice.InexactFloat64()
		out.MinPrice = &v
	}
	if c.MaxDiscount != nil {
		v := c.MaxDiscount.InexactFloat64()
		out.MaxDiscount = &v
	}
	if c.ValidUntil != nil {
		v := c.ValidUntil.Format(time.RFC3339)
		out.ValidUntil = &v
	}
	return out
}

type redemptionJSON struct {
	ID              int64   `json:"id"`
	CouponID        int64   `json:"coupon_id"`
	UserID          int64   `json:"user_id"`
	BookingID       int64   `json:"booking_id"`
	OriginalPrice   float64 `json:"original_price"`
	DiscountApplied float64 `json:"discount_applied"`
	FinalPrice      float64 `json:"final_price"`
	RedeemedAt      string  `json:"redeemed_at"`
}

func toRedemptionJSON(r *domain.CouponRedemption) redemptionJSON {
	return redemptionJSON{
		ID:              r.ID,
		CouponID:        r.CouponID,
		UserID:          r.UserID,
		BookingID:       r.BookingID,
		OriginalPrice:   r.OriginalPrice.InexactFloat64(),
		DiscountApplied: r.DiscountApplied.InexactFloat64(),
		FinalPrice:      r.FinalPrice.InexactFloat64(),
		RedeemedAt:      r.RedeemedAt.Format(time.RFC3339),
	}
}
