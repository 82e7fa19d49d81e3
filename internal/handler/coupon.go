package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/blueharbor/divebook/internal/domain"
	"github.com/blueharbor/divebook/internal/middleware"
	"github.com/blueharbor/divebook/internal/service"
)

type validateCouponRequest struct {
	CouponCode string `json:"coupon_code"`
	ScheduleID int64  `json:"schedule_id"`
	Slots      int    `json:"slots"`
}

// ValidateCoupon is a read-only dry run: it never consumes usage.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	req := validateCouponRequest{Slots: 1}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user := middleware.GetUser(r.Context())
	check, err := h.couponService.CheckForBooking(r.Context(), user, req.CouponCode, req.ScheduleID, req.Slots)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"is_valid":         true,
		"code":             check.Coupon.Code,
		"original_price":   check.OriginalPrice.InexactFloat64(),
		"discount_applied": check.DiscountApplied.InexactFloat64(),
		"final_price":      check.FinalPrice.InexactFloat64(),
	})
}

type couponRequest struct {
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
	ValidUntil    string   `json:"valid_until"` // RFC3339, optional
	IsActive      *bool    `json:"is_active"`
}

func (r *couponRequest) toInput() (service.CouponInput, error) {
	in := service.CouponInput{
		Code:          r.Code,
		Description:   r.Description,
		DiscountType:  domain.DiscountType(r.DiscountType),
		DiscountValue: decimal.NewFromFloat(r.DiscountValue),
		Scope:         domain.CouponScope(r.Scope),
		StoreID:       r.StoreID,
		ScheduleID:    r.ScheduleID,
		MaxUses:       r.MaxUses,
		UsesPerUser:   r.UsesPerUser,
	}
	if in.DiscountType == "" {
		in.DiscountType = domain.DiscountPercentage
	}
	if in.Scope == "" {
		in.Scope = domain.ScopeGlobal
	}
	if in.UsesPerUser == 0 {
		in.UsesPerUser = 1
	}
	if r.MinPrice != nil {
		v := decimal.NewFromFloat(*r.MinPrice)
		in.MinPrice = &v
	}
	if r.MaxDiscount != nil {
		v := decimal.NewFromFloat(*r.MaxDiscount)
		in.MaxDiscount = &v
	}
	if r.ValidUntil != "" {
		t, err := time.Parse(time.RFC3339, r.ValidUntil)
		if err != nil {
			return in, &domain.ValidationError{Field: "valid_until", Reason: "use RFC3339"}
		}
		in.ValidUntil = &t
	}
	return in, nil
}

func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, err)
		return
	}

	coupon, err := h.couponService.Create(r.Context(), middleware.GetUser(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"coupon": toCouponJSON(coupon, time.Now())})
}

type generateCouponsRequest struct {
	couponRequest
	Prefix string `json:"prefix"`
	Count  int    `json:"count"`
}

func (h *Handler) GenerateCoupons(w http.ResponseWriter, r *http.Request) {
	var req generateCouponsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, err)
		return
	}

	codes, err := h.couponService.Generate(r.Context(), middleware.GetUser(r.Context()), req.Prefix, req.Count, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"total": len(codes), "codes": codes})
}

func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.couponService.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	now := time.Now()
	out := make([]couponJSON, 0, len(coupons))
	for _, c := range coupons {
		out = append(out, toCouponJSON(c, now))
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": len(out), "coupons": out})
}

func (h *Handler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid coupon id"})
		return
	}

	coupon, redemptions, err := h.couponService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	outRedemptions := make([]redemptionJSON, 0, len(redemptions))
	for _, red := range redemptions {
		outRedemptions = append(outRedemptions, toRedemptionJSON(red))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"coupon":      toCouponJSON(coupon, time.Now()),
		"redemptions": outRedemptions,
	})
}

func (h *Handler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid coupon id"})
		return
	}

	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	coupon, err := h.couponService.Update(r.Context(), id, service.UpdateCouponInput{
		Description:   in.Description,
		DiscountValue: in.DiscountValue,
		MinPrice:      in.MinPrice,
		MaxDiscount:   in.MaxDiscount,
		MaxUses:       in.MaxUses,
		UsesPerUser:   in.UsesPerUser,
		ValidUntil:    in.ValidUntil,
		IsActive:      isActive,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"coupon": toCouponJSON(coupon, time.Now())})
}

func (h *Handler) DeactivateCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid coupon id"})
		return
	}

	if err := h.couponService.Deactivate(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "coupon deactivated"})
}
