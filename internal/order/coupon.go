package order

import (
	"fmt"
	"time"

	"ms-foodcourt/internal/models"
)

// CouponResult captures the outcome of validating a coupon against an order
// subtotal. Invalid coupons carry a human-readable reason instead of an
// error so the API can surface it verbatim.
type CouponResult struct {
	IsValid        bool
	DiscountAmount float64
	Reason         string
}

// ValidateCoupon walks the eligibility ladder and computes the discount for
// a valid coupon. It never mutates the coupon; usage accounting happens at
// order placement.
func ValidateCoupon(coupon *models.Coupon, subtotal float64) (*CouponResult, error) {
	if coupon == nil {
		return &CouponResult{IsValid: false, Reason: "coupon not found"}, nil
	}

	now := time.Now()

	if !coupon.Active {
		return &CouponResult{IsValid: false, Reason: "coupon is not active"}, nil
	}
	if now.Before(coupon.ActiveFrom) {
		return &CouponResult{IsValid: false, Reason: "coupon is not active yet"}, nil
	}
	if now.After(coupon.ExpiresAt) {
		return &CouponResult{IsValid: false, Reason: "coupon has expired"}, nil
	}
	if coupon.MaxUsage > 0 && coupon.CurrentUsage >= coupon.MaxUsage {
		return &CouponResult{IsValid: false, Reason: "coupon usage limit reached"}, nil
	}
	if subtotal < coupon.MinSpend {
		return &CouponResult{
			IsValid: false,
			Reason:  fmt.Sprintf("order subtotal below minimum spend of %.2f", coupon.MinSpend),
		}, nil
	}

	var discount float64
	switch coupon.Type {
	case models.CouponPercentage:
		discount = subtotal * coupon.Percentage / 100
		if coupon.MaxDiscount > 0 && discount > coupon.MaxDiscount {
			discount = coupon.MaxDiscount
		}
	case models.CouponFlatOff:
		discount = coupon.Amount
	default:
		return nil, fmt.Errorf("unsupported coupon type: %s", coupon.Type)
	}

	if discount > subtotal {
		discount = subtotal
	}

	return &CouponResult{IsValid: true, DiscountAmount: discount}, nil
}
