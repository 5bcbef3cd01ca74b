package service

import (
	"time"

	"github.com/makestudio/printforge/internal/coupon/domain"
)

// Evaluate applies the coupon validity rules and computes the discount for an
// order amount. It is pure: no clock reads, no persistence, and in particular
// no usage_count mutation. Preview and consumption are decoupled.
//
// priorCustomerUses is the requesting customer's confirmed-usage count for
// this coupon; pass 0 when the customer is unknown.
func Evaluate(amount int64, coupon *domain.Coupon, productCode string, priorCustomerUses int, now time.Time) (*domain.Discount, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if coupon == nil {
		return nil, domain.ErrCouponNotFound
	}
	if !coupon.Active {
		return nil, domain.ErrCouponInactive
	}
	if now.Before(coupon.ValidFrom) {
		return nil, domain.ErrCouponExpired
	}
	if coupon.ValidUntil != nil && now.After(*coupon.ValidUntil) {
		return nil, domain.ErrCouponExpired
	}
	if coupon.MinimumAmount != nil && amount < *coupon.MinimumAmount {
		return nil, domain.ErrBelowMinimumAmount
	}
	if !coupon.InScope(productCode) {
		return nil, domain.ErrProductNotEligible
	}
	if coupon.UsageLimit != nil && coupon.UsageCount >= *coupon.UsageLimit {
		return nil, domain.ErrUsageLimitExceeded
	}
	if coupon.UserLimit != nil && priorCustomerUses >= *coupon.UserLimit {
		return nil, domain.ErrUserLimitExceeded
	}

	discount := discountFor(amount, coupon)
	return &domain.Discount{
		Coupon:         coupon,
		DiscountAmount: discount,
		FinalAmount:    amount - discount,
	}, nil
}

func discountFor(amount int64, coupon *domain.Coupon) int64 {
	switch coupon.DiscountType {
	case domain.DiscountTypePercentage:
		// Half-up integer rounding; the discount can never exceed the amount
		// because the value is validated to be <= 100 at creation.
		discount := (amount*coupon.DiscountValue + 50) / 100
		if discount > amount {
			discount = amount
		}
		return discount
	case domain.DiscountTypeFixedAmount:
		if coupon.DiscountValue > amount {
			return amount
		}
		return coupon.DiscountValue
	default:
		return 0
	}
}
