package domain

import "errors"

// Typed rejections surfaced to the caller as a specific reason; validation
// never throws through the evaluator.
var (
	ErrCouponNotFound     = errors.New("coupon_not_found")
	ErrCouponExpired      = errors.New("coupon_expired")
	ErrCouponInactive     = errors.New("coupon_inactive")
	ErrBelowMinimumAmount = errors.New("below_minimum_amount")
	ErrUsageLimitExceeded = errors.New("usage_limit_exceeded")
	ErrUserLimitExceeded  = errors.New("user_limit_exceeded")
	ErrProductNotEligible = errors.New("product_not_eligible")

	ErrInvalidAmount = errors.New("invalid_amount")
	ErrInvalidCode   = errors.New("invalid_code")
	ErrInvalidType   = errors.New("invalid_discount_type")
	ErrInvalidValue  = errors.New("invalid_discount_value")
	ErrCodeExists    = errors.New("code_exists")
)

// RejectionKind maps an evaluator error to the wire-level error_kind; it
// returns "" for errors that are not coupon rejections.
func RejectionKind(err error) string {
	switch {
	case errors.Is(err, ErrCouponNotFound):
		return "CouponNotFound"
	case errors.Is(err, ErrCouponExpired):
		return "CouponExpired"
	case errors.Is(err, ErrCouponInactive):
		return "CouponInactive"
	case errors.Is(err, ErrBelowMinimumAmount):
		return "BelowMinimumAmount"
	case errors.Is(err, ErrUsageLimitExceeded):
		return "UsageLimitExceeded"
	case errors.Is(err, ErrUserLimitExceeded):
		return "UserLimitExceeded"
	case errors.Is(err, ErrProductNotEligible):
		return "ProductNotEligible"
	default:
		return ""
	}
}
