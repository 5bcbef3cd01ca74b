package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateCouponRequest struct {
	Code          string     `json:"code"`
	DiscountType  string     `json:"discount_type"`
	DiscountValue int64      `json:"discount_value"`
	MinimumAmount *int64     `json:"minimum_amount"`
	UsageLimit    *int       `json:"usage_limit"`
	UserLimit     *int       `json:"user_limit"`
	ValidFrom     *time.Time `json:"valid_from"`
	ValidUntil    *time.Time `json:"valid_until"`
	ProductScope  []string   `json:"product_scope"`
}

type PreviewRequest struct {
	Code        string
	Amount      int64
	ProductCode string
	CustomerID  *snowflake.ID
}

// Discount is the evaluator's verdict for a valid coupon.
type Discount struct {
	Coupon         *Coupon
	DiscountAmount int64
	FinalAmount    int64
}

type Service interface {
	Create(ctx context.Context, req CreateCouponRequest) (*Coupon, error)
	Deactivate(ctx context.Context, id snowflake.ID) error
	FindByID(ctx context.Context, id snowflake.ID) (*Coupon, error)
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	List(ctx context.Context) ([]*Coupon, error)

	// Preview evaluates a coupon against an order amount without consuming
	// anything; usage_count is untouched.
	Preview(ctx context.Context, req PreviewRequest) (*Discount, error)

	// RecordUsage consumes the coupon for a confirmed order: one atomic
	// counter increment plus one append-only usage fact. Called only by the
	// payment reconciler.
	RecordUsage(ctx context.Context, couponID, orderID, customerID snowflake.ID, discountAmount int64) error

	CountUsageByCustomer(ctx context.Context, couponID, customerID snowflake.ID) (int, error)
}
