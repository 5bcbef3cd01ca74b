package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

const (
	ModePayment      = "payment"
	ModeSubscription = "subscription"
)

type StartBookingRequest struct {
	ProductCode  string `json:"product_code"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Participants int    `json:"participants"`
	CouponCode   string `json:"coupon_code,omitempty"`
}

type StartEnrollmentRequest struct {
	ClassCode  string `json:"class_code"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	CouponCode string `json:"coupon_code,omitempty"`
}

// CheckoutResult is what the public API returns: enough to redirect the
// customer and to poll the order later.
type CheckoutResult struct {
	OrderID        snowflake.ID `json:"order_id"`
	Reference      string       `json:"reference"`
	SessionID      string       `json:"session_id"`
	CheckoutURL    string       `json:"checkout_url"`
	GrossAmount    int64        `json:"gross_amount"`
	DiscountAmount int64        `json:"discount_amount"`
	NetAmount      int64        `json:"net_amount"`
	Currency       string       `json:"currency"`
}

// SessionRequest carries everything the provider needs to build a hosted
// checkout page. The metadata (order id, kind, coupon, discount) is the only
// correlation the webhook will ever see, so it is written here and never
// re-derived.
type SessionRequest struct {
	OrderID        snowflake.ID
	OrderKind      string
	Reference      string
	Mode           string
	ProductTitle   string
	Amount         int64
	Currency       string
	CustomerEmail  string
	CouponID       *snowflake.ID
	DiscountAmount int64
}

type Session struct {
	ID  string
	URL string
}

// SessionProvider creates hosted checkout sessions at the payment provider.
type SessionProvider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
}

type Service interface {
	StartBooking(ctx context.Context, req StartBookingRequest) (*CheckoutResult, error)
	StartEnrollment(ctx context.Context, req StartEnrollmentRequest) (*CheckoutResult, error)
}
