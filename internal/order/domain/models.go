package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	KindBooking    = "booking"
	KindEnrollment = "enrollment"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

func ValidKind(kind string) bool {
	return kind == KindBooking || kind == KindEnrollment
}

func ValidStatus(status string) bool {
	return status == StatusPending || status == StatusConfirmed || status == StatusCancelled
}

// Order is one purchasable intent. The monetary snapshot (gross, discount,
// net) is fixed at creation; once payment_status is paid the net amount and
// coupon reference are frozen.
type Order struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	Reference      string        `gorm:"not null;uniqueIndex" json:"reference"`
	Kind           string        `gorm:"not null" json:"kind"`
	ProductID      snowflake.ID  `gorm:"not null;index" json:"product_id"`
	CustomerID     snowflake.ID  `gorm:"not null;index" json:"customer_id"`
	Participants   int           `gorm:"not null;default:1" json:"participants"`
	GrossAmount    int64         `gorm:"not null" json:"gross_amount"`
	DiscountAmount int64         `gorm:"not null;default:0" json:"discount_amount"`
	NetAmount      int64         `gorm:"not null" json:"net_amount"`
	Currency       string        `gorm:"not null" json:"currency"`
	CouponID       *snowflake.ID `gorm:"index" json:"coupon_id,omitempty"`

	Status        string `gorm:"not null;default:pending" json:"status"`
	PaymentStatus string `gorm:"not null;default:pending" json:"payment_status"`

	ProviderSessionID      string `json:"provider_session_id,omitempty"`
	ProviderPaymentID      string `json:"provider_payment_id,omitempty"`
	ProviderSubscriptionID string `json:"provider_subscription_id,omitempty"`

	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// Confirmation carries the provider identifiers stamped onto an order when the
// payment completes.
type Confirmation struct {
	ProviderPaymentID      string
	ProviderSubscriptionID string
}
