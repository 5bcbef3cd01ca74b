package domain

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Canonical event types every provider adapter normalizes to.
const (
	EventTypeCheckoutCompleted = "checkout_completed"
	EventTypeCheckoutExpired   = "checkout_expired"
	EventTypePaymentFailed     = "payment_failed"
)

// WebhookEvent is the dedupe and audit record for one provider delivery. The
// (provider, provider_event_id) unique index is what makes at-least-once
// delivery safe.
type WebhookEvent struct {
	ID              snowflake.ID   `gorm:"primaryKey" json:"id"`
	Provider        string         `gorm:"not null;uniqueIndex:idx_webhook_events_provider_event" json:"provider"`
	ProviderEventID string         `gorm:"not null;uniqueIndex:idx_webhook_events_provider_event" json:"provider_event_id"`
	EventType       string         `gorm:"not null" json:"event_type"`
	OrderID         *snowflake.ID  `gorm:"index" json:"order_id,omitempty"`
	Payload         datatypes.JSON `json:"payload"`
	ReceivedAt      time.Time      `gorm:"not null" json:"received_at"`
	ProcessedAt     *time.Time     `json:"processed_at,omitempty"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }

// CheckoutEvent is the provider-neutral shape the reconciler consumes.
type CheckoutEvent struct {
	Provider        string
	ProviderEventID string
	Type            string

	OrderID   snowflake.ID
	OrderKind string

	ProviderSessionID      string
	ProviderPaymentID      string
	ProviderSubscriptionID string
	ProviderCustomerID     string

	// SessionPaymentStatus is the provider's own payment state for a completed
	// session. Async payment methods complete the session before the money
	// clears, so "paid" is required before the order confirms.
	SessionPaymentStatus string

	CouponID       *snowflake.ID
	DiscountAmount int64

	Amount     int64
	Currency   string
	OccurredAt time.Time
	RawPayload []byte
}

type AdapterConfig struct {
	Provider      string
	WebhookSecret string
}

// PaymentAdapter verifies and normalizes one provider's webhook deliveries.
type PaymentAdapter interface {
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*CheckoutEvent, error)
}

type AdapterFactory interface {
	Provider() string
	NewAdapter(cfg AdapterConfig) (PaymentAdapter, error)
}

type Repository interface {
	// InsertEvent writes the dedupe record with ON CONFLICT DO NOTHING and
	// reports whether this delivery is the first.
	InsertEvent(ctx context.Context, db *gorm.DB, event *WebhookEvent) (bool, error)
	FindEvent(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*WebhookEvent, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, provider, providerEventID string, at time.Time) error
}
