package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/makestudio/printforge/internal/payment/domain"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return "stripe"
}

func (f *Factory) NewAdapter(cfg domain.AdapterConfig) (domain.PaymentAdapter, error) {
	secret := strings.TrimSpace(cfg.WebhookSecret)
	if secret == "" {
		return nil, domain.ErrInvalidConfig
	}
	return &Adapter{webhookSecret: secret}, nil
}

type Adapter struct {
	webhookSecret string
}

func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return domain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return domain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return domain.ErrInvalidSignature
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (*domain.CheckoutEvent, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, domain.ErrInvalidEvent
	}

	switch strings.TrimSpace(event.Type) {
	case "checkout.session.completed":
		return a.parseSession(event, payload, domain.EventTypeCheckoutCompleted)
	case "checkout.session.expired":
		return a.parseSession(event, payload, domain.EventTypeCheckoutExpired)
	case "payment_intent.payment_failed":
		return a.parsePaymentFailed(event, payload)
	default:
		return nil, domain.ErrEventIgnored
	}
}

type stripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    stripeEventData `json:"data"`
}

type stripeEventData struct {
	Object json.RawMessage `json:"object"`
}

type stripeSession struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	Subscription  string            `json:"subscription"`
	Customer      string            `json:"customer"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Created       int64             `json:"created"`
	Metadata      map[string]string `json:"metadata"`
}

type stripePaymentIntent struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Customer string            `json:"customer"`
	Created  int64             `json:"created"`
	Metadata map[string]string `json:"metadata"`
}

func (a *Adapter) parseSession(event stripeEvent, payload []byte, eventType string) (*domain.CheckoutEvent, error) {
	var session stripeSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(session.ID) == "" {
		return nil, domain.ErrInvalidEvent
	}

	orderID, orderKind, couponID, discountAmount, err := parseMetadata(session.Metadata)
	if err != nil {
		return nil, err
	}

	return &domain.CheckoutEvent{
		Provider:               "stripe",
		ProviderEventID:        event.ID,
		Type:                   eventType,
		OrderID:                orderID,
		OrderKind:              orderKind,
		ProviderSessionID:      session.ID,
		ProviderPaymentID:      session.PaymentIntent,
		ProviderSubscriptionID: session.Subscription,
		ProviderCustomerID:     session.Customer,
		SessionPaymentStatus:   strings.ToLower(strings.TrimSpace(session.PaymentStatus)),
		CouponID:               couponID,
		DiscountAmount:         discountAmount,
		Amount:                 session.AmountTotal,
		Currency:               strings.ToLower(strings.TrimSpace(session.Currency)),
		OccurredAt:             timestamp(session.Created, event.Created),
		RawPayload:             payload,
	}, nil
}

func (a *Adapter) parsePaymentFailed(event stripeEvent, payload []byte) (*domain.CheckoutEvent, error) {
	var intent stripePaymentIntent
	if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(intent.ID) == "" {
		return nil, domain.ErrInvalidEvent
	}

	orderID, orderKind, couponID, discountAmount, err := parseMetadata(intent.Metadata)
	if err != nil {
		return nil, err
	}

	return &domain.CheckoutEvent{
		Provider:           "stripe",
		ProviderEventID:    event.ID,
		Type:               domain.EventTypePaymentFailed,
		OrderID:            orderID,
		OrderKind:          orderKind,
		ProviderPaymentID:  intent.ID,
		ProviderCustomerID: intent.Customer,
		CouponID:           couponID,
		DiscountAmount:     discountAmount,
		Amount:             intent.Amount,
		Currency:           strings.ToLower(strings.TrimSpace(intent.Currency)),
		OccurredAt:         timestamp(intent.Created, event.Created),
		RawPayload:         payload,
	}, nil
}

// parseMetadata pulls the order correlation out of the session metadata that
// checkout wrote at session-creation time. discount_amount is carried through
// verbatim so the reconciler never re-derives it.
func parseMetadata(metadata map[string]string) (snowflake.ID, string, *snowflake.ID, int64, error) {
	rawOrderID := strings.TrimSpace(metadata["order_id"])
	if rawOrderID == "" {
		return 0, "", nil, 0, domain.ErrInvalidEvent
	}
	orderID, err := snowflake.ParseString(rawOrderID)
	if err != nil {
		return 0, "", nil, 0, domain.ErrInvalidEvent
	}

	orderKind := strings.TrimSpace(metadata["order_kind"])

	var couponID *snowflake.ID
	if raw := strings.TrimSpace(metadata["coupon_id"]); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return 0, "", nil, 0, domain.ErrInvalidEvent
		}
		couponID = &id
	}

	var discountAmount int64
	if raw := strings.TrimSpace(metadata["discount_amount"]); raw != "" {
		discountAmount, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, "", nil, 0, domain.ErrInvalidEvent
		}
	}

	return orderID, orderKind, couponID, discountAmount, nil
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

func timestamp(primary int64, fallback int64) time.Time {
	value := primary
	if value == 0 {
		value = fallback
	}
	if value == 0 {
		return time.Now().UTC()
	}
	return time.Unix(value, 0).UTC()
}
