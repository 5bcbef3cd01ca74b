package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/makestudio/printforge/internal/checkout/domain"
	"github.com/makestudio/printforge/internal/config"
)

type stripeSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// stripeProvider creates hosted Checkout sessions over the plain form-encoded
// Stripe API, no SDK.
type stripeProvider struct {
	apiKey     string
	successURL string
	cancelURL  string
	baseURL    string
	client     *http.Client
}

func NewStripeProvider(cfg config.Config) domain.SessionProvider {
	return &stripeProvider{
		apiKey:     strings.TrimSpace(cfg.Stripe.APIKey),
		successURL: cfg.Stripe.SuccessURL,
		cancelURL:  cfg.Stripe.CancelURL,
		baseURL:    "https://api.stripe.com",
		client:     &http.Client{Timeout: 12 * time.Second},
	}
}

func (p *stripeProvider) CreateSession(ctx context.Context, req domain.SessionRequest) (*domain.Session, error) {
	if p.apiKey == "" {
		return nil, domain.ErrSessionFailed
	}

	values := url.Values{}
	values.Set("mode", req.Mode)
	values.Set("success_url", p.successURL)
	values.Set("cancel_url", p.cancelURL)
	values.Set("customer_email", req.CustomerEmail)
	values.Set("client_reference_id", req.Reference)
	values.Set("line_items[0][quantity]", "1")
	values.Set("line_items[0][price_data][currency]", strings.ToLower(req.Currency))
	values.Set("line_items[0][price_data][product_data][name]", req.ProductTitle)
	values.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(req.Amount, 10))
	if req.Mode == domain.ModeSubscription {
		values.Set("line_items[0][price_data][recurring][interval]", "month")
	}
	values.Set("metadata[order_id]", req.OrderID.String())
	values.Set("metadata[order_kind]", req.OrderKind)
	if req.CouponID != nil {
		values.Set("metadata[coupon_id]", req.CouponID.String())
		values.Set("metadata[discount_amount]", strconv.FormatInt(req.DiscountAmount, 10))
	}
	if req.Mode == domain.ModePayment {
		values.Set("payment_intent_data[metadata][order_id]", req.OrderID.String())
		values.Set("payment_intent_data[metadata][order_kind]", req.OrderKind)
	}

	session, err := p.doRequest(ctx, "/v1/checkout/sessions", values, uuid.NewString())
	if err != nil {
		return nil, err
	}
	return &domain.Session{ID: session.ID, URL: session.URL}, nil
}

func (p *stripeProvider) doRequest(
	ctx context.Context,
	path string,
	values url.Values,
	idempotencyKey string,
) (stripeSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, strings.NewReader(values.Encode()))
	if err != nil {
		return stripeSession{}, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return stripeSession{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return stripeSession{}, errors.New("stripe_request_failed")
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			message = "stripe_request_failed"
		}
		return stripeSession{}, errors.New(message)
	}

	var session stripeSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return stripeSession{}, err
	}
	if session.ID == "" {
		return stripeSession{}, errors.New("stripe_response_invalid")
	}
	return session, nil
}
