package server_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	checkoutdomain "github.com/makestudio/printforge/internal/checkout/domain"
	checkoutservice "github.com/makestudio/printforge/internal/checkout/service"
	"github.com/makestudio/printforge/internal/clock"
	"github.com/makestudio/printforge/internal/config"
	coupondomain "github.com/makestudio/printforge/internal/coupon/domain"
	couponrepo "github.com/makestudio/printforge/internal/coupon/repository"
	couponservice "github.com/makestudio/printforge/internal/coupon/service"
	customerdomain "github.com/makestudio/printforge/internal/customer/domain"
	customerrepo "github.com/makestudio/printforge/internal/customer/repository"
	customerservice "github.com/makestudio/printforge/internal/customer/service"
	"github.com/makestudio/printforge/internal/notification"
	orderdomain "github.com/makestudio/printforge/internal/order/domain"
	orderrepo "github.com/makestudio/printforge/internal/order/repository"
	orderservice "github.com/makestudio/printforge/internal/order/service"
	"github.com/makestudio/printforge/internal/payment/adapters"
	"github.com/makestudio/printforge/internal/payment/adapters/stripe"
	paymentrepo "github.com/makestudio/printforge/internal/payment/repository"
	"github.com/makestudio/printforge/internal/pricing"
	productdomain "github.com/makestudio/printforge/internal/product/domain"
	productrepo "github.com/makestudio/printforge/internal/product/repository"
	productservice "github.com/makestudio/printforge/internal/product/service"
	"github.com/makestudio/printforge/internal/providers/email"
	"github.com/makestudio/printforge/internal/reconciler"
	"github.com/makestudio/printforge/internal/server"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	adminToken    = "test-admin-token"
	webhookSecret = "whsec_test"
)

var testSchema = []string{
	`CREATE TABLE products (
		id INTEGER PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		unit_amount INTEGER NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE customers (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		provider_customer_id TEXT NOT NULL DEFAULT '',
		metadata TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE coupons (
		id INTEGER PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		discount_type TEXT NOT NULL,
		discount_value INTEGER NOT NULL,
		minimum_amount INTEGER,
		usage_limit INTEGER,
		user_limit INTEGER,
		valid_from DATETIME NOT NULL,
		valid_until DATETIME,
		active BOOLEAN NOT NULL DEFAULT 1,
		product_scope TEXT,
		usage_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE coupon_usages (
		id INTEGER PRIMARY KEY,
		coupon_id INTEGER NOT NULL,
		order_id INTEGER NOT NULL UNIQUE,
		customer_id INTEGER NOT NULL,
		discount_amount INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		reference TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		product_id INTEGER NOT NULL,
		customer_id INTEGER NOT NULL,
		participants INTEGER NOT NULL DEFAULT 1,
		gross_amount INTEGER NOT NULL,
		discount_amount INTEGER NOT NULL DEFAULT 0,
		net_amount INTEGER NOT NULL,
		currency TEXT NOT NULL,
		coupon_id INTEGER,
		status TEXT NOT NULL DEFAULT 'pending',
		payment_status TEXT NOT NULL DEFAULT 'pending',
		provider_session_id TEXT NOT NULL DEFAULT '',
		provider_payment_id TEXT NOT NULL DEFAULT '',
		provider_subscription_id TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE webhook_events (
		id INTEGER PRIMARY KEY,
		provider TEXT NOT NULL,
		provider_event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		order_id INTEGER,
		payload TEXT,
		received_at DATETIME NOT NULL,
		processed_at DATETIME,
		UNIQUE (provider, provider_event_id)
	)`,
}

type fakeSessionProvider struct{}

func (fakeSessionProvider) CreateSession(ctx context.Context, req checkoutdomain.SessionRequest) (*checkoutdomain.Session, error) {
	return &checkoutdomain.Session{ID: "cs_fake", URL: "https://checkout.stripe.com/pay/cs_fake"}, nil
}

type fixture struct {
	engine     *gin.Engine
	db         *gorm.DB
	productSvc productdomain.Service
	couponSvc  coupondomain.Service
	orderSvc   orderdomain.Service
	custSvc    customerdomain.Service
}

func setupServer(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	for _, stmt := range testSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	node, err := snowflake.NewNode(60)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	cfg := config.Config{
		AdminToken: adminToken,
		Currency:   "jpy",
		Stripe:     config.StripeConfig{WebhookSecret: webhookSecret},
	}

	productSvc := productservice.New(productservice.Params{
		DB: db, Log: log, GenID: node, Repo: productrepo.Provide(),
	})
	customerSvc := customerservice.New(customerservice.Params{
		DB: db, Log: log, GenID: node, Repo: customerrepo.Provide(),
	})
	couponSvc := couponservice.New(couponservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: couponrepo.Provide(),
	})
	orderSvc := orderservice.New(orderservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: orderrepo.Provide(),
	})
	pricingSvc := pricing.New(pricing.Params{
		Log:    log,
		Holder: config.NewStaticPricingHolder(config.DefaultPricingCurve()),
	})
	notificationSvc := notification.New(notification.Params{
		Log:      log,
		Provider: &email.NoOpProvider{},
	})
	checkoutSvc := checkoutservice.New(checkoutservice.Params{
		Cfg:         cfg,
		Log:         log,
		ProductSvc:  productSvc,
		CustomerSvc: customerSvc,
		CouponSvc:   couponSvc,
		OrderSvc:    orderSvc,
		PricingSvc:  pricingSvc,
		Provider:    fakeSessionProvider{},
	})
	reconcilerSvc := reconciler.New(reconciler.Params{
		Cfg:             cfg,
		DB:              db,
		Log:             log,
		GenID:           node,
		Clock:           clk,
		Adapters:        adapters.NewRegistry(stripe.NewFactory()),
		Repo:            paymentrepo.Provide(),
		OrderSvc:        orderSvc,
		CouponSvc:       couponSvc,
		CustomerSvc:     customerSvc,
		ProductSvc:      productSvc,
		NotificationSvc: notificationSvc,
	})

	engine := server.NewEngine()
	server.NewServer(server.ServerParams{
		Gin:         engine,
		Cfg:         cfg,
		Log:         log,
		GenID:       node,
		ProductSvc:  productSvc,
		CustomerSvc: customerSvc,
		CouponSvc:   couponSvc,
		OrderSvc:    orderSvc,
		PricingSvc:  pricingSvc,
		CheckoutSvc: checkoutSvc,
		Reconciler:  reconcilerSvc,
	})

	return &fixture{
		engine:     engine,
		db:         db,
		productSvc: productSvc,
		couponSvc:  couponSvc,
		orderSvc:   orderSvc,
		custSvc:    customerSvc,
	}
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func signedWebhook(t *testing.T, engine *gin.Engine, payload []byte) *httptest.ResponseRecorder {
	t.Helper()

	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	fx := setupServer(t)

	w := doJSON(t, fx.engine, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestCheckoutBookingEndpoint(t *testing.T) {
	fx := setupServer(t)
	ctx := context.Background()

	if _, err := fx.productSvc.Create(ctx, productdomain.CreateProductRequest{
		Code: "ws-intro", Kind: productdomain.KindWorkshop, Title: "Intro", UnitAmount: 5000,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	w := doJSON(t, fx.engine, http.MethodPost, "/api/checkout/bookings", map[string]any{
		"product_code": "ws-intro",
		"name":         "Taro Yamada",
		"email":        "taro@example.com",
		"participants": 2,
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var result checkoutdomain.CheckoutResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.CheckoutURL == "" || result.NetAmount != 10000 {
		t.Fatalf("unexpected result %+v", result)
	}

	// Public order lookup by reference.
	w = doJSON(t, fx.engine, http.MethodGet, "/api/orders/"+result.Reference, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for order lookup, got %d", w.Code)
	}
}

func TestValidateCouponEndpoint(t *testing.T) {
	fx := setupServer(t)
	ctx := context.Background()

	if _, err := fx.couponSvc.Create(ctx, coupondomain.CreateCouponRequest{
		Code:          "SUMMER10",
		DiscountType:  coupondomain.DiscountTypePercentage,
		DiscountValue: 10,
	}); err != nil {
		t.Fatalf("create coupon: %v", err)
	}

	w := doJSON(t, fx.engine, http.MethodPost, "/api/coupons/validate", map[string]any{
		"code":   "summer10",
		"amount": 5000,
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Valid          bool   `json:"valid"`
		DiscountAmount int64  `json:"discount_amount"`
		FinalAmount    int64  `json:"final_amount"`
		ErrorKind      string `json:"error_kind"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Valid || resp.DiscountAmount != 500 || resp.FinalAmount != 4500 {
		t.Fatalf("unexpected response %+v", resp)
	}

	w = doJSON(t, fx.engine, http.MethodPost, "/api/coupons/validate", map[string]any{
		"code":   "NOPE",
		"amount": 5000,
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown coupon, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Valid || resp.ErrorKind != "CouponNotFound" {
		t.Fatalf("unexpected rejection %+v", resp)
	}
}

func TestWebhookEndpointStatusMapping(t *testing.T) {
	fx := setupServer(t)
	ctx := context.Background()

	product, err := fx.productSvc.Create(ctx, productdomain.CreateProductRequest{
		Code: "ws-intro", Kind: productdomain.KindWorkshop, Title: "Intro", UnitAmount: 5000,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	customer, err := fx.custSvc.UpsertByEmail(ctx, "taro@example.com", "Taro")
	if err != nil {
		t.Fatalf("upsert customer: %v", err)
	}
	order, err := fx.orderSvc.Create(ctx, orderdomain.CreateOrderRequest{
		Kind:         orderdomain.KindBooking,
		ProductID:    product.ID,
		CustomerID:   customer.ID,
		Participants: 1,
		GrossAmount:  5000,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_1", "payment_intent": "pi_1", "payment_status": "paid",
			"metadata": {"order_id": "%s"}}}
	}`, order.ID))

	// Missing signature: 400, nothing applied.
	w := doJSON(t, fx.engine, http.MethodPost, "/api/payments/webhooks/stripe", json.RawMessage(payload), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsigned delivery, got %d", w.Code)
	}

	// Signed: 200 and the order confirms.
	w = signedWebhook(t, fx.engine, payload)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got, err := fx.orderSvc.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("find order: %v", err)
	}
	if got.Status != orderdomain.StatusConfirmed {
		t.Fatalf("order not confirmed: %s", got.Status)
	}

	// Duplicate delivery: still 200.
	w = signedWebhook(t, fx.engine, payload)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for duplicate, got %d", w.Code)
	}

	// Unhandled event type: 200.
	w = signedWebhook(t, fx.engine, []byte(`{"id":"evt_2","type":"invoice.paid","data":{"object":{}}}`))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for unhandled type, got %d", w.Code)
	}
}

func TestAdminAuth(t *testing.T) {
	fx := setupServer(t)

	w := doJSON(t, fx.engine, http.MethodGet, "/admin/coupons", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	w = doJSON(t, fx.engine, http.MethodGet, "/admin/coupons", nil, map[string]string{"X-Admin-Token": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}

	w = doJSON(t, fx.engine, http.MethodGet, "/admin/coupons", nil, map[string]string{"X-Admin-Token": adminToken})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
}

func TestAdminOrderStatusOverride(t *testing.T) {
	fx := setupServer(t)
	ctx := context.Background()

	product, err := fx.productSvc.Create(ctx, productdomain.CreateProductRequest{
		Code: "ws-intro", Kind: productdomain.KindWorkshop, Title: "Intro", UnitAmount: 5000,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	customer, err := fx.custSvc.UpsertByEmail(ctx, "taro@example.com", "Taro")
	if err != nil {
		t.Fatalf("upsert customer: %v", err)
	}
	order, err := fx.orderSvc.Create(ctx, orderdomain.CreateOrderRequest{
		Kind:         orderdomain.KindBooking,
		ProductID:    product.ID,
		CustomerID:   customer.ID,
		Participants: 1,
		GrossAmount:  5000,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	w := doJSON(t, fx.engine, http.MethodPost, fmt.Sprintf("/admin/orders/%s/status", order.ID), map[string]any{
		"status": "cancelled",
		"note":   "customer asked by phone",
	}, map[string]string{"X-Admin-Token": adminToken})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	got, err := fx.orderSvc.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("find order: %v", err)
	}
	if got.Status != orderdomain.StatusCancelled {
		t.Fatalf("override not applied: %s", got.Status)
	}
	if got.Note != "customer asked by phone" {
		t.Fatalf("note not recorded: %q", got.Note)
	}
}

func TestPricingQuoteEndpoint(t *testing.T) {
	fx := setupServer(t)

	w := doJSON(t, fx.engine, http.MethodGet, "/api/pricing/quote?quantity=100", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var quote pricing.Quote
	if err := json.Unmarshal(w.Body.Bytes(), &quote); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if quote.UnitAmount != 120 || quote.TotalAmount != 12000 {
		t.Fatalf("unexpected quote %+v", quote)
	}

	w = doJSON(t, fx.engine, http.MethodGet, "/api/pricing/quote?quantity=0", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero quantity, got %d", w.Code)
	}
}
