package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
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
	orderdomain "github.com/makestudio/printforge/internal/order/domain"
	orderrepo "github.com/makestudio/printforge/internal/order/repository"
	orderservice "github.com/makestudio/printforge/internal/order/service"
	"github.com/makestudio/printforge/internal/pricing"
	productdomain "github.com/makestudio/printforge/internal/product/domain"
	productrepo "github.com/makestudio/printforge/internal/product/repository"
	productservice "github.com/makestudio/printforge/internal/product/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
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
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

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
	return db
}

type fakeProvider struct {
	lastRequest *checkoutdomain.SessionRequest
	err         error
}

func (p *fakeProvider) CreateSession(ctx context.Context, req checkoutdomain.SessionRequest) (*checkoutdomain.Session, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.lastRequest = &req
	return &checkoutdomain.Session{
		ID:  "cs_fake_1",
		URL: "https://checkout.stripe.com/pay/cs_fake_1",
	}, nil
}

type fixture struct {
	db          *gorm.DB
	node        *snowflake.Node
	provider    *fakeProvider
	productSvc  productdomain.Service
	customerSvc customerdomain.Service
	couponSvc   coupondomain.Service
	orderSvc    orderdomain.Service
	checkoutSvc checkoutdomain.Service
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(40)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

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

	provider := &fakeProvider{}
	checkoutSvc := checkoutservice.New(checkoutservice.Params{
		Cfg:         config.Config{Currency: "jpy"},
		Log:         log,
		ProductSvc:  productSvc,
		CustomerSvc: customerSvc,
		CouponSvc:   couponSvc,
		OrderSvc:    orderSvc,
		PricingSvc:  pricingSvc,
		Provider:    provider,
	})

	return &fixture{
		db:          db,
		node:        node,
		provider:    provider,
		productSvc:  productSvc,
		customerSvc: customerSvc,
		couponSvc:   couponSvc,
		orderSvc:    orderSvc,
		checkoutSvc: checkoutSvc,
	}
}

func TestStartBookingCreatesOrderAndSession(t *testing.T) {
	ctx := context.Background()
	fx := setupFixture(t)

	if _, err := fx.productSvc.Create(ctx, productdomain.CreateProductRequest{
		Code:       "ws-intro",
		Kind:       productdomain.KindWorkshop,
		Title:      "Intro to 3D Printing",
		UnitAmount: 5000,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	result, err := fx.checkoutSvc.StartBooking(ctx, checkoutdomain.StartBookingRequest{
		ProductCode:  "ws-intro",
		Name:         "Taro Yamada",
		Email:        "taro@example.com",
		Participants: 2,
	})
	if err != nil {
		t.Fatalf("start booking: %v", err)
	}

	if result.GrossAmount != 10000 || result.NetAmount != 10000 {
		t.Fatalf("unexpected amounts %d/%d", result.GrossAmount, result.NetAmount)
	}
	if result.CheckoutURL == "" || result.SessionID != "cs_fake_1" {
		t.Fatalf("session not attached to result")
	}

	order, err := fx.orderSvc.FindByID(ctx, result.OrderID)
	if err != nil {
		t.Fatalf("find order: %v", err)
	}
	if order.ProviderSessionID != "cs_fake_1" {
		t.Fatalf("expected session id persisted, got %q", order.ProviderSessionID)
	}

	req := fx.provider.lastRequest
	if req == nil {
		t.Fatalf("provider not called")
	}
	if req.Mode != checkoutdomain.ModePayment {
		t.Fatalf("expected payment mode, got %s", req.Mode)
	}
	if req.OrderID != order.ID || req.OrderKind != orderdomain.KindBooking {
		t.Fatalf("session metadata does not correlate the order")
	}
}

func TestStartBookingAppliesCoupon(t *testing.T) {
	ctx := context.Background()
	fx := setupFixture(t)

	if _, err := fx.productSvc.Create(ctx, productdomain.CreateProductRequest{
		Code:       "ws-intro",
		Kind:       productdomain.KindWorkshop,
		Title:      "Intro to 3D Printing",
		UnitAmount: 5000,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}
	coupon, err := fx.couponSvc.Create(ctx, coupondomain.CreateCouponRequest{
		Code:          "SUMMER10",
		DiscountType:  coupondomain.DiscountTypePercentage,
		DiscountValue: 10,
	})
	if err != nil {
		t.Fatalf("create coupon: %v", err)
	}

	result, err := fx.checkoutSvc.StartBooking(ctx, checkoutdomain.StartBookingRequest{
		ProductCode:  "ws-intro",
		Name:         "Taro Yamada",
		Email:        "taro@example.com",
		Participants: 1,
		CouponCode:   "summer10",
	})
	if err != nil {
		t.Fatalf("start booking: %v", err)
	}

	if result.DiscountAmount != 500 || result.NetAmount != 4500 {
		t.Fatalf("unexpected discount %d net %d", result.DiscountAmount, result.NetAmount)
	}

	req := fx.provider.lastRequest
	if req.CouponID == nil || *req.CouponID != coupon.ID {
		t.Fatalf("coupon id missing from session metadata")
	}
	if req.DiscountAmount != 500 {
		t.Fatalf("discount not carried into session metadata")
	}
	if req.Amount != 4500 {
		t.Fatalf("session amount must be the net amount, got %d", req.Amount)
	}

	// Booking intent alone never consumes the coupon.
	got, err := fx.couponSvc.FindByID(ctx, coupon.ID)
	if err != nil {
		t.Fatalf("find coupon: %v", err)
	}
	if got.UsageCount != 0 {
		t.Fatalf("expected usage_count 0 before payment, got %d", got.UsageCount)
	}
}

func TestStartBookingRejectsInvalidCoupon(t *testing.T) {
	ctx := context.Background()
	fx := setupFixture(t)

	if _, err := fx.productSvc.Create(ctx, productdomain.CreateProductRequest{
		Code:       "ws-intro",
		Kind:       productdomain.KindWorkshop,
		Title:      "Intro to 3D Printing",
		UnitAmount: 5000,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	_, err := fx.checkoutSvc.StartBooking(ctx, checkoutdomain.StartBookingRequest{
		ProductCode:  "ws-intro",
		Name:         "Taro Yamada",
		Email:        "taro@example.com",
		Participants: 1,
		CouponCode:   "NOPE",
	})
	if !errors.Is(err, coupondomain.ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound, got %v", err)
	}

	orders, err := fx.orderSvc.List(ctx, orderdomain.ListOrdersRequest{})
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected no order after rejected coupon, got %d", len(orders))
	}
}

func TestStartBookingPricesPrintItemsByCurve(t *testing.T) {
	ctx := context.Background()
	fx := setupFixture(t)

	if _, err := fx.productSvc.Create(ctx, productdomain.CreateProductRequest{
		Code:       "print-custom",
		Kind:       productdomain.KindPrintItem,
		Title:      "Custom Print Run",
		UnitAmount: 0,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	result, err := fx.checkoutSvc.StartBooking(ctx, checkoutdomain.StartBookingRequest{
		ProductCode:  "print-custom",
		Name:         "Taro Yamada",
		Email:        "taro@example.com",
		Participants: 100,
	})
	if err != nil {
		t.Fatalf("start booking: %v", err)
	}
	if result.GrossAmount != 12000 {
		t.Fatalf("expected curve-priced gross 12000, got %d", result.GrossAmount)
	}
}

func TestStartEnrollmentUsesSubscriptionMode(t *testing.T) {
	ctx := context.Background()
	fx := setupFixture(t)

	if _, err := fx.productSvc.Create(ctx, productdomain.CreateProductRequest{
		Code:       "class-robotics",
		Kind:       productdomain.KindSchoolClass,
		Title:      "Robotics Class",
		UnitAmount: 12000,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	result, err := fx.checkoutSvc.StartEnrollment(ctx, checkoutdomain.StartEnrollmentRequest{
		ClassCode: "class-robotics",
		Name:      "Hanako Sato",
		Email:     "hanako@example.com",
	})
	if err != nil {
		t.Fatalf("start enrollment: %v", err)
	}

	req := fx.provider.lastRequest
	if req.Mode != checkoutdomain.ModeSubscription {
		t.Fatalf("expected subscription mode, got %s", req.Mode)
	}

	order, err := fx.orderSvc.FindByID(ctx, result.OrderID)
	if err != nil {
		t.Fatalf("find order: %v", err)
	}
	if order.Kind != orderdomain.KindEnrollment || order.Participants != 1 {
		t.Fatalf("unexpected order %s participants %d", order.Kind, order.Participants)
	}
}

func TestStartEnrollmentRejectsNonClassProduct(t *testing.T) {
	ctx := context.Background()
	fx := setupFixture(t)

	if _, err := fx.productSvc.Create(ctx, productdomain.CreateProductRequest{
		Code:       "ws-intro",
		Kind:       productdomain.KindWorkshop,
		Title:      "Intro to 3D Printing",
		UnitAmount: 5000,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	_, err := fx.checkoutSvc.StartEnrollment(ctx, checkoutdomain.StartEnrollmentRequest{
		ClassCode: "ws-intro",
		Name:      "Hanako Sato",
		Email:     "hanako@example.com",
	})
	if !errors.Is(err, checkoutdomain.ErrProductNotBookable) {
		t.Fatalf("expected ErrProductNotBookable, got %v", err)
	}
}
