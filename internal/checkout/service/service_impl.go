package service

import (
	"context"
	"strings"

	"github.com/makestudio/printforge/internal/checkout/domain"
	"github.com/makestudio/printforge/internal/config"
	coupondomain "github.com/makestudio/printforge/internal/coupon/domain"
	customerdomain "github.com/makestudio/printforge/internal/customer/domain"
	orderdomain "github.com/makestudio/printforge/internal/order/domain"
	"github.com/makestudio/printforge/internal/pricing"
	productdomain "github.com/makestudio/printforge/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg         config.Config
	Log         *zap.Logger
	ProductSvc  productdomain.Service
	CustomerSvc customerdomain.Service
	CouponSvc   coupondomain.Service
	OrderSvc    orderdomain.Service
	PricingSvc  *pricing.Service
	Provider    domain.SessionProvider
}

type Service struct {
	cfg         config.Config
	log         *zap.Logger
	productSvc  productdomain.Service
	customerSvc customerdomain.Service
	couponSvc   coupondomain.Service
	orderSvc    orderdomain.Service
	pricingSvc  *pricing.Service
	provider    domain.SessionProvider
}

func New(p Params) domain.Service {
	return &Service{
		cfg:         p.Cfg,
		log:         p.Log.Named("checkout.service"),
		productSvc:  p.ProductSvc,
		customerSvc: p.CustomerSvc,
		couponSvc:   p.CouponSvc,
		orderSvc:    p.OrderSvc,
		pricingSvc:  p.PricingSvc,
		provider:    p.Provider,
	}
}

func (s *Service) StartBooking(ctx context.Context, req domain.StartBookingRequest) (*domain.CheckoutResult, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if req.Participants < 1 {
		return nil, domain.ErrInvalidRequest
	}

	product, err := s.productSvc.FindByCode(ctx, req.ProductCode)
	if err != nil {
		return nil, err
	}
	if !product.Active || product.Kind == productdomain.KindSchoolClass {
		return nil, domain.ErrProductNotBookable
	}

	var gross int64
	switch product.Kind {
	case productdomain.KindPrintItem:
		quote, err := s.pricingSvc.Quote(req.Participants)
		if err != nil {
			return nil, domain.ErrInvalidRequest
		}
		gross = quote.TotalAmount
	default:
		gross = product.UnitAmount * int64(req.Participants)
	}

	return s.start(ctx, startParams{
		kind:         orderdomain.KindBooking,
		mode:         domain.ModePayment,
		product:      product,
		name:         req.Name,
		email:        req.Email,
		participants: req.Participants,
		gross:        gross,
		couponCode:   req.CouponCode,
	})
}

func (s *Service) StartEnrollment(ctx context.Context, req domain.StartEnrollmentRequest) (*domain.CheckoutResult, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		return nil, domain.ErrInvalidRequest
	}

	product, err := s.productSvc.FindByCode(ctx, req.ClassCode)
	if err != nil {
		return nil, err
	}
	if !product.Active || product.Kind != productdomain.KindSchoolClass {
		return nil, domain.ErrProductNotBookable
	}

	return s.start(ctx, startParams{
		kind:         orderdomain.KindEnrollment,
		mode:         domain.ModeSubscription,
		product:      product,
		name:         req.Name,
		email:        req.Email,
		participants: 1,
		gross:        product.UnitAmount,
		couponCode:   req.CouponCode,
	})
}

type startParams struct {
	kind         string
	mode         string
	product      *productdomain.Product
	name         string
	email        string
	participants int
	gross        int64
	couponCode   string
}

func (s *Service) start(ctx context.Context, p startParams) (*domain.CheckoutResult, error) {
	customer, err := s.customerSvc.UpsertByEmail(ctx, p.email, p.name)
	if err != nil {
		return nil, err
	}

	var discount int64
	var coupon *coupondomain.Coupon
	if strings.TrimSpace(p.couponCode) != "" {
		preview, err := s.couponSvc.Preview(ctx, coupondomain.PreviewRequest{
			Code:        p.couponCode,
			Amount:      p.gross,
			ProductCode: p.product.Code,
			CustomerID:  &customer.ID,
		})
		if err != nil {
			return nil, err
		}
		discount = preview.DiscountAmount
		coupon = preview.Coupon
	}

	createReq := orderdomain.CreateOrderRequest{
		Kind:           p.kind,
		ProductID:      p.product.ID,
		CustomerID:     customer.ID,
		Participants:   p.participants,
		GrossAmount:    p.gross,
		DiscountAmount: discount,
	}
	if coupon != nil {
		createReq.CouponID = &coupon.ID
	}

	order, err := s.orderSvc.Create(ctx, createReq)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateSession(ctx, domain.SessionRequest{
		OrderID:        order.ID,
		OrderKind:      order.Kind,
		Reference:      order.Reference,
		Mode:           p.mode,
		ProductTitle:   p.product.Title,
		Amount:         order.NetAmount,
		Currency:       order.Currency,
		CustomerEmail:  customer.Email,
		CouponID:       order.CouponID,
		DiscountAmount: order.DiscountAmount,
	})
	if err != nil {
		s.log.Error("checkout session creation failed",
			zap.Int64("order_id", int64(order.ID)),
			zap.Error(err),
		)
		return nil, domain.ErrSessionFailed
	}

	if err := s.orderSvc.AttachSession(ctx, order.ID, session.ID); err != nil {
		return nil, err
	}

	s.log.Info("checkout session created",
		zap.Int64("order_id", int64(order.ID)),
		zap.String("reference", order.Reference),
		zap.String("session_id", session.ID),
		zap.String("kind", order.Kind),
	)

	return &domain.CheckoutResult{
		OrderID:        order.ID,
		Reference:      order.Reference,
		SessionID:      session.ID,
		CheckoutURL:    session.URL,
		GrossAmount:    order.GrossAmount,
		DiscountAmount: order.DiscountAmount,
		NetAmount:      order.NetAmount,
		Currency:       order.Currency,
	}, nil
}
