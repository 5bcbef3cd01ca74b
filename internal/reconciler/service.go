package reconciler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/makestudio/printforge/internal/clock"
	"github.com/makestudio/printforge/internal/config"
	coupondomain "github.com/makestudio/printforge/internal/coupon/domain"
	customerdomain "github.com/makestudio/printforge/internal/customer/domain"
	"github.com/makestudio/printforge/internal/notification"
	"github.com/makestudio/printforge/internal/observability/metrics"
	orderdomain "github.com/makestudio/printforge/internal/order/domain"
	"github.com/makestudio/printforge/internal/payment/adapters"
	paymentdomain "github.com/makestudio/printforge/internal/payment/domain"
	productdomain "github.com/makestudio/printforge/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	Adapters        *adapters.Registry
	Repo            paymentdomain.Repository
	OrderSvc        orderdomain.Service
	CouponSvc       coupondomain.Service
	CustomerSvc     customerdomain.Service
	ProductSvc      productdomain.Service
	NotificationSvc *notification.Service
	Metrics         *metrics.Metrics `optional:"true"`
}

// Service turns provider webhook deliveries into order state. Every step is
// written to survive at-least-once delivery: the event record dedupes, the
// order transition is a conditional UPDATE, and the coupon ledger is
// order-unique.
type Service struct {
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	clock           clock.Clock
	adapters        *adapters.Registry
	repo            paymentdomain.Repository
	orderSvc        orderdomain.Service
	couponSvc       coupondomain.Service
	customerSvc     customerdomain.Service
	productSvc      productdomain.Service
	notificationSvc *notification.Service
	metrics         *metrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log.Named("reconciler"),
		genID:           p.GenID,
		clock:           p.Clock,
		adapters:        p.Adapters,
		repo:            p.Repo,
		orderSvc:        p.OrderSvc,
		couponSvc:       p.CouponSvc,
		customerSvc:     p.CustomerSvc,
		productSvc:      p.ProductSvc,
		notificationSvc: p.NotificationSvc,
		metrics:         p.Metrics,
	}
}

func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	adapter, err := s.adapters.NewAdapter(provider, paymentdomain.AdapterConfig{
		Provider:      provider,
		WebhookSecret: s.cfg.Stripe.WebhookSecret,
	})
	if err != nil {
		return err
	}

	if err := adapter.Verify(ctx, payload, headers); err != nil {
		s.metrics.ObserveWebhook(provider, "", "invalid_signature")
		s.log.Warn("webhook signature rejected", zap.String("provider", provider))
		return err
	}

	event, err := adapter.Parse(ctx, payload)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventIgnored) {
			s.metrics.ObserveWebhook(provider, "", "ignored")
			return err
		}
		s.metrics.ObserveWebhook(provider, "", "invalid_payload")
		return err
	}

	log := s.log.With(
		zap.String("provider", event.Provider),
		zap.String("provider_event_id", event.ProviderEventID),
		zap.String("event_type", event.Type),
		zap.Int64("order_id", int64(event.OrderID)),
	)

	inserted, err := s.repo.InsertEvent(ctx, s.db, &paymentdomain.WebhookEvent{
		ID:              s.genID.Generate(),
		Provider:        event.Provider,
		ProviderEventID: event.ProviderEventID,
		EventType:       event.Type,
		OrderID:         &event.OrderID,
		Payload:         datatypes.JSON(event.RawPayload),
		ReceivedAt:      s.clock.Now(),
	})
	if err != nil {
		return err
	}
	if !inserted {
		existing, err := s.repo.FindEvent(ctx, s.db, event.Provider, event.ProviderEventID)
		if err != nil {
			return err
		}
		if existing != nil && existing.ProcessedAt != nil {
			s.metrics.ObserveWebhook(provider, event.Type, "duplicate")
			log.Info("duplicate delivery of processed event")
			return paymentdomain.ErrEventAlreadyProcessed
		}
		// First delivery crashed mid-flight; fall through and reprocess. Every
		// downstream step is idempotent.
		log.Info("reprocessing unfinished event")
	}

	switch event.Type {
	case paymentdomain.EventTypeCheckoutCompleted:
		err = s.handleCompleted(ctx, log, event)
	case paymentdomain.EventTypeCheckoutExpired, paymentdomain.EventTypePaymentFailed:
		err = s.handleCancellation(ctx, log, event)
	default:
		s.metrics.ObserveWebhook(provider, event.Type, "ignored")
		return paymentdomain.ErrEventIgnored
	}
	if err != nil {
		s.metrics.ObserveWebhook(provider, event.Type, "error")
		return err
	}

	if err := s.repo.MarkProcessed(ctx, s.db, event.Provider, event.ProviderEventID, s.clock.Now()); err != nil {
		return err
	}
	s.metrics.ObserveWebhook(provider, event.Type, "processed")
	return nil
}

func (s *Service) handleCompleted(ctx context.Context, log *zap.Logger, event *paymentdomain.CheckoutEvent) error {
	if event.SessionPaymentStatus != "" && event.SessionPaymentStatus != "paid" {
		log.Info("session completed but not yet paid, waiting",
			zap.String("payment_status", event.SessionPaymentStatus),
		)
		return nil
	}

	order, err := s.orderSvc.FindByID(ctx, event.OrderID)
	if err != nil {
		if errors.Is(err, orderdomain.ErrNotFound) {
			log.Warn("event references unknown order, acknowledged")
			return nil
		}
		return err
	}

	transitioned, err := s.orderSvc.MarkConfirmed(ctx, order.ID, orderdomain.Confirmation{
		ProviderPaymentID:      event.ProviderPaymentID,
		ProviderSubscriptionID: event.ProviderSubscriptionID,
	})
	if err != nil {
		return err
	}
	if !transitioned {
		// Already terminal: a duplicate delivery, an expired-then-paid race or
		// an operator override. Nothing else may run.
		return nil
	}

	if order.CouponID != nil && order.DiscountAmount > 0 {
		if err := s.couponSvc.RecordUsage(ctx, *order.CouponID, order.ID, order.CustomerID, order.DiscountAmount); err != nil {
			return err
		}
	}

	if err := s.customerSvc.AttachProviderCustomerID(ctx, order.CustomerID, event.ProviderCustomerID); err != nil {
		log.Warn("attach provider customer id failed", zap.Error(err))
	}

	s.sendConfirmation(ctx, log, order)
	log.Info("order confirmed",
		zap.String("reference", order.Reference),
		zap.Int64("net_amount", order.NetAmount),
	)
	return nil
}

func (s *Service) handleCancellation(ctx context.Context, log *zap.Logger, event *paymentdomain.CheckoutEvent) error {
	_, err := s.orderSvc.FindByID(ctx, event.OrderID)
	if err != nil {
		if errors.Is(err, orderdomain.ErrNotFound) {
			log.Warn("event references unknown order, acknowledged")
			return nil
		}
		return err
	}

	cancelled, err := s.orderSvc.MarkCancelled(ctx, event.OrderID)
	if err != nil {
		return err
	}
	if cancelled {
		log.Info("order cancelled", zap.String("event_type", event.Type))
	}
	return nil
}

// sendConfirmation is best effort: a delivery failure becomes an operational
// note on the order and the webhook still acknowledges.
func (s *Service) sendConfirmation(ctx context.Context, log *zap.Logger, order *orderdomain.Order) {
	customer, err := s.customerSvc.FindByID(ctx, order.CustomerID)
	if err != nil {
		log.Warn("confirmation skipped, customer lookup failed", zap.Error(err))
		return
	}
	product, err := s.productSvc.FindByID(ctx, order.ProductID)
	if err != nil {
		log.Warn("confirmation skipped, product lookup failed", zap.Error(err))
		return
	}

	if err := s.notificationSvc.SendConfirmation(ctx, order, customer, product); err != nil {
		log.Warn("confirmation email failed", zap.Error(err))
		note := fmt.Sprintf("confirmation email failed: %v", err)
		if noteErr := s.orderSvc.AppendNote(ctx, order.ID, note); noteErr != nil {
			log.Error("recording email failure note failed", zap.Error(noteErr))
		}
	}
}
