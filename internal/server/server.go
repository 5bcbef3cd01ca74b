package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/makestudio/printforge/internal/checkout"
	checkoutdomain "github.com/makestudio/printforge/internal/checkout/domain"
	"github.com/makestudio/printforge/internal/config"
	"github.com/makestudio/printforge/internal/coupon"
	coupondomain "github.com/makestudio/printforge/internal/coupon/domain"
	"github.com/makestudio/printforge/internal/customer"
	customerdomain "github.com/makestudio/printforge/internal/customer/domain"
	"github.com/makestudio/printforge/internal/notification"
	"github.com/makestudio/printforge/internal/observability/metrics"
	"github.com/makestudio/printforge/internal/order"
	orderdomain "github.com/makestudio/printforge/internal/order/domain"
	"github.com/makestudio/printforge/internal/pricing"
	"github.com/makestudio/printforge/internal/product"
	productdomain "github.com/makestudio/printforge/internal/product/domain"
	"github.com/makestudio/printforge/internal/providers/email"
	"github.com/makestudio/printforge/internal/reconciler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	metrics.Module,
	email.Module,
	notification.Module,
	product.Module,
	customer.Module,
	coupon.Module,
	order.Module,
	pricing.Module,
	checkout.Module,
	reconciler.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	genID       *snowflake.Node
	productSvc  productdomain.Service
	customerSvc customerdomain.Service
	couponSvc   coupondomain.Service
	orderSvc    orderdomain.Service
	pricingSvc  *pricing.Service
	checkoutSvc checkoutdomain.Service
	reconciler  *reconciler.Service
	metrics     *metrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	GenID       *snowflake.Node
	ProductSvc  productdomain.Service
	CustomerSvc customerdomain.Service
	CouponSvc   coupondomain.Service
	OrderSvc    orderdomain.Service
	PricingSvc  *pricing.Service
	CheckoutSvc checkoutdomain.Service
	Reconciler  *reconciler.Service
	Metrics     *metrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("server"),
		genID:       p.GenID,
		productSvc:  p.ProductSvc,
		customerSvc: p.CustomerSvc,
		couponSvc:   p.CouponSvc,
		orderSvc:    p.OrderSvc,
		pricingSvc:  p.PricingSvc,
		checkoutSvc: p.CheckoutSvc,
		reconciler:  p.Reconciler,
		metrics:     p.Metrics,
	}

	s.registerAPIRoutes()
	s.registerAdminRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/checkout/bookings", s.HandleStartBooking)
	api.POST("/checkout/enrollments", s.HandleStartEnrollment)
	api.POST("/coupons/validate", s.HandleValidateCoupon)
	api.POST("/payments/webhooks/:provider", s.HandlePaymentWebhook)
	api.GET("/products", s.HandleListProducts)
	api.GET("/pricing/quote", s.HandlePricingQuote)
	api.GET("/orders/:reference", s.HandleGetOrderByReference)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.AdminAuthRequired())

	admin.GET("/coupons", s.HandleAdminListCoupons)
	admin.POST("/coupons", s.HandleAdminCreateCoupon)
	admin.GET("/coupons/:id", s.HandleAdminGetCoupon)
	admin.POST("/coupons/:id/deactivate", s.HandleAdminDeactivateCoupon)

	admin.GET("/orders", s.HandleAdminListOrders)
	admin.GET("/orders/:id", s.HandleAdminGetOrder)
	admin.POST("/orders/:id/status", s.HandleAdminSetOrderStatus)

	admin.GET("/products", s.HandleAdminListProducts)
	admin.POST("/products", s.HandleAdminCreateProduct)
	admin.PATCH("/products/:id", s.HandleAdminUpdateProduct)
	admin.POST("/products/:id/archive", s.HandleAdminArchiveProduct)

	admin.GET("/customers", s.HandleAdminListCustomers)
	admin.GET("/customers/:id", s.HandleAdminGetCustomer)
}

// AdminAuthRequired gates the operator surface on a shared token. An empty
// configured token disables the surface entirely.
func (s *Server) AdminAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := s.cfg.AdminToken
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		provided := c.GetHeader("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}
