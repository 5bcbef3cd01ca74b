package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	checkoutdomain "github.com/makestudio/printforge/internal/checkout/domain"
	orderdomain "github.com/makestudio/printforge/internal/order/domain"
)

func (s *Server) HandleStartBooking(c *gin.Context) {
	var req checkoutdomain.StartBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.checkoutSvc.StartBooking(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.ObserveCheckoutSession(orderdomain.KindBooking)
	c.JSON(http.StatusCreated, result)
}

func (s *Server) HandleStartEnrollment(c *gin.Context) {
	var req checkoutdomain.StartEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.checkoutSvc.StartEnrollment(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.ObserveCheckoutSession(orderdomain.KindEnrollment)
	c.JSON(http.StatusCreated, result)
}

func (s *Server) HandleGetOrderByReference(c *gin.Context) {
	order, err := s.orderSvc.FindByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Public view: the monetary snapshot and states, nothing operational.
	c.JSON(http.StatusOK, gin.H{
		"reference":       order.Reference,
		"kind":            order.Kind,
		"status":          order.Status,
		"payment_status":  order.PaymentStatus,
		"gross_amount":    order.GrossAmount,
		"discount_amount": order.DiscountAmount,
		"net_amount":      order.NetAmount,
		"currency":        order.Currency,
	})
}
