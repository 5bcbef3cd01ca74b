package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	coupondomain "github.com/makestudio/printforge/internal/coupon/domain"
)

type validateCouponRequest struct {
	Code        string `json:"code"`
	Amount      int64  `json:"amount"`
	ProductCode string `json:"product_code"`
	CustomerID  string `json:"customer_id,omitempty"`
}

type validateCouponResponse struct {
	Valid          bool                 `json:"valid"`
	ErrorKind      string               `json:"error_kind,omitempty"`
	DiscountAmount int64                `json:"discount_amount,omitempty"`
	FinalAmount    int64                `json:"final_amount,omitempty"`
	Coupon         *coupondomain.Coupon `json:"coupon,omitempty"`
}

// HandleValidateCoupon is a pure preview: it never consumes usage and a
// rejection is a well-formed answer, not a server error.
func (s *Server) HandleValidateCoupon(c *gin.Context) {
	var req validateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	preview := coupondomain.PreviewRequest{
		Code:        req.Code,
		Amount:      req.Amount,
		ProductCode: req.ProductCode,
	}
	if req.CustomerID != "" {
		id, err := snowflake.ParseString(req.CustomerID)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		preview.CustomerID = &id
	}

	discount, err := s.couponSvc.Preview(c.Request.Context(), preview)
	if err != nil {
		if kind := coupondomain.RejectionKind(err); kind != "" {
			c.JSON(http.StatusBadRequest, validateCouponResponse{
				Valid:     false,
				ErrorKind: kind,
			})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, validateCouponResponse{
		Valid:          true,
		DiscountAmount: discount.DiscountAmount,
		FinalAmount:    discount.FinalAmount,
		Coupon:         discount.Coupon,
	})
}

func (s *Server) HandleAdminListCoupons(c *gin.Context) {
	coupons, err := s.couponSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": coupons})
}

func (s *Server) HandleAdminCreateCoupon(c *gin.Context) {
	var req coupondomain.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	coupon, err := s.couponSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, coupon)
}

func (s *Server) HandleAdminGetCoupon(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	coupon, err := s.couponSvc.FindByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, coupon)
}

func (s *Server) HandleAdminDeactivateCoupon(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.couponSvc.Deactivate(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}
