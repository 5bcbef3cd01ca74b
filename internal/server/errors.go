package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	checkoutdomain "github.com/makestudio/printforge/internal/checkout/domain"
	coupondomain "github.com/makestudio/printforge/internal/coupon/domain"
	customerdomain "github.com/makestudio/printforge/internal/customer/domain"
	orderdomain "github.com/makestudio/printforge/internal/order/domain"
	paymentdomain "github.com/makestudio/printforge/internal/payment/domain"
	"github.com/makestudio/printforge/internal/pricing"
	productdomain "github.com/makestudio/printforge/internal/product/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	// A missing coupon maps to 404 like any other lookup; the remaining
	// rejection kinds are client errors with a specific code.
	if kind := coupondomain.RejectionKind(err); kind != "" && !errors.Is(err, coupondomain.ErrCouponNotFound) {
		return http.StatusBadRequest, errorPayload{
			Type:    "coupon_rejected",
			Code:    kind,
			Message: err.Error(),
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    err.Error(),
			Message: "validation error",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, checkoutdomain.ErrInvalidRequest),
		errors.Is(err, checkoutdomain.ErrProductNotBookable),
		errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, productdomain.ErrInvalidCode),
		errors.Is(err, productdomain.ErrInvalidKind),
		errors.Is(err, productdomain.ErrInvalidTitle),
		errors.Is(err, productdomain.ErrInvalidAmount),
		errors.Is(err, productdomain.ErrCodeExists),
		errors.Is(err, customerdomain.ErrInvalidEmail),
		errors.Is(err, customerdomain.ErrInvalidName),
		errors.Is(err, coupondomain.ErrInvalidAmount),
		errors.Is(err, coupondomain.ErrInvalidCode),
		errors.Is(err, coupondomain.ErrInvalidType),
		errors.Is(err, coupondomain.ErrInvalidValue),
		errors.Is(err, coupondomain.ErrCodeExists),
		errors.Is(err, orderdomain.ErrInvalidKind),
		errors.Is(err, orderdomain.ErrInvalidStatus),
		errors.Is(err, orderdomain.ErrInvalidParticipants),
		errors.Is(err, orderdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrInvalidSignature),
		errors.Is(err, paymentdomain.ErrInvalidPayload),
		errors.Is(err, paymentdomain.ErrInvalidEvent):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, coupondomain.ErrCouponNotFound),
		errors.Is(err, paymentdomain.ErrProviderNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
