package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	DiscountTypePercentage  = "percentage"
	DiscountTypeFixedAmount = "fixed_amount"
)

type Coupon struct {
	ID            snowflake.ID   `gorm:"primaryKey" json:"id"`
	Code          string         `gorm:"not null;uniqueIndex" json:"code"`
	DiscountType  string         `gorm:"not null" json:"discount_type"`
	DiscountValue int64          `gorm:"not null" json:"discount_value"`
	MinimumAmount *int64         `json:"minimum_amount,omitempty"`
	UsageLimit    *int           `json:"usage_limit,omitempty"`
	UserLimit     *int           `json:"user_limit,omitempty"`
	ValidFrom     time.Time      `gorm:"not null" json:"valid_from"`
	ValidUntil    *time.Time     `json:"valid_until,omitempty"`
	Active        bool           `gorm:"not null;default:true" json:"active"`
	ProductScope  datatypes.JSON `gorm:"type:jsonb" json:"product_scope,omitempty"`
	UsageCount    int            `gorm:"not null;default:0" json:"usage_count"`
	CreatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Coupon) TableName() string { return "coupons" }

// ScopeCodes decodes the product scope. Empty means the coupon applies to
// every product.
func (c *Coupon) ScopeCodes() []string {
	if len(c.ProductScope) == 0 {
		return nil
	}
	var codes []string
	if err := json.Unmarshal(c.ProductScope, &codes); err != nil {
		return nil
	}
	return codes
}

func (c *Coupon) InScope(productCode string) bool {
	codes := c.ScopeCodes()
	if len(codes) == 0 {
		return true
	}
	productCode = strings.ToLower(strings.TrimSpace(productCode))
	for _, code := range codes {
		if strings.ToLower(strings.TrimSpace(code)) == productCode {
			return true
		}
	}
	return false
}

// CouponUsage is an append-only fact recorded once per confirmed order so
// usage_count can be audited independently of the order rows.
type CouponUsage struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	CouponID       snowflake.ID `gorm:"not null;index" json:"coupon_id"`
	OrderID        snowflake.ID `gorm:"not null;uniqueIndex" json:"order_id"`
	CustomerID     snowflake.ID `gorm:"not null;index" json:"customer_id"`
	DiscountAmount int64        `gorm:"not null" json:"discount_amount"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
}

func (CouponUsage) TableName() string { return "coupon_usages" }

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
