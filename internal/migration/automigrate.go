package migration

import (
	coupondomain "github.com/makestudio/printforge/internal/coupon/domain"
	customerdomain "github.com/makestudio/printforge/internal/customer/domain"
	orderdomain "github.com/makestudio/printforge/internal/order/domain"
	paymentdomain "github.com/makestudio/printforge/internal/payment/domain"
	productdomain "github.com/makestudio/printforge/internal/product/domain"
	"gorm.io/gorm"
)

func autoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&productdomain.Product{},
		&customerdomain.Customer{},
		&coupondomain.Coupon{},
		&coupondomain.CouponUsage{},
		&orderdomain.Order{},
		&paymentdomain.WebhookEvent{},
	)
}
