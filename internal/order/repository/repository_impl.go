package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/makestudio/printforge/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (
			id, reference, kind, product_id, customer_id, participants,
			gross_amount, discount_amount, net_amount, currency, coupon_id,
			status, payment_status,
			provider_session_id, provider_payment_id, provider_subscription_id,
			note, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.Reference,
		order.Kind,
		order.ProductID,
		order.CustomerID,
		order.Participants,
		order.GrossAmount,
		order.DiscountAmount,
		order.NetAmount,
		order.Currency,
		order.CouponID,
		order.Status,
		order.PaymentStatus,
		order.ProviderSessionID,
		order.ProviderPaymentID,
		order.ProviderSubscriptionID,
		order.Note,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM orders WHERE id = ?`, id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) FindByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM orders WHERE reference = ?`, reference,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, req domain.ListOrdersRequest) ([]*domain.Order, error) {
	q := db.WithContext(ctx).Model(&domain.Order{})
	if req.Status != "" {
		q = q.Where("status = ?", req.Status)
	}
	if req.PaymentStatus != "" {
		q = q.Where("payment_status = ?", req.PaymentStatus)
	}
	if req.CustomerID != nil {
		q = q.Where("customer_id = ?", *req.CustomerID)
	}

	var orders []*domain.Order
	if err := q.Order("created_at desc, id desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) SetSessionID(ctx context.Context, db *gorm.DB, id snowflake.ID, sessionID string, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET provider_session_id = ?, updated_at = ? WHERE id = ?`,
		sessionID, now, id,
	).Error
}

func (r *repo) Confirm(ctx context.Context, db *gorm.DB, id snowflake.ID, conf domain.Confirmation, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET status = ?, payment_status = ?,
		     provider_payment_id = ?, provider_subscription_id = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND payment_status = ?`,
		domain.StatusConfirmed,
		domain.PaymentStatusPaid,
		conf.ProviderPaymentID,
		conf.ProviderSubscriptionID,
		now,
		id,
		domain.StatusPending,
		domain.PaymentStatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Cancel(ctx context.Context, db *gorm.DB, id snowflake.ID, paymentStatus string, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET status = ?, payment_status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusCancelled,
		paymentStatus,
		now,
		id,
		domain.StatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) SetNote(ctx context.Context, db *gorm.DB, id snowflake.ID, note string, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET note = ?, updated_at = ? WHERE id = ?`,
		note, now, id,
	).Error
}

func (r *repo) SetStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		status, now, id,
	).Error
}
