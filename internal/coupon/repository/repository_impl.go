package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/makestudio/printforge/internal/coupon/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, coupon *domain.Coupon) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO coupons (
			id, code, discount_type, discount_value, minimum_amount,
			usage_limit, user_limit, valid_from, valid_until, active,
			product_scope, usage_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		coupon.ID,
		coupon.Code,
		coupon.DiscountType,
		coupon.DiscountValue,
		coupon.MinimumAmount,
		coupon.UsageLimit,
		coupon.UserLimit,
		coupon.ValidFrom,
		coupon.ValidUntil,
		coupon.Active,
		coupon.ProductScope,
		coupon.UsageCount,
		coupon.CreatedAt,
		coupon.UpdatedAt,
	).Error
}

func (r *repo) SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE coupons SET active = ?, updated_at = ? WHERE id = ?`,
		active,
		now,
		id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Coupon, error) {
	var coupon domain.Coupon
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, discount_type, discount_value, minimum_amount,
			usage_limit, user_limit, valid_from, valid_until, active,
			product_scope, usage_count, created_at, updated_at
		 FROM coupons WHERE id = ?`,
		id,
	).Scan(&coupon).Error
	if err != nil {
		return nil, err
	}
	if coupon.ID == 0 {
		return nil, nil
	}
	return &coupon, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Coupon, error) {
	var coupon domain.Coupon
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, discount_type, discount_value, minimum_amount,
			usage_limit, user_limit, valid_from, valid_until, active,
			product_scope, usage_count, created_at, updated_at
		 FROM coupons WHERE code = ?`,
		code,
	).Scan(&coupon).Error
	if err != nil {
		return nil, err
	}
	if coupon.ID == 0 {
		return nil, nil
	}
	return &coupon, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.Coupon, error) {
	var coupons []*domain.Coupon
	err := db.WithContext(ctx).
		Model(&domain.Coupon{}).
		Order("created_at desc, id desc").
		Find(&coupons).Error
	if err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *repo) IncrementUsage(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE coupons
		 SET usage_count = usage_count + 1, updated_at = ?
		 WHERE id = ?`,
		now,
		id,
	).Error
}

func (r *repo) InsertUsage(ctx context.Context, db *gorm.DB, usage *domain.CouponUsage) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO coupon_usages (id, coupon_id, order_id, customer_id, discount_amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (order_id) DO NOTHING`,
		usage.ID,
		usage.CouponID,
		usage.OrderID,
		usage.CustomerID,
		usage.DiscountAmount,
		usage.CreatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) CountUsageByCustomer(ctx context.Context, db *gorm.DB, couponID, customerID snowflake.ID) (int, error) {
	var count int
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM coupon_usages WHERE coupon_id = ? AND customer_id = ?`,
		couponID,
		customerID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
