package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, coupon *Coupon) error
	SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool, now time.Time) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Coupon, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Coupon, error)
	List(ctx context.Context, db *gorm.DB) ([]*Coupon, error)

	// IncrementUsage bumps usage_count atomically in SQL; callers must never
	// read-modify-write the counter from application memory.
	IncrementUsage(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error
	InsertUsage(ctx context.Context, db *gorm.DB, usage *CouponUsage) (bool, error)
	CountUsageByCustomer(ctx context.Context, db *gorm.DB, couponID, customerID snowflake.ID) (int, error)
}
