package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	UpdateName(ctx context.Context, db *gorm.DB, id snowflake.ID, name string) error
	SetProviderCustomerID(ctx context.Context, db *gorm.DB, id snowflake.ID, providerCustomerID string) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Customer, error)
	List(ctx context.Context, db *gorm.DB) ([]*Customer, error)
}
