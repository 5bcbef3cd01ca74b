package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindByReference(ctx context.Context, db *gorm.DB, reference string) (*Order, error)
	List(ctx context.Context, db *gorm.DB, req ListOrdersRequest) ([]*Order, error)

	SetSessionID(ctx context.Context, db *gorm.DB, id snowflake.ID, sessionID string, now time.Time) error

	// Confirm runs the single conditional UPDATE guarding the terminal states;
	// it returns the rows-affected count as a bool.
	Confirm(ctx context.Context, db *gorm.DB, id snowflake.ID, conf Confirmation, now time.Time) (bool, error)
	Cancel(ctx context.Context, db *gorm.DB, id snowflake.ID, paymentStatus string, now time.Time) (bool, error)

	SetNote(ctx context.Context, db *gorm.DB, id snowflake.ID, note string, now time.Time) error
	SetStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string, now time.Time) error
}
