package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/makestudio/printforge/internal/customer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO customers (id, name, email, provider_customer_id, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.ProviderCustomerID,
		customer.Metadata,
		customer.CreatedAt,
		customer.UpdatedAt,
	).Error
}

func (r *repo) UpdateName(ctx context.Context, db *gorm.DB, id snowflake.ID, name string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE customers SET name = ?, updated_at = ? WHERE id = ?`,
		name,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) SetProviderCustomerID(ctx context.Context, db *gorm.DB, id snowflake.ID, providerCustomerID string) error {
	// Enrichment only: never clobber a value written by an earlier event.
	return db.WithContext(ctx).Exec(
		`UPDATE customers
		 SET provider_customer_id = ?, updated_at = ?
		 WHERE id = ? AND (provider_customer_id IS NULL OR provider_customer_id = '')`,
		providerCustomerID,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, provider_customer_id, metadata, created_at, updated_at
		 FROM customers WHERE id = ?`,
		id,
	).Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, provider_customer_id, metadata, created_at, updated_at
		 FROM customers WHERE email = ?`,
		email,
	).Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	err := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Order("created_at desc, id desc").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}
