package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// UpsertByEmail resolves or creates the customer for an order intent.
	// An existing customer keeps its identity; the name is refreshed when the
	// caller supplies a non-empty one.
	UpsertByEmail(ctx context.Context, email, name string) (*Customer, error)

	// AttachProviderCustomerID records the payment provider's customer id the
	// first time it becomes known. It never overwrites an existing value.
	AttachProviderCustomerID(ctx context.Context, id snowflake.ID, providerCustomerID string) error

	FindByID(ctx context.Context, id snowflake.ID) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	List(ctx context.Context) ([]*Customer, error)
}
