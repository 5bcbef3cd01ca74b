package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type CreateOrderRequest struct {
	Kind           string
	ProductID      snowflake.ID
	CustomerID     snowflake.ID
	Participants   int
	GrossAmount    int64
	DiscountAmount int64
	CouponID       *snowflake.ID
}

type ListOrdersRequest struct {
	Status        string
	PaymentStatus string
	CustomerID    *snowflake.ID
}

type Service interface {
	Create(ctx context.Context, req CreateOrderRequest) (*Order, error)
	FindByID(ctx context.Context, id snowflake.ID) (*Order, error)
	FindByReference(ctx context.Context, reference string) (*Order, error)
	List(ctx context.Context, req ListOrdersRequest) ([]*Order, error)

	AttachSession(ctx context.Context, id snowflake.ID, sessionID string) error

	// MarkConfirmed flips pending/pending to confirmed/paid in one conditional
	// UPDATE and stamps the provider identifiers. The bool reports whether this
	// call performed the transition; false means the order was already
	// terminal and nothing changed.
	MarkConfirmed(ctx context.Context, id snowflake.ID, conf Confirmation) (bool, error)

	// MarkCancelled flips a still-pending order to cancelled/failed, the
	// terminal state for expired sessions and failed payment attempts.
	// Orders already confirmed or cancelled are left untouched.
	MarkCancelled(ctx context.Context, id snowflake.ID) (bool, error)

	AppendNote(ctx context.Context, id snowflake.ID, note string) error

	// AdminSetStatus is the out-of-band operator override. It refuses to touch
	// the monetary snapshot and only rewrites the fulfilment status.
	AdminSetStatus(ctx context.Context, id snowflake.ID, status string) (*Order, error)
}
