package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type CreateProductRequest struct {
	Code       string `json:"code"`
	Kind       string `json:"kind"`
	Title      string `json:"title"`
	UnitAmount int64  `json:"unit_amount"`
}

type UpdateProductRequest struct {
	Title      *string `json:"title"`
	UnitAmount *int64  `json:"unit_amount"`
	Active     *bool   `json:"active"`
}

type Service interface {
	Create(ctx context.Context, req CreateProductRequest) (*Product, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateProductRequest) (*Product, error)
	Archive(ctx context.Context, id snowflake.ID) error
	FindByID(ctx context.Context, id snowflake.ID) (*Product, error)
	FindByCode(ctx context.Context, code string) (*Product, error)
	List(ctx context.Context, activeOnly bool) ([]*Product, error)
}
