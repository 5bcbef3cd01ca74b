package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/makestudio/printforge/internal/product/domain"
	"github.com/makestudio/printforge/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("product.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	code := normalizeCode(req.Code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}
	if !domain.ValidKind(strings.TrimSpace(req.Kind)) {
		return nil, domain.ErrInvalidKind
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, domain.ErrInvalidTitle
	}
	if req.UnitAmount < 0 {
		return nil, domain.ErrInvalidAmount
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:         s.genID.Generate(),
		Code:       code,
		Kind:       strings.TrimSpace(req.Kind),
		Title:      strings.TrimSpace(req.Title),
		UnitAmount: req.UnitAmount,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Insert(ctx, s.db, product); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrCodeExists
		}
		return nil, err
	}
	return product, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateProductRequest) (*domain.Product, error) {
	product, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		product.Title = title
	}
	if req.UnitAmount != nil {
		if *req.UnitAmount < 0 {
			return nil, domain.ErrInvalidAmount
		}
		product.UnitAmount = *req.UnitAmount
	}
	if req.Active != nil {
		product.Active = *req.Active
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Service) Archive(ctx context.Context, id snowflake.ID) error {
	active := false
	_, err := s.Update(ctx, id, domain.UpdateProductRequest{Active: &active})
	return err
}

func (s *Service) FindByID(ctx context.Context, id snowflake.ID) (*domain.Product, error) {
	product, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

func (s *Service) FindByCode(ctx context.Context, code string) (*domain.Product, error) {
	product, err := s.repo.FindByCode(ctx, s.db, normalizeCode(code))
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]*domain.Product, error) {
	return s.repo.List(ctx, s.db, activeOnly)
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
