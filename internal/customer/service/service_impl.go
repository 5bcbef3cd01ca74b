package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/makestudio/printforge/internal/customer/domain"
	"github.com/makestudio/printforge/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) UpsertByEmail(ctx context.Context, email, name string) (*domain.Customer, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}
	name = strings.TrimSpace(name)

	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if name != "" && name != existing.Name {
			if err := s.repo.UpdateName(ctx, s.db, existing.ID, name); err != nil {
				return nil, err
			}
			existing.Name = name
		}
		return existing, nil
	}

	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	customer := &domain.Customer{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     email,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, customer); err != nil {
		// Concurrent intent for the same email: fall back to the winner's row.
		if db.IsDuplicateKeyErr(err) {
			return s.repo.FindByEmail(ctx, s.db, email)
		}
		return nil, err
	}
	return customer, nil
}

func (s *Service) AttachProviderCustomerID(ctx context.Context, id snowflake.ID, providerCustomerID string) error {
	providerCustomerID = strings.TrimSpace(providerCustomerID)
	if providerCustomerID == "" {
		return nil
	}
	return s.repo.SetProviderCustomerID(ctx, s.db, id, providerCustomerID)
}

func (s *Service) FindByID(ctx context.Context, id snowflake.ID) (*domain.Customer, error) {
	customer, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	return customer, nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	customer, err := s.repo.FindByEmail(ctx, s.db, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	return customer, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.Customer, error) {
	return s.repo.List(ctx, s.db)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
