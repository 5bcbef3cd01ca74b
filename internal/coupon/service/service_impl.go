package service

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"github.com/makestudio/printforge/internal/clock"
	"github.com/makestudio/printforge/internal/coupon/domain"
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
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("coupon.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCouponRequest) (*domain.Coupon, error) {
	code := domain.NormalizeCode(req.Code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}
	switch req.DiscountType {
	case domain.DiscountTypePercentage:
		if req.DiscountValue < 1 || req.DiscountValue > 100 {
			return nil, domain.ErrInvalidValue
		}
	case domain.DiscountTypeFixedAmount:
		if req.DiscountValue <= 0 {
			return nil, domain.ErrInvalidValue
		}
	default:
		return nil, domain.ErrInvalidType
	}
	if req.MinimumAmount != nil && *req.MinimumAmount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if req.UsageLimit != nil && *req.UsageLimit <= 0 {
		return nil, domain.ErrInvalidValue
	}
	if req.UserLimit != nil && *req.UserLimit <= 0 {
		return nil, domain.ErrInvalidValue
	}

	now := s.clock.Now()
	validFrom := now
	if req.ValidFrom != nil {
		validFrom = req.ValidFrom.UTC()
	}
	if req.ValidUntil != nil && req.ValidUntil.Before(validFrom) {
		return nil, domain.ErrInvalidValue
	}

	var scope datatypes.JSON
	if len(req.ProductScope) > 0 {
		raw, err := json.Marshal(req.ProductScope)
		if err != nil {
			return nil, err
		}
		scope = datatypes.JSON(raw)
	}

	coupon := &domain.Coupon{
		ID:            s.genID.Generate(),
		Code:          code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinimumAmount: req.MinimumAmount,
		UsageLimit:    req.UsageLimit,
		UserLimit:     req.UserLimit,
		ValidFrom:     validFrom,
		ValidUntil:    req.ValidUntil,
		Active:        true,
		ProductScope:  scope,
		UsageCount:    0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, coupon); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrCodeExists
		}
		return nil, err
	}
	return coupon, nil
}

func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) error {
	coupon, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if coupon == nil {
		return domain.ErrCouponNotFound
	}
	return s.repo.SetActive(ctx, s.db, id, false, s.clock.Now())
}

func (s *Service) FindByID(ctx context.Context, id snowflake.ID) (*domain.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, domain.ErrCouponNotFound
	}
	return coupon, nil
}

func (s *Service) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	coupon, err := s.repo.FindByCode(ctx, s.db, domain.NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, domain.ErrCouponNotFound
	}
	return coupon, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.Coupon, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) Preview(ctx context.Context, req domain.PreviewRequest) (*domain.Discount, error) {
	coupon, err := s.repo.FindByCode(ctx, s.db, domain.NormalizeCode(req.Code))
	if err != nil {
		return nil, err
	}

	priorUses := 0
	if coupon != nil && req.CustomerID != nil {
		priorUses, err = s.repo.CountUsageByCustomer(ctx, s.db, coupon.ID, *req.CustomerID)
		if err != nil {
			return nil, err
		}
	}

	return Evaluate(req.Amount, coupon, req.ProductCode, priorUses, s.clock.Now())
}

func (s *Service) RecordUsage(ctx context.Context, couponID, orderID, customerID snowflake.ID, discountAmount int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := s.repo.InsertUsage(ctx, tx, &domain.CouponUsage{
			ID:             s.genID.Generate(),
			CouponID:       couponID,
			OrderID:        orderID,
			CustomerID:     customerID,
			DiscountAmount: discountAmount,
			CreatedAt:      s.clock.Now(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			// Usage already recorded for this order; the counter was bumped on
			// the first insert.
			s.log.Info("coupon usage already recorded",
				zap.Int64("coupon_id", int64(couponID)),
				zap.Int64("order_id", int64(orderID)),
			)
			return nil
		}
		return s.repo.IncrementUsage(ctx, tx, couponID, s.clock.Now())
	})
}

func (s *Service) CountUsageByCustomer(ctx context.Context, couponID, customerID snowflake.ID) (int, error) {
	return s.repo.CountUsageByCustomer(ctx, s.db, couponID, customerID)
}
