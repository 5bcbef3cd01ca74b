package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/makestudio/printforge/internal/clock"
	"github.com/makestudio/printforge/internal/order/domain"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
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
		log:   p.Log.Named("order.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	if !domain.ValidKind(req.Kind) {
		return nil, domain.ErrInvalidKind
	}
	if req.Participants < 1 {
		return nil, domain.ErrInvalidParticipants
	}
	if req.Kind == domain.KindEnrollment && req.Participants != 1 {
		return nil, domain.ErrInvalidParticipants
	}
	if req.GrossAmount < 0 || req.DiscountAmount < 0 {
		return nil, domain.ErrInvalidAmount
	}
	net := req.GrossAmount - req.DiscountAmount
	if net < 0 {
		net = 0
	}

	now := s.clock.Now()
	order := &domain.Order{
		ID:             s.genID.Generate(),
		Reference:      ulid.Make().String(),
		Kind:           req.Kind,
		ProductID:      req.ProductID,
		CustomerID:     req.CustomerID,
		Participants:   req.Participants,
		GrossAmount:    req.GrossAmount,
		DiscountAmount: req.DiscountAmount,
		NetAmount:      net,
		Currency:       "jpy",
		CouponID:       req.CouponID,
		Status:         domain.StatusPending,
		PaymentStatus:  domain.PaymentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) FindByID(ctx context.Context, id snowflake.ID) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (s *Service) FindByReference(ctx context.Context, reference string) (*domain.Order, error) {
	order, err := s.repo.FindByReference(ctx, s.db, strings.ToUpper(strings.TrimSpace(reference)))
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, req domain.ListOrdersRequest) ([]*domain.Order, error) {
	return s.repo.List(ctx, s.db, req)
}

func (s *Service) AttachSession(ctx context.Context, id snowflake.ID, sessionID string) error {
	return s.repo.SetSessionID(ctx, s.db, id, sessionID, s.clock.Now())
}

func (s *Service) MarkConfirmed(ctx context.Context, id snowflake.ID, conf domain.Confirmation) (bool, error) {
	transitioned, err := s.repo.Confirm(ctx, s.db, id, conf, s.clock.Now())
	if err != nil {
		return false, err
	}
	if !transitioned {
		s.log.Info("order already terminal, confirm skipped",
			zap.Int64("order_id", int64(id)),
		)
	}
	return transitioned, nil
}

func (s *Service) MarkCancelled(ctx context.Context, id snowflake.ID) (bool, error) {
	return s.repo.Cancel(ctx, s.db, id, domain.PaymentStatusFailed, s.clock.Now())
}

func (s *Service) AppendNote(ctx context.Context, id snowflake.ID, note string) error {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil
	}

	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrNotFound
	}

	if order.Note != "" {
		note = order.Note + "\n" + note
	}
	return s.repo.SetNote(ctx, s.db, id, note, s.clock.Now())
}

func (s *Service) AdminSetStatus(ctx context.Context, id snowflake.ID, status string) (*domain.Order, error) {
	if !domain.ValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}

	if err := s.repo.SetStatus(ctx, s.db, id, status, s.clock.Now()); err != nil {
		return nil, err
	}

	s.log.Info("order status overridden",
		zap.Int64("order_id", int64(id)),
		zap.String("from", order.Status),
		zap.String("to", status),
	)
	return s.repo.FindByID(ctx, s.db, id)
}
