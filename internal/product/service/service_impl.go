package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/ayurtrace/ayurtrace/internal/authorization"
	batchdomain "github.com/ayurtrace/ayurtrace/internal/batch/domain"
	"github.com/ayurtrace/ayurtrace/internal/clock"
	"github.com/ayurtrace/ayurtrace/internal/product/domain"
	"github.com/ayurtrace/ayurtrace/internal/validation"
	"github.com/ayurtrace/ayurtrace/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Validate *validator.Validate
	Authz    authorization.Service
	Batches  batchdomain.Reader
	Repo     domain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	validate *validator.Validate
	authz    authorization.Service
	batches  batchdomain.Reader
	repo     domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("product.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		validate: p.Validate,
		authz:    p.Authz,
		batches:  p.Batches,
		repo:     p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, who actor.Actor, req domain.CreateRequest) (*domain.Response, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectProduct, authorization.ActionProductCreate); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}
	batchID, err := parseBatchID(req.BatchID)
	if err != nil {
		return nil, err
	}

	batch, err := s.batches.BatchByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, batchdomain.ErrNotFound) {
			return nil, domain.ErrBatchNotFound
		}
		return nil, err
	}
	if batch.RecallFlag {
		return nil, domain.ErrBatchRecalled
	}

	now := s.clock.Now()
	packaged := now
	if req.PackagingDate != nil {
		packaged = req.PackagingDate.UTC()
	}
	if req.ExpiryDate != nil && !req.ExpiryDate.After(packaged) {
		return nil, domain.ErrInvalidExpiry
	}

	product := &domain.Product{
		ID:             s.genID.Generate().Int64(),
		BatchID:        batch.ID,
		Name:           strings.TrimSpace(req.Name),
		SKU:            strings.ToUpper(strings.TrimSpace(req.SKU)),
		PackagingDate:  packaged,
		ExpiryDate:     req.ExpiryDate,
		RetailLocation: req.RetailLocation,
		Status:         domain.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, s.db, product); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSKUExists
		}
		return nil, apperror.Storage(err)
	}

	s.log.Info("product created",
		zap.Int64("product_id", product.ID),
		zap.Int64("batch_id", product.BatchID),
		zap.String("sku", product.SKU),
	)
	resp := toResponse(product)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, who actor.Actor, id string) (*domain.Response, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectProduct, authorization.ActionView); err != nil {
		return nil, err
	}
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || productID == 0 {
		return nil, domain.ErrInvalidID
	}
	product, err := s.repo.FindByID(ctx, s.db, productID.Int64())
	if err != nil {
		return nil, apperror.Storage(err)
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	resp := toResponse(product)
	return &resp, nil
}

func (s *Service) ListByBatch(ctx context.Context, who actor.Actor, batchID string) ([]domain.Response, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectProduct, authorization.ActionView); err != nil {
		return nil, err
	}
	id, err := parseBatchID(batchID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByBatch(ctx, s.db, id)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func toResponse(p *domain.Product) domain.Response {
	return domain.Response{
		ID:             snowflake.ID(p.ID).String(),
		BatchID:        snowflake.ID(p.BatchID).String(),
		Name:           p.Name,
		SKU:            p.SKU,
		PackagingDate:  p.PackagingDate,
		ExpiryDate:     p.ExpiryDate,
		RetailLocation: p.RetailLocation,
		Status:         p.Status,
		RecallFlag:     p.RecallFlag,
		RecallReason:   p.RecallReason,
		RecallDate:     p.RecallDate,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func parseBatchID(raw string) (int64, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidBatchID
	}
	return id.Int64(), nil
}
