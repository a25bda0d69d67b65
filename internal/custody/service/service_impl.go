package service

import (
	"context"
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/ayurtrace/ayurtrace/internal/authorization"
	batchdomain "github.com/ayurtrace/ayurtrace/internal/batch/domain"
	"github.com/ayurtrace/ayurtrace/internal/clock"
	"github.com/ayurtrace/ayurtrace/internal/custody/domain"
	"github.com/ayurtrace/ayurtrace/internal/validation"
	"github.com/ayurtrace/ayurtrace/pkg/db/option"
	"github.com/ayurtrace/ayurtrace/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Validate *validator.Validate
	Authz    authorization.Service
	Batches  batchdomain.Reader
	Store    repository.Repository[domain.ChainOfCustody]
}

type Service struct {
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	validate *validator.Validate
	authz    authorization.Service
	batches  batchdomain.Reader
	store    repository.Repository[domain.ChainOfCustody]
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("custody.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		validate: p.Validate,
		authz:    p.Authz,
		batches:  p.Batches,
		store:    p.Store,
	}
}

// Record logs a handover. The sender defaults to the caller.
func (s *Service) Record(ctx context.Context, who actor.Actor, req domain.RecordRequest) (*domain.Response, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectCustody, authorization.ActionCustodyCreate); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}
	batchID, err := parseRef(req.BatchID)
	if err != nil {
		return nil, err
	}
	toID, err := parseRef(req.ToActorID)
	if err != nil {
		return nil, err
	}
	fromID := who.ID.Int64()
	if strings.TrimSpace(req.FromActorID) != "" {
		if fromID, err = parseRef(req.FromActorID); err != nil {
			return nil, err
		}
	}
	if fromID == toID {
		return nil, domain.ErrSameParty
	}
	batch, err := s.batches.BatchByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	handedOver := now
	if req.HandedOverAt != nil {
		handedOver = req.HandedOverAt.UTC()
	}
	item := &domain.ChainOfCustody{
		ID:           s.genID.Generate().Int64(),
		BatchID:      batch.ID,
		FromActorID:  fromID,
		ToActorID:    toID,
		Location:     strings.TrimSpace(req.Location),
		HandedOverAt: handedOver,
		Notes:        req.Notes,
		RecordedBy:   who.ID.Int64(),
		CreatedAt:    now,
	}
	if err := s.store.Create(ctx, item); err != nil {
		return nil, apperror.Storage(err)
	}

	s.log.Info("custody handover recorded",
		zap.Int64("batch_id", batch.ID),
		zap.Int64("from_actor_id", fromID),
		zap.Int64("to_actor_id", toID),
	)
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) ListByBatch(ctx context.Context, who actor.Actor, batchID string) ([]domain.Response, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectCustody, authorization.ActionView); err != nil {
		return nil, err
	}
	id, err := parseRef(batchID)
	if err != nil {
		return nil, err
	}
	if _, err := s.batches.BatchByID(ctx, id); err != nil {
		return nil, err
	}
	items, err := s.store.Find(ctx, &domain.ChainOfCustody{BatchID: id},
		option.WithSortBy("handed_over_at asc, id asc"),
	)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(item))
	}
	return resp, nil
}

func toResponse(c *domain.ChainOfCustody) domain.Response {
	return domain.Response{
		ID:           snowflake.ID(c.ID).String(),
		BatchID:      snowflake.ID(c.BatchID).String(),
		FromActorID:  snowflake.ID(c.FromActorID).String(),
		ToActorID:    snowflake.ID(c.ToActorID).String(),
		Location:     c.Location,
		HandedOverAt: c.HandedOverAt,
		Notes:        c.Notes,
		CreatedAt:    c.CreatedAt,
	}
}

func parseRef(raw string) (int64, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidReference
	}
	return id.Int64(), nil
}
