package service

import (
	"context"
	"strings"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
	auditdomain "github.com/ayurtrace/ayurtrace/internal/audit/domain"
	"github.com/ayurtrace/ayurtrace/internal/authorization"
	"github.com/ayurtrace/ayurtrace/internal/batch/domain"
	"github.com/ayurtrace/ayurtrace/internal/clock"
	collectiondomain "github.com/ayurtrace/ayurtrace/internal/collection/domain"
	"github.com/ayurtrace/ayurtrace/internal/lock"
	"github.com/ayurtrace/ayurtrace/internal/observability/metrics"
	productdomain "github.com/ayurtrace/ayurtrace/internal/product/domain"
	qrdomain "github.com/ayurtrace/ayurtrace/internal/qrcode/domain"
	registrydomain "github.com/ayurtrace/ayurtrace/internal/registry/domain"
	"github.com/ayurtrace/ayurtrace/internal/validation"
	dbpkg "github.com/ayurtrace/ayurtrace/pkg/db"
	"github.com/ayurtrace/ayurtrace/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// maxCodeAttempts bounds QR code regeneration on a unique-index conflict.
const maxCodeAttempts = 3

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Validate *validator.Validate
	Authz    authorization.Service
	Audit    auditdomain.Service
	Locker   lock.Locker
	Metrics  *metrics.TraceMetrics `optional:"true"`
	Registry registrydomain.Reader
	Events   collectiondomain.Repository
	Products productdomain.Repository
	QrCodes  qrdomain.Repository
	Repo     domain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	validate *validator.Validate
	authz    authorization.Service
	audit    auditdomain.Service
	locker   lock.Locker
	metrics  *metrics.TraceMetrics
	registry registrydomain.Reader
	events   collectiondomain.Repository
	products productdomain.Repository
	qrcodes  qrdomain.Repository
	repo     domain.Repository
}

func New(p Params) *Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("batch.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		validate: p.Validate,
		authz:    p.Authz,
		audit:    p.Audit,
		locker:   p.Locker,
		metrics:  p.Metrics,
		registry: p.Registry,
		events:   p.Events,
		products: p.Products,
		qrcodes:  p.QrCodes,
		repo:     p.Repo,
	}
}

func (s *Service) CreateBatch(ctx context.Context, who actor.Actor, req domain.CreateRequest) (*domain.Response, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectBatch, authorization.ActionBatchCreate); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	speciesID, err := parseRef(req.SpeciesID)
	if err != nil {
		return nil, err
	}
	species, err := s.registry.SpeciesByID(ctx, speciesID)
	if err != nil {
		return nil, err
	}

	eventIDs := make([]int64, 0, len(req.CollectionEventIDs))
	seen := make(map[int64]struct{}, len(req.CollectionEventIDs))
	for _, raw := range req.CollectionEventIDs {
		id, err := parseRef(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		eventIDs = append(eventIDs, id)
	}
	if err := s.checkEvents(ctx, species.ID, eventIDs); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	batch := &domain.Batch{
		ID:                 s.genID.Generate().Int64(),
		SpeciesID:          species.ID,
		CollectionEventIDs: datatypes.JSONSlice[int64](eventIDs),
		ProcessingStepIDs:  datatypes.JSONSlice[int64]{},
		QualityTestIDs:     datatypes.JSONSlice[int64]{},
		Status:             domain.StatusCollected,
		CurrentLocation:    strings.TrimSpace(req.Location),
		CreatedBy:          who.ID.Int64(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	for attempt := 1; ; attempt++ {
		batch.QrCode = qrdomain.NewCode()
		err = s.insertBatch(ctx, batch, eventIDs)
		if err == nil {
			break
		}
		if !dbpkg.IsDuplicateKeyErr(err) {
			return nil, apperror.Storage(err)
		}
		if attempt == maxCodeAttempts {
			return nil, apperror.Wrap(domain.ErrQrCodeExhausted, err)
		}
		s.log.Warn("qr code conflict, regenerating", zap.Int("attempt", attempt))
	}

	s.log.Info("batch created",
		zap.Int64("batch_id", batch.ID),
		zap.Int64("species_id", batch.SpeciesID),
		zap.Int("collection_events", len(eventIDs)),
	)
	resp := toResponse(batch)
	return &resp, nil
}

// checkEvents requires every event to exist, be unbatched and share the
// batch species.
func (s *Service) checkEvents(ctx context.Context, speciesID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	events, err := s.events.FindByIDs(ctx, s.db, ids)
	if err != nil {
		return apperror.Storage(err)
	}
	found := make(map[int64]*collectiondomain.CollectionEvent, len(events))
	for i := range events {
		found[events[i].ID] = &events[i]
	}
	for _, id := range ids {
		event, ok := found[id]
		if !ok {
			return domain.ErrEventNotFound
		}
		if event.SpeciesID != speciesID {
			return domain.ErrSpeciesMismatch
		}
		if event.BatchID != nil {
			return collectiondomain.ErrAlreadyBatched
		}
	}
	return nil
}

func (s *Service) insertBatch(ctx context.Context, batch *domain.Batch, eventIDs []int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, batch); err != nil {
			return err
		}
		code := &qrdomain.QrCode{
			ID:        s.genID.Generate().Int64(),
			Code:      batch.QrCode,
			BatchID:   batch.ID,
			CreatedAt: batch.CreatedAt,
		}
		if err := s.qrcodes.Insert(ctx, tx, code); err != nil {
			return err
		}
		linked, err := s.events.AssignBatch(ctx, tx, eventIDs, batch.ID, batch.CreatedAt)
		if err != nil {
			return err
		}
		if linked != int64(len(eventIDs)) {
			return collectiondomain.ErrAlreadyBatched
		}
		return nil
	})
}

func (s *Service) Get(ctx context.Context, who actor.Actor, id string) (*domain.Response, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectBatch, authorization.ActionView); err != nil {
		return nil, err
	}
	batchID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	batch, err := s.BatchByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(batch)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, who actor.Actor, req domain.ListRequest) (domain.ListResponse, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectBatch, authorization.ActionView); err != nil {
		return domain.ListResponse{}, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return domain.ListResponse{}, err
	}

	limit := req.Pagination.Limit()
	filter := domain.ListFilter{
		RecallFlag:  req.RecallFlag,
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
		Limit:       limit + 1,
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return domain.ListResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if strings.TrimSpace(req.SpeciesID) != "" {
		speciesID, err := parseRef(req.SpeciesID)
		if err != nil {
			return domain.ListResponse{}, err
		}
		filter.SpeciesID = speciesID
	}
	if filter.CreatedFrom != nil && filter.CreatedTo != nil && !filter.CreatedFrom.Before(*filter.CreatedTo) {
		return domain.ListResponse{}, domain.ErrInvalidTimeRange
	}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		after, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		afterID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		filter.AfterCreatedAt = &after
		filter.AfterID = afterID.Int64()
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListResponse{}, apperror.Storage(err)
	}
	items, info := pagination.Page(items, limit, func(b domain.Batch) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        snowflake.ID(b.ID).String(),
			CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		return token
	})

	resp := domain.ListResponse{PageInfo: info, Batches: make([]domain.Response, 0, len(items))}
	for i := range items {
		resp.Batches = append(resp.Batches, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) ListProcessingSteps(ctx context.Context, who actor.Actor, id string) ([]domain.StepResponse, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectBatch, authorization.ActionView); err != nil {
		return nil, err
	}
	batchID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.BatchByID(ctx, batchID); err != nil {
		return nil, err
	}
	steps, err := s.StepsByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.StepResponse, 0, len(steps))
	for i := range steps {
		resp = append(resp, toStepResponse(&steps[i]))
	}
	return resp, nil
}

// mutate runs fn on the row-locked batch inside one transaction while
// holding the per-batch lock.
func (s *Service) mutate(ctx context.Context, batchID int64, fn func(tx *gorm.DB, b *domain.Batch) error) (*domain.Batch, error) {
	unlock, err := s.locker.Lock(ctx, lock.BatchKey(snowflake.ID(batchID)))
	if err != nil {
		return nil, apperror.Storage(err)
	}
	defer unlock()

	var batch *domain.Batch
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.repo.FindByIDForUpdate(ctx, tx, batchID)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.ErrNotFound
		}
		if err := fn(tx, b); err != nil {
			return err
		}
		batch = b
		return nil
	})
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return batch, nil
}

func toResponse(b *domain.Batch) domain.Response {
	return domain.Response{
		ID:                  snowflake.ID(b.ID).String(),
		SpeciesID:           snowflake.ID(b.SpeciesID).String(),
		CollectionEventIDs:  idStrings(b.CollectionEventIDs),
		ProcessingStepIDs:   idStrings(b.ProcessingStepIDs),
		QualityTestIDs:      idStrings(b.QualityTestIDs),
		Status:              b.Status,
		CurrentLocation:     b.CurrentLocation,
		RecallFlag:          b.RecallFlag,
		RecallReason:        b.RecallReason,
		RecallSeverity:      b.RecallSeverity,
		RecallDate:          b.RecallDate,
		QrCode:              b.QrCode,
		ProvenanceBundleURL: b.ProvenanceBundleURL,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}
}

func toStepResponse(step *domain.ProcessingStep) domain.StepResponse {
	resp := domain.StepResponse{
		ID:         snowflake.ID(step.ID).String(),
		BatchID:    snowflake.ID(step.BatchID).String(),
		StepType:   step.StepType,
		Timestamp:  step.Timestamp,
		Conditions: map[string]any(step.Conditions),
		Notes:      step.Notes,
		FacilityID: optionalID(step.FacilityID),
		OperatorID: optionalID(step.OperatorID),
	}
	if resp.Conditions == nil {
		resp.Conditions = map[string]any{}
	}
	return resp
}

func idStrings(ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, snowflake.ID(id).String())
	}
	return out
}

func optionalID(id *int64) *string {
	if id == nil {
		return nil
	}
	v := snowflake.ID(*id).String()
	return &v
}

func parseID(raw string) (int64, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id.Int64(), nil
}

func parseRef(raw string) (int64, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidReference
	}
	return id.Int64(), nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
