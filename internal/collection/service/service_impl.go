package service

import (
	"context"
	"strings"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/ayurtrace/ayurtrace/internal/authorization"
	"github.com/ayurtrace/ayurtrace/internal/clock"
	"github.com/ayurtrace/ayurtrace/internal/collection/domain"
	registrydomain "github.com/ayurtrace/ayurtrace/internal/registry/domain"
	"github.com/ayurtrace/ayurtrace/internal/validation"
	"github.com/ayurtrace/ayurtrace/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Harvest timestamps may run slightly ahead of the server clock.
const clockSkew = 5 * time.Minute

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Validate *validator.Validate
	Authz    authorization.Service
	Registry registrydomain.Reader
	Repo     domain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	validate *validator.Validate
	authz    authorization.Service
	registry registrydomain.Reader
	repo     domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("collection.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		validate: p.Validate,
		authz:    p.Authz,
		registry: p.Registry,
		repo:     p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, who actor.Actor, req domain.RecordRequest) (*domain.Response, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectCollectionEvent, authorization.ActionCollectionEventCreate); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	speciesID, err := parseRef(req.SpeciesID)
	if err != nil {
		return nil, err
	}
	cooperativeID, err := parseRef(req.CooperativeID)
	if err != nil {
		return nil, err
	}
	collectorID, err := parseRef(req.CollectorID)
	if err != nil {
		return nil, err
	}

	species, err := s.registry.SpeciesByID(ctx, speciesID)
	if err != nil {
		return nil, err
	}
	cooperative, err := s.registry.CooperativeByID(ctx, cooperativeID)
	if err != nil {
		return nil, err
	}
	collector, err := s.registry.CollectorByID(ctx, collectorID)
	if err != nil {
		return nil, err
	}
	if collector.CooperativeID != nil && *collector.CooperativeID != cooperative.ID {
		return nil, domain.ErrCollectorNotMember
	}

	now := s.clock.Now()
	collectedAt := now
	if req.CollectedAt != nil {
		collectedAt = req.CollectedAt.UTC()
	}
	if collectedAt.After(now.Add(clockSkew)) {
		return nil, domain.ErrCollectedInFuture
	}

	from, to := domain.YearBounds(collectedAt)
	harvested, err := s.repo.SumQuantity(ctx, s.db, collector.ID, species.ID, from, to)
	if err != nil {
		return nil, apperror.Storage(err)
	}

	event := &domain.CollectionEvent{
		ID:                      s.genID.Generate().Int64(),
		CollectorID:             collector.ID,
		CooperativeID:           cooperative.ID,
		SpeciesID:               species.ID,
		Latitude:                *req.Latitude,
		Longitude:               *req.Longitude,
		CollectedAt:             collectedAt,
		HarvestMethod:           strings.TrimSpace(req.HarvestMethod),
		QuantityKg:              req.QuantityKg,
		QualityMetrics:          jsonMap(req.QualityMetrics),
		EnvironmentalConditions: jsonMap(req.EnvironmentalConditions),
		RecordedBy:              who.ID.Int64(),
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	compliance := domain.EvaluateCompliance(domain.ComplianceInput{
		Species:     *species,
		Cooperative: *cooperative,
		Latitude:    event.Latitude,
		Longitude:   event.Longitude,
		CollectedAt: collectedAt,
		QuantityKg:  event.QuantityKg,
		HarvestedKg: harvested,
	})
	compliance.ID = s.genID.Generate().Int64()
	compliance.CollectionEventID = event.ID
	compliance.CreatedAt = now

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, event); err != nil {
			return err
		}
		return s.repo.InsertCompliance(ctx, tx, &compliance)
	})
	if err != nil {
		return nil, apperror.Storage(err)
	}

	s.log.Info("collection event recorded",
		zap.Int64("collection_event_id", event.ID),
		zap.Int64("species_id", species.ID),
		zap.Bool("compliant", compliance.Compliant),
	)
	resp := toResponse(event, &compliance)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, who actor.Actor, id string, req domain.UpdateRequest) (*domain.Response, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectCollectionEvent, authorization.ActionCollectionEventUpdate); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}
	eventID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	event, err := s.find(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := checkImmutable(event, req); err != nil {
		return nil, err
	}

	if req.HarvestMethod != nil {
		event.HarvestMethod = strings.TrimSpace(*req.HarvestMethod)
	}
	if req.QuantityKg != nil {
		event.QuantityKg = *req.QuantityKg
	}
	if req.QualityMetrics != nil {
		event.QualityMetrics = jsonMap(req.QualityMetrics)
	}
	if req.EnvironmentalConditions != nil {
		event.EnvironmentalConditions = jsonMap(req.EnvironmentalConditions)
	}
	event.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateMutable(ctx, s.db, event); err != nil {
		return nil, apperror.Storage(err)
	}
	compliance, err := s.repo.FindCompliance(ctx, s.db, event.ID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	resp := toResponse(event, compliance)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, who actor.Actor, id string) (*domain.Response, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectCollectionEvent, authorization.ActionView); err != nil {
		return nil, err
	}
	eventID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	event, err := s.find(ctx, eventID)
	if err != nil {
		return nil, err
	}
	compliance, err := s.repo.FindCompliance(ctx, s.db, event.ID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	resp := toResponse(event, compliance)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, who actor.Actor, req domain.ListRequest) ([]domain.Response, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectCollectionEvent, authorization.ActionView); err != nil {
		return nil, err
	}
	filter := domain.ListFilter{
		Unbatched: req.Unbatched,
		Limit:     pagination.Pagination{PageSize: req.PageSize}.Limit(),
	}
	var err error
	if filter.SpeciesID, err = parseOptionalID(req.SpeciesID); err != nil {
		return nil, err
	}
	if filter.CooperativeID, err = parseOptionalID(req.CooperativeID); err != nil {
		return nil, err
	}
	if filter.CollectorID, err = parseOptionalID(req.CollectorID); err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i], nil))
	}
	return resp, nil
}

func (s *Service) find(ctx context.Context, id int64) (*domain.CollectionEvent, error) {
	event, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	if event == nil {
		return nil, domain.ErrNotFound
	}
	return event, nil
}

// checkImmutable rejects any attempt to change the location, species or
// harvest time of an event.
func checkImmutable(event *domain.CollectionEvent, req domain.UpdateRequest) error {
	if req.Latitude != nil && *req.Latitude != event.Latitude {
		return validation.Field("latitude", "immutable", "latitude cannot be changed")
	}
	if req.Longitude != nil && *req.Longitude != event.Longitude {
		return validation.Field("longitude", "immutable", "longitude cannot be changed")
	}
	if req.SpeciesID != nil && strings.TrimSpace(*req.SpeciesID) != snowflake.ID(event.SpeciesID).String() {
		return validation.Field("species_id", "immutable", "species cannot be changed")
	}
	if req.CollectedAt != nil && !req.CollectedAt.Equal(event.CollectedAt) {
		return validation.Field("collected_at", "immutable", "collection time cannot be changed")
	}
	return nil
}

func toResponse(e *domain.CollectionEvent, c *domain.SustainabilityCompliance) domain.Response {
	resp := domain.Response{
		ID:                      snowflake.ID(e.ID).String(),
		CollectorID:             snowflake.ID(e.CollectorID).String(),
		CooperativeID:           snowflake.ID(e.CooperativeID).String(),
		SpeciesID:               snowflake.ID(e.SpeciesID).String(),
		Location:                domain.Location{Latitude: e.Latitude, Longitude: e.Longitude},
		CollectedAt:             e.CollectedAt,
		HarvestMethod:           e.HarvestMethod,
		QuantityKg:              e.QuantityKg,
		QualityMetrics:          map[string]any(e.QualityMetrics),
		EnvironmentalConditions: map[string]any(e.EnvironmentalConditions),
		CreatedAt:               e.CreatedAt,
		UpdatedAt:               e.UpdatedAt,
	}
	if resp.QualityMetrics == nil {
		resp.QualityMetrics = map[string]any{}
	}
	if resp.EnvironmentalConditions == nil {
		resp.EnvironmentalConditions = map[string]any{}
	}
	if e.BatchID != nil {
		batchID := snowflake.ID(*e.BatchID).String()
		resp.BatchID = &batchID
	}
	if c != nil {
		notes := []string(c.Notes)
		if notes == nil {
			notes = []string{}
		}
		resp.Compliance = &domain.ComplianceResponse{
			WithinApprovedZone: c.WithinApprovedZone,
			SeasonalWindowMet:  c.SeasonalWindowMet,
			QuotaRespected:     c.QuotaRespected,
			ConservationStatus: c.ConservationStatus,
			Compliant:          c.Compliant,
			Notes:              notes,
		}
	}
	return resp
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

func parseOptionalID(raw string) (int64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	return parseRef(raw)
}

func jsonMap(in map[string]any) datatypes.JSONMap {
	if in == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(in)
}
