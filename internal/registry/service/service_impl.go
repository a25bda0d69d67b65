package service

import (
	"context"
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/ayurtrace/ayurtrace/internal/authorization"
	"github.com/ayurtrace/ayurtrace/internal/clock"
	"github.com/ayurtrace/ayurtrace/internal/registry/domain"
	"github.com/ayurtrace/ayurtrace/internal/validation"
	"github.com/ayurtrace/ayurtrace/pkg/db"
	"github.com/ayurtrace/ayurtrace/pkg/db/option"
	"github.com/ayurtrace/ayurtrace/pkg/db/pagination"
	"github.com/ayurtrace/ayurtrace/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Validate     *validator.Validate
	Authz        authorization.Service
	Species      repository.Repository[domain.Species]
	Cooperatives repository.Repository[domain.Cooperative]
	Collectors   repository.Repository[domain.Collector]
	Facilities   repository.Repository[domain.ProcessingFacility]
	Labs         repository.Repository[domain.QualityLab]
}

type Service struct {
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	validate     *validator.Validate
	authz        authorization.Service
	species      repository.Repository[domain.Species]
	cooperatives repository.Repository[domain.Cooperative]
	collectors   repository.Repository[domain.Collector]
	facilities   repository.Repository[domain.ProcessingFacility]
	labs         repository.Repository[domain.QualityLab]
}

func NewService(p Params) *Service {
	return &Service{
		log:          p.Log.Named("registry.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		validate:     p.Validate,
		authz:        p.Authz,
		species:      p.Species,
		cooperatives: p.Cooperatives,
		collectors:   p.Collectors,
		facilities:   p.Facilities,
		labs:         p.Labs,
	}
}

func (s *Service) CreateSpecies(ctx context.Context, who actor.Actor, req domain.CreateSpeciesRequest) (*domain.Species, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectRegistry, authorization.ActionRegistryCreate); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	botanical := strings.TrimSpace(req.BotanicalName)
	item := &domain.Species{
		ID:                 s.genID.Generate().Int64(),
		BotanicalName:      botanical,
		CommonName:         strings.TrimSpace(req.CommonName),
		Slug:               slug.Make(botanical),
		ConservationStatus: req.ConservationStatus,
		HarvestSeasons:     datatypes.JSONSlice[domain.SeasonWindow](nonNil(req.HarvestSeasons)),
		AnnualQuotaKg:      req.AnnualQuotaKg,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := create(ctx, s.species, item, domain.ErrSpeciesExists); err != nil {
		return nil, err
	}
	s.log.Info("species registered", zap.Int64("species_id", item.ID), zap.String("slug", item.Slug))
	return item, nil
}

func (s *Service) GetSpecies(ctx context.Context, who actor.Actor, id string) (*domain.Species, error) {
	if err := s.authorizeView(ctx, who); err != nil {
		return nil, err
	}
	return getByRawID(ctx, s.species, id, domain.ErrSpeciesNotFound)
}

func (s *Service) ListSpecies(ctx context.Context, who actor.Actor, req domain.ListRequest) ([]*domain.Species, error) {
	if err := s.authorizeView(ctx, who); err != nil {
		return nil, err
	}
	return list(ctx, s.species, "common_name", req)
}

func (s *Service) CreateCooperative(ctx context.Context, who actor.Actor, req domain.CreateCooperativeRequest) (*domain.Cooperative, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectRegistry, authorization.ActionRegistryCreate); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	name := strings.TrimSpace(req.Name)
	item := &domain.Cooperative{
		ID:            s.genID.Generate().Int64(),
		Name:          name,
		Slug:          slug.Make(name),
		LicenseNumber: strings.TrimSpace(req.LicenseNumber),
		Region:        strings.TrimSpace(req.Region),
		ApprovedZones: datatypes.JSONSlice[domain.GeoBox](nonNil(req.ApprovedZones)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := create(ctx, s.cooperatives, item, domain.ErrCooperativeExists); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) GetCooperative(ctx context.Context, who actor.Actor, id string) (*domain.Cooperative, error) {
	if err := s.authorizeView(ctx, who); err != nil {
		return nil, err
	}
	return getByRawID(ctx, s.cooperatives, id, domain.ErrCooperativeNotFound)
}

func (s *Service) ListCooperatives(ctx context.Context, who actor.Actor, req domain.ListRequest) ([]*domain.Cooperative, error) {
	if err := s.authorizeView(ctx, who); err != nil {
		return nil, err
	}
	return list(ctx, s.cooperatives, "name", req)
}

func (s *Service) CreateCollector(ctx context.Context, who actor.Actor, req domain.CreateCollectorRequest) (*domain.Collector, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectRegistry, authorization.ActionRegistryCreate); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	var cooperativeID *int64
	if raw := strings.TrimSpace(req.CooperativeID); raw != "" {
		coop, err := getByRawID(ctx, s.cooperatives, raw, domain.ErrCooperativeNotFound)
		if err != nil {
			return nil, err
		}
		cooperativeID = &coop.ID
	}
	var accountID *int64
	if raw := strings.TrimSpace(req.AccountID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		id := parsed.Int64()
		accountID = &id
	}

	now := s.clock.Now()
	item := &domain.Collector{
		ID:            s.genID.Generate().Int64(),
		Name:          strings.TrimSpace(req.Name),
		Phone:         req.Phone,
		LicenseNumber: strings.TrimSpace(req.LicenseNumber),
		CooperativeID: cooperativeID,
		AccountID:     accountID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := create(ctx, s.collectors, item, domain.ErrCollectorExists); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) GetCollector(ctx context.Context, who actor.Actor, id string) (*domain.Collector, error) {
	if err := s.authorizeView(ctx, who); err != nil {
		return nil, err
	}
	return getByRawID(ctx, s.collectors, id, domain.ErrCollectorNotFound)
}

func (s *Service) ListCollectors(ctx context.Context, who actor.Actor, req domain.ListRequest) ([]*domain.Collector, error) {
	if err := s.authorizeView(ctx, who); err != nil {
		return nil, err
	}
	return list(ctx, s.collectors, "name", req)
}

func (s *Service) CreateFacility(ctx context.Context, who actor.Actor, req domain.CreateFacilityRequest) (*domain.ProcessingFacility, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectRegistry, authorization.ActionRegistryCreate); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	item := &domain.ProcessingFacility{
		ID:            s.genID.Generate().Int64(),
		Name:          strings.TrimSpace(req.Name),
		LicenseNumber: strings.TrimSpace(req.LicenseNumber),
		Location:      strings.TrimSpace(req.Location),
		Capabilities:  datatypes.JSONSlice[string](nonNil(req.Capabilities)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := create(ctx, s.facilities, item, domain.ErrFacilityExists); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) GetFacility(ctx context.Context, who actor.Actor, id string) (*domain.ProcessingFacility, error) {
	if err := s.authorizeView(ctx, who); err != nil {
		return nil, err
	}
	return getByRawID(ctx, s.facilities, id, domain.ErrFacilityNotFound)
}

func (s *Service) ListFacilities(ctx context.Context, who actor.Actor, req domain.ListRequest) ([]*domain.ProcessingFacility, error) {
	if err := s.authorizeView(ctx, who); err != nil {
		return nil, err
	}
	return list(ctx, s.facilities, "name", req)
}

func (s *Service) CreateLab(ctx context.Context, who actor.Actor, req domain.CreateLabRequest) (*domain.QualityLab, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectRegistry, authorization.ActionRegistryCreate); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	item := &domain.QualityLab{
		ID:                  s.genID.Generate().Int64(),
		Name:                strings.TrimSpace(req.Name),
		AccreditationNumber: strings.TrimSpace(req.AccreditationNumber),
		Location:            strings.TrimSpace(req.Location),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := create(ctx, s.labs, item, domain.ErrLabExists); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) GetLab(ctx context.Context, who actor.Actor, id string) (*domain.QualityLab, error) {
	if err := s.authorizeView(ctx, who); err != nil {
		return nil, err
	}
	return getByRawID(ctx, s.labs, id, domain.ErrLabNotFound)
}

func (s *Service) ListLabs(ctx context.Context, who actor.Actor, req domain.ListRequest) ([]*domain.QualityLab, error) {
	if err := s.authorizeView(ctx, who); err != nil {
		return nil, err
	}
	return list(ctx, s.labs, "name", req)
}

func (s *Service) authorizeView(ctx context.Context, who actor.Actor) error {
	return s.authz.Authorize(ctx, who, authorization.ObjectRegistry, authorization.ActionView)
}

func create[T any](ctx context.Context, store repository.Repository[T], item *T, exists error) error {
	if err := store.Create(ctx, item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return exists
		}
		return apperror.Storage(err)
	}
	return nil
}

func getByRawID[T any](ctx context.Context, store repository.Repository[T], raw string, notFound error) (*T, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}
	return getByID(ctx, store, id.Int64(), notFound)
}

func getByID[T any](ctx context.Context, store repository.Repository[T], id int64, notFound error) (*T, error) {
	item, err := store.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	if item == nil {
		return nil, notFound
	}
	return item, nil
}

func list[T any](ctx context.Context, store repository.Repository[T], nameColumn string, req domain.ListRequest) ([]*T, error) {
	opts := []option.QueryOption{
		option.WithSortBy(nameColumn + " asc"),
		option.WithLimit(pagination.Pagination{PageSize: req.PageSize}.Limit()),
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		opts = append(opts, option.WithWhere(nameColumn+" LIKE ?", "%"+name+"%"))
	}
	items, err := store.Find(ctx, nil, opts...)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return items, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
