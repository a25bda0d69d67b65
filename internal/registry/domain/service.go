package domain

import (
	"context"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
)

type CreateSpeciesRequest struct {
	BotanicalName      string             `json:"botanical_name" validate:"required,max=200"`
	CommonName         string             `json:"common_name" validate:"required,max=200"`
	ConservationStatus ConservationStatus `json:"conservation_status" validate:"required,oneof=LEAST_CONCERN NEAR_THREATENED VULNERABLE ENDANGERED CRITICALLY_ENDANGERED"`
	HarvestSeasons     []SeasonWindow     `json:"harvest_seasons" validate:"dive"`
	AnnualQuotaKg      float64            `json:"annual_quota_kg" validate:"gte=0"`
}

type CreateCooperativeRequest struct {
	Name          string   `json:"name" validate:"required,max=200"`
	LicenseNumber string   `json:"license_number" validate:"required,max=64"`
	Region        string   `json:"region" validate:"required,max=200"`
	ApprovedZones []GeoBox `json:"approved_zones" validate:"dive"`
}

type CreateCollectorRequest struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Phone         *string `json:"phone" validate:"omitempty,e164"`
	LicenseNumber string  `json:"license_number" validate:"required,max=64"`
	CooperativeID string  `json:"cooperative_id" validate:"omitempty,numeric"`
	AccountID     string  `json:"account_id" validate:"omitempty,numeric"`
}

type CreateFacilityRequest struct {
	Name          string   `json:"name" validate:"required,max=200"`
	LicenseNumber string   `json:"license_number" validate:"required,max=64"`
	Location      string   `json:"location" validate:"required,max=500"`
	Capabilities  []string `json:"capabilities" validate:"dive,required,max=100"`
}

type CreateLabRequest struct {
	Name                string `json:"name" validate:"required,max=200"`
	AccreditationNumber string `json:"accreditation_number" validate:"required,max=64"`
	Location            string `json:"location" validate:"required,max=500"`
}

type ListRequest struct {
	Name     string
	PageSize int
}

// Service manages reference records. Every call is authorized for who.
type Service interface {
	CreateSpecies(ctx context.Context, who actor.Actor, req CreateSpeciesRequest) (*Species, error)
	GetSpecies(ctx context.Context, who actor.Actor, id string) (*Species, error)
	ListSpecies(ctx context.Context, who actor.Actor, req ListRequest) ([]*Species, error)

	CreateCooperative(ctx context.Context, who actor.Actor, req CreateCooperativeRequest) (*Cooperative, error)
	GetCooperative(ctx context.Context, who actor.Actor, id string) (*Cooperative, error)
	ListCooperatives(ctx context.Context, who actor.Actor, req ListRequest) ([]*Cooperative, error)

	CreateCollector(ctx context.Context, who actor.Actor, req CreateCollectorRequest) (*Collector, error)
	GetCollector(ctx context.Context, who actor.Actor, id string) (*Collector, error)
	ListCollectors(ctx context.Context, who actor.Actor, req ListRequest) ([]*Collector, error)

	CreateFacility(ctx context.Context, who actor.Actor, req CreateFacilityRequest) (*ProcessingFacility, error)
	GetFacility(ctx context.Context, who actor.Actor, id string) (*ProcessingFacility, error)
	ListFacilities(ctx context.Context, who actor.Actor, req ListRequest) ([]*ProcessingFacility, error)

	CreateLab(ctx context.Context, who actor.Actor, req CreateLabRequest) (*QualityLab, error)
	GetLab(ctx context.Context, who actor.Actor, id string) (*QualityLab, error)
	ListLabs(ctx context.Context, who actor.Actor, req ListRequest) ([]*QualityLab, error)
}

// Reader resolves references for other domains without an authorization
// check. Missing ids are simply absent from the returned maps.
type Reader interface {
	SpeciesByID(ctx context.Context, id int64) (*Species, error)
	CooperativeByID(ctx context.Context, id int64) (*Cooperative, error)
	CollectorByID(ctx context.Context, id int64) (*Collector, error)
	FacilityByID(ctx context.Context, id int64) (*ProcessingFacility, error)
	LabByID(ctx context.Context, id int64) (*QualityLab, error)

	SpeciesByIDs(ctx context.Context, ids []int64) (map[int64]*Species, error)
	CollectorsByIDs(ctx context.Context, ids []int64) (map[int64]*Collector, error)
	CooperativesByIDs(ctx context.Context, ids []int64) (map[int64]*Cooperative, error)
	FacilitiesByIDs(ctx context.Context, ids []int64) (map[int64]*ProcessingFacility, error)
	LabsByIDs(ctx context.Context, ids []int64) (map[int64]*QualityLab, error)
}

var (
	ErrInvalidID           = apperror.Validation("invalid_id")
	ErrSpeciesNotFound     = apperror.NotFound("species_not_found")
	ErrCooperativeNotFound = apperror.NotFound("cooperative_not_found")
	ErrCollectorNotFound   = apperror.NotFound("collector_not_found")
	ErrFacilityNotFound    = apperror.NotFound("facility_not_found")
	ErrLabNotFound         = apperror.NotFound("lab_not_found")
	ErrSpeciesExists       = apperror.Conflict("species_exists")
	ErrCooperativeExists   = apperror.Conflict("cooperative_exists")
	ErrCollectorExists     = apperror.Conflict("collector_exists")
	ErrFacilityExists      = apperror.Conflict("facility_exists")
	ErrLabExists           = apperror.Conflict("lab_exists")
)
