package domain

import (
	"context"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
)

type RecordRequest struct {
	CollectorID             string         `json:"collector_id" validate:"required,numeric"`
	CooperativeID           string         `json:"cooperative_id" validate:"required,numeric"`
	SpeciesID               string         `json:"species_id" validate:"required,numeric"`
	Latitude                *float64       `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude               *float64       `json:"longitude" validate:"required,gte=-180,lte=180"`
	CollectedAt             *time.Time     `json:"collected_at"`
	HarvestMethod           string         `json:"harvest_method" validate:"required,max=100"`
	QuantityKg              float64        `json:"quantity_kg" validate:"gte=0"`
	QualityMetrics          map[string]any `json:"quality_metrics"`
	EnvironmentalConditions map[string]any `json:"environmental_conditions"`
}

// UpdateRequest may repeat the immutable fields only with unchanged values.
type UpdateRequest struct {
	SpeciesID               *string        `json:"species_id"`
	Latitude                *float64       `json:"latitude"`
	Longitude               *float64       `json:"longitude"`
	CollectedAt             *time.Time     `json:"collected_at"`
	HarvestMethod           *string        `json:"harvest_method" validate:"omitempty,min=1,max=100"`
	QuantityKg              *float64       `json:"quantity_kg" validate:"omitempty,gte=0"`
	QualityMetrics          map[string]any `json:"quality_metrics"`
	EnvironmentalConditions map[string]any `json:"environmental_conditions"`
}

type ListRequest struct {
	SpeciesID     string
	CooperativeID string
	CollectorID   string
	Unbatched     bool
	PageSize      int
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ComplianceResponse struct {
	WithinApprovedZone bool     `json:"within_approved_zone"`
	SeasonalWindowMet  bool     `json:"seasonal_window_met"`
	QuotaRespected     bool     `json:"quota_respected"`
	ConservationStatus string   `json:"conservation_status"`
	Compliant          bool     `json:"compliant"`
	Notes              []string `json:"notes"`
}

type Response struct {
	ID                      string              `json:"id"`
	CollectorID             string              `json:"collector_id"`
	CooperativeID           string              `json:"cooperative_id"`
	SpeciesID               string              `json:"species_id"`
	Location                Location            `json:"location"`
	CollectedAt             time.Time           `json:"collected_at"`
	HarvestMethod           string              `json:"harvest_method"`
	QuantityKg              float64             `json:"quantity_kg"`
	QualityMetrics          map[string]any      `json:"quality_metrics"`
	EnvironmentalConditions map[string]any      `json:"environmental_conditions"`
	BatchID                 *string             `json:"batch_id,omitempty"`
	Compliance              *ComplianceResponse `json:"compliance,omitempty"`
	CreatedAt               time.Time           `json:"created_at"`
	UpdatedAt               time.Time           `json:"updated_at"`
}

type Service interface {
	Record(ctx context.Context, who actor.Actor, req RecordRequest) (*Response, error)
	Update(ctx context.Context, who actor.Actor, id string, req UpdateRequest) (*Response, error)
	Get(ctx context.Context, who actor.Actor, id string) (*Response, error)
	List(ctx context.Context, who actor.Actor, req ListRequest) ([]Response, error)
}

var (
	ErrInvalidID          = apperror.Validation("invalid_collection_event_id")
	ErrInvalidReference   = apperror.Validation("invalid_reference_id")
	ErrNotFound           = apperror.NotFound("collection_event_not_found")
	ErrCollectedInFuture  = apperror.Validation("collected_at_in_future")
	ErrCollectorNotMember = apperror.Validation("collector_not_in_cooperative")
	ErrAlreadyBatched     = apperror.Conflict("collection_event_already_batched")
)
