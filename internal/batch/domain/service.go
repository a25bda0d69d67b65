package domain

import (
	"context"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/ayurtrace/ayurtrace/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateRequest struct {
	SpeciesID          string   `json:"species_id" validate:"required,numeric"`
	CollectionEventIDs []string `json:"collection_event_ids" validate:"dive,numeric"`
	Location           string   `json:"location" validate:"max=500"`
}

type UpdateStatusRequest struct {
	Status   string  `json:"status" validate:"required"`
	Location *string `json:"location" validate:"omitempty,max=500"`
	Notes    *string `json:"notes" validate:"omitempty,max=2000"`
}

type AddStepRequest struct {
	StepType   string         `json:"step_type" validate:"required,max=100"`
	Timestamp  *time.Time     `json:"timestamp"`
	Conditions map[string]any `json:"conditions"`
	Notes      *string        `json:"notes" validate:"omitempty,max=2000"`
	FacilityID string         `json:"facility_id" validate:"omitempty,numeric"`
	OperatorID string         `json:"operator_id" validate:"omitempty,numeric"`
}

type RecallRequest struct {
	Reason   string `json:"reason" validate:"required,max=1000"`
	Severity string `json:"severity" validate:"required"`
}

type ListRequest struct {
	pagination.Pagination
	Status      string
	SpeciesID   string
	RecallFlag  *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type Response struct {
	ID                  string     `json:"id"`
	SpeciesID           string     `json:"species_id"`
	CollectionEventIDs  []string   `json:"collection_event_ids"`
	ProcessingStepIDs   []string   `json:"processing_step_ids"`
	QualityTestIDs      []string   `json:"quality_test_ids"`
	Status              Status     `json:"status"`
	CurrentLocation     string     `json:"current_location"`
	RecallFlag          bool       `json:"recall_flag"`
	RecallReason        *string    `json:"recall_reason,omitempty"`
	RecallSeverity      *Severity  `json:"recall_severity,omitempty"`
	RecallDate          *time.Time `json:"recall_date,omitempty"`
	QrCode              string     `json:"qr_code"`
	ProvenanceBundleURL *string    `json:"provenance_bundle_url,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type ListResponse struct {
	pagination.PageInfo
	Batches []Response `json:"batches"`
}

type StepResponse struct {
	ID         string         `json:"id"`
	BatchID    string         `json:"batch_id"`
	StepType   string         `json:"step_type"`
	Timestamp  time.Time      `json:"timestamp"`
	Conditions map[string]any `json:"conditions"`
	Notes      *string        `json:"notes,omitempty"`
	FacilityID *string        `json:"facility_id,omitempty"`
	OperatorID *string        `json:"operator_id,omitempty"`
}

// Service is the batch lifecycle engine. Every call is authorized for who.
type Service interface {
	CreateBatch(ctx context.Context, who actor.Actor, req CreateRequest) (*Response, error)
	UpdateStatus(ctx context.Context, who actor.Actor, id string, req UpdateStatusRequest) (*Response, error)
	AddProcessingStep(ctx context.Context, who actor.Actor, id string, req AddStepRequest) (*StepResponse, error)
	SetRecallFlag(ctx context.Context, who actor.Actor, id string, req RecallRequest) (*Response, error)
	Get(ctx context.Context, who actor.Actor, id string) (*Response, error)
	List(ctx context.Context, who actor.Actor, req ListRequest) (ListResponse, error)
	ListProcessingSteps(ctx context.Context, who actor.Actor, id string) ([]StepResponse, error)
}

// Reader exposes batches to other domains without an authorization check.
type Reader interface {
	BatchByID(ctx context.Context, id int64) (*Batch, error)
	StepsByBatch(ctx context.Context, id int64) ([]ProcessingStep, error)
}

// QualityOutcome is the validated result of one quality test.
type QualityOutcome struct {
	TestID   int64
	TestType string
	Passed   bool
	Critical bool
	// Append adds TestID to the batch's test list; false on re-validation.
	Append bool
	// Unchanged writes the test without any batch effect.
	Unchanged bool
}

// Lifecycle holds the batch mutations driven by other domains. Each runs
// under the batch lock in one transaction.
type Lifecycle interface {
	// ApplyQualityResult calls write inside the batch transaction, then
	// applies outcome to the batch.
	ApplyQualityResult(ctx context.Context, batchID int64, outcome QualityOutcome, write func(tx *gorm.DB) error) (*Batch, error)
	SetProvenanceBundleURL(ctx context.Context, batchID int64, url string) error
}

var (
	ErrInvalidID        = apperror.Validation("invalid_batch_id")
	ErrInvalidReference = apperror.Validation("invalid_reference_id")
	ErrInvalidStepType  = apperror.Validation("reserved_step_type")
	ErrInvalidSeverity  = apperror.Validation("invalid_recall_severity")
	ErrInvalidPageToken = apperror.Validation("invalid_page_token")
	ErrInvalidTimeRange = apperror.Validation("invalid_time_range")
	ErrInvalidStatus    = apperror.InvalidStatus("unknown_batch_status")
	ErrTransition       = apperror.InvalidStatus("status_transition_not_allowed")
	ErrUseRecall        = apperror.InvalidStatus("recall_requires_recall_operation")
	ErrBatchRecalled    = apperror.InvalidStatus("batch_recalled")
	ErrNotFound         = apperror.NotFound("batch_not_found")
	ErrEventNotFound    = apperror.NotFound("collection_event_not_found")
	ErrSpeciesMismatch  = apperror.Validation("collection_event_species_mismatch")
	ErrQrCodeExhausted  = apperror.Conflict("qr_code_conflict")
)
