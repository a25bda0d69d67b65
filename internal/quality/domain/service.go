package domain

import (
	"context"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
)

type SubmitRequest struct {
	BatchID        string     `json:"batch_id" validate:"required,numeric"`
	LabID          string     `json:"lab_id" validate:"required,numeric"`
	TestType       string     `json:"test_type" validate:"required"`
	Result         string     `json:"result" validate:"required"`
	Value          *float64   `json:"value"`
	Unit           string     `json:"unit" validate:"max=32"`
	TestedAt       *time.Time `json:"tested_at"`
	CertificateRef *string    `json:"certificate_ref" validate:"omitempty,max=200"`
}

type UpdateResultRequest struct {
	Result         *string  `json:"result"`
	Value          *float64 `json:"value"`
	Unit           *string  `json:"unit" validate:"omitempty,max=32"`
	CertificateRef *string  `json:"certificate_ref" validate:"omitempty,max=200"`
}

type Response struct {
	ID               string    `json:"id"`
	BatchID          string    `json:"batch_id"`
	LabID            string    `json:"lab_id"`
	TestType         TestType  `json:"test_type"`
	Result           Result    `json:"result"`
	Value            *float64  `json:"value,omitempty"`
	Unit             string    `json:"unit"`
	TestedAt         time.Time `json:"tested_at"`
	CertificateRef   *string   `json:"certificate_ref,omitempty"`
	ValidationStatus Result    `json:"validation_status"`
	ValidationNotes  []string  `json:"validation_notes"`
	Critical         bool      `json:"critical"`
	BatchStatus      string    `json:"batch_status,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Service interface {
	Submit(ctx context.Context, who actor.Actor, req SubmitRequest) (*Response, error)
	UpdateResult(ctx context.Context, who actor.Actor, id string, req UpdateResultRequest) (*Response, error)
	Get(ctx context.Context, who actor.Actor, id string) (*Response, error)
	ListByBatch(ctx context.Context, who actor.Actor, batchID string) ([]Response, error)
}

var (
	ErrInvalidID        = apperror.Validation("invalid_quality_test_id")
	ErrInvalidReference = apperror.Validation("invalid_reference_id")
	ErrInvalidTestType  = apperror.Validation("invalid_test_type")
	ErrInvalidResult    = apperror.Validation("invalid_test_result")
	ErrTestedInFuture   = apperror.Validation("tested_at_in_future")
	ErrEmptyUpdate      = apperror.Validation("empty_update")
	ErrNotFound         = apperror.NotFound("quality_test_not_found")
)
