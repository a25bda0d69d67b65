package domain

import (
	"context"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
)

type RecordRequest struct {
	BatchID      string     `json:"batch_id" validate:"required,numeric"`
	FromActorID  string     `json:"from_actor_id" validate:"omitempty,numeric"`
	ToActorID    string     `json:"to_actor_id" validate:"required,numeric"`
	Location     string     `json:"location" validate:"required,max=500"`
	HandedOverAt *time.Time `json:"handed_over_at"`
	Notes        *string    `json:"notes" validate:"omitempty,max=2000"`
}

type Response struct {
	ID           string    `json:"id"`
	BatchID      string    `json:"batch_id"`
	FromActorID  string    `json:"from_actor_id"`
	ToActorID    string    `json:"to_actor_id"`
	Location     string    `json:"location"`
	HandedOverAt time.Time `json:"handed_over_at"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Service interface {
	Record(ctx context.Context, who actor.Actor, req RecordRequest) (*Response, error)
	ListByBatch(ctx context.Context, who actor.Actor, batchID string) ([]Response, error)
}

var (
	ErrInvalidReference = apperror.Validation("invalid_reference_id")
	ErrSameParty        = apperror.Validation("handover_to_self")
)
