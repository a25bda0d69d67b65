package domain

import (
	"context"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
)

type Service interface {
	Create(ctx context.Context, who actor.Actor, req CreateRequest) (*Response, error)
	Get(ctx context.Context, who actor.Actor, id string) (*Response, error)
	ListByBatch(ctx context.Context, who actor.Actor, batchID string) ([]Response, error)
}

type CreateRequest struct {
	BatchID        string     `json:"batch_id" validate:"required,numeric"`
	Name           string     `json:"name" validate:"required,max=200"`
	SKU            string     `json:"sku" validate:"required,max=64"`
	PackagingDate  *time.Time `json:"packaging_date"`
	ExpiryDate     *time.Time `json:"expiry_date"`
	RetailLocation *string    `json:"retail_location" validate:"omitempty,max=500"`
}

type Response struct {
	ID             string     `json:"id"`
	BatchID        string     `json:"batch_id"`
	Name           string     `json:"name"`
	SKU            string     `json:"sku"`
	PackagingDate  time.Time  `json:"packaging_date"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
	RetailLocation *string    `json:"retail_location,omitempty"`
	Status         Status     `json:"status"`
	RecallFlag     bool       `json:"recall_flag"`
	RecallReason   *string    `json:"recall_reason,omitempty"`
	RecallDate     *time.Time `json:"recall_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

var (
	ErrInvalidID      = apperror.Validation("invalid_product_id")
	ErrInvalidBatchID = apperror.Validation("invalid_batch_id")
	ErrInvalidExpiry  = apperror.Validation("expiry_before_packaging")
	ErrNotFound       = apperror.NotFound("product_not_found")
	ErrBatchNotFound  = apperror.NotFound("batch_not_found")
	ErrBatchRecalled  = apperror.Conflict("batch_recalled")
	ErrSKUExists      = apperror.Conflict("sku_exists")
)
