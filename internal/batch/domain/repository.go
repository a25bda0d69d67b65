package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ListFilter struct {
	Status      Status
	SpeciesID   int64
	RecallFlag  *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	// Cursor position; rows strictly after it in (created_at desc, id desc) order.
	AfterCreatedAt *time.Time
	AfterID        int64
	Limit          int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, batch *Batch) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Batch, error)
	// FindByIDForUpdate row-locks the batch for the rest of the transaction.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id int64) (*Batch, error)
	Update(ctx context.Context, db *gorm.DB, batch *Batch) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Batch, error)

	InsertStep(ctx context.Context, db *gorm.DB, step *ProcessingStep) error
	ListSteps(ctx context.Context, db *gorm.DB, batchID int64) ([]ProcessingStep, error)
	CountSteps(ctx context.Context, db *gorm.DB, batchID int64, stepType string) (int64, error)
}
