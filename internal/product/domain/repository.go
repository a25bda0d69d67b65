package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Product, error)
	ListByBatch(ctx context.Context, db *gorm.DB, batchID int64) ([]Product, error)
	// MarkRecalled recalls every product of the batch that is not yet
	// recalled and returns how many rows changed. With restamp set, already
	// recalled products take the new reason and date too.
	MarkRecalled(ctx context.Context, db *gorm.DB, batchID int64, reason string, at time.Time, restamp bool) (int64, error)
}
