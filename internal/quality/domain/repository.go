package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, test *QualityTest) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*QualityTest, error)
	// UpdateResult rewrites the lab result and the derived validation columns.
	UpdateResult(ctx context.Context, db *gorm.DB, test *QualityTest) error
	// ListByBatch returns the batch's tests by tested_at, oldest first.
	ListByBatch(ctx context.Context, db *gorm.DB, batchID int64) ([]QualityTest, error)
}
