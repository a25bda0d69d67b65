package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, code *QrCode) error
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*QrCode, error)
	FindByBatchID(ctx context.Context, db *gorm.DB, batchID int64) (*QrCode, error)
	// IncrementScan bumps the counter in place and reports whether the code exists.
	IncrementScan(ctx context.Context, db *gorm.DB, id int64, at time.Time) (bool, error)
	InsertScan(ctx context.Context, db *gorm.DB, scan *ConsumerScan) error
	CountScans(ctx context.Context, db *gorm.DB, batchID int64) (int64, error)
}
