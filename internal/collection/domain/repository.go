package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ListFilter struct {
	SpeciesID     int64
	CooperativeID int64
	CollectorID   int64
	Unbatched     bool
	Limit         int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *CollectionEvent) error
	InsertCompliance(ctx context.Context, db *gorm.DB, compliance *SustainabilityCompliance) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*CollectionEvent, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]CollectionEvent, error)
	FindCompliance(ctx context.Context, db *gorm.DB, eventID int64) (*SustainabilityCompliance, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]CollectionEvent, error)
	UpdateMutable(ctx context.Context, db *gorm.DB, event *CollectionEvent) error
	// AssignBatch links unbatched events to batchID and returns the number linked.
	AssignBatch(ctx context.Context, db *gorm.DB, ids []int64, batchID int64, at time.Time) (int64, error)
	// SumQuantity totals the quantity a collector harvested of a species in [from, to).
	SumQuantity(ctx context.Context, db *gorm.DB, collectorID, speciesID int64, from, to time.Time) (float64, error)
}
