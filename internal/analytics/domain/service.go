package domain

import (
	"context"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"gorm.io/gorm"
)

type Request struct {
	Timeframe string `form:"timeframe"`
	SpeciesID string `form:"species_id"`
	LabID     string `form:"lab_id"`
}

type Service interface {
	ComputeAnalytics(ctx context.Context, who actor.Actor, req Request) (*Report, error)
	// ExportAnalyticsXLSX returns the rollups of ComputeAnalytics as a workbook.
	ExportAnalyticsXLSX(ctx context.Context, who actor.Actor, req Request) ([]byte, error)
}

type Repository interface {
	StatusCounts(ctx context.Context, db *gorm.DB, q Query) ([]StatusRow, error)
	SpeciesCounts(ctx context.Context, db *gorm.DB, q Query) ([]SpeciesRow, error)
	BatchCreatedTimes(ctx context.Context, db *gorm.DB, q Query) ([]TimeRow, error)
	TestResultCounts(ctx context.Context, db *gorm.DB, q Query) ([]TestResultRow, error)
	TestTimings(ctx context.Context, db *gorm.DB, q Query) ([]TestTimingRow, error)
}

var (
	ErrInvalidTimeframe = apperror.Validation("invalid_timeframe")
	ErrInvalidFilter    = apperror.Validation("invalid_filter_id")
)
