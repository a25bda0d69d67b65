package domain

import (
	"time"

	"gorm.io/datatypes"
)

type CollectionEvent struct {
	ID                      int64             `gorm:"primaryKey"`
	CollectorID             int64             `gorm:"not null;index"`
	CooperativeID           int64             `gorm:"not null;index"`
	SpeciesID               int64             `gorm:"not null;index"`
	Latitude                float64           `gorm:"not null"`
	Longitude               float64           `gorm:"not null"`
	CollectedAt             time.Time         `gorm:"not null;index"`
	HarvestMethod           string            `gorm:"type:text;not null"`
	QuantityKg              float64           `gorm:"not null;default:0"`
	QualityMetrics          datatypes.JSONMap `gorm:"type:jsonb"`
	EnvironmentalConditions datatypes.JSONMap `gorm:"type:jsonb"`
	BatchID                 *int64            `gorm:"index"`
	RecordedBy              int64             `gorm:"not null"`
	CreatedAt               time.Time         `gorm:"not null"`
	UpdatedAt               time.Time         `gorm:"not null"`
}

func (CollectionEvent) TableName() string { return "collection_events" }

type SustainabilityCompliance struct {
	ID                 int64                       `gorm:"primaryKey"`
	CollectionEventID  int64                       `gorm:"not null;uniqueIndex"`
	WithinApprovedZone bool                        `gorm:"not null"`
	SeasonalWindowMet  bool                        `gorm:"not null"`
	QuotaRespected     bool                        `gorm:"not null"`
	ConservationStatus string                      `gorm:"type:text;not null"`
	Compliant          bool                        `gorm:"not null"`
	Notes              datatypes.JSONSlice[string] `gorm:"not null"`
	CreatedAt          time.Time                   `gorm:"not null"`
}

func (SustainabilityCompliance) TableName() string { return "sustainability_compliances" }
