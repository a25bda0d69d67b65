package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type Status string

const (
	StatusCollected     Status = "COLLECTED"
	StatusInTransit     Status = "IN_TRANSIT"
	StatusProcessing    Status = "PROCESSING"
	StatusQualityCheck  Status = "QUALITY_CHECK"
	StatusPackaged      Status = "PACKAGED"
	StatusShipped       Status = "SHIPPED"
	StatusDelivered     Status = "DELIVERED"
	StatusRecalled      Status = "RECALLED"
	StatusQualityFailed Status = "QUALITY_FAILED"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusCollected,
	StatusInTransit,
	StatusProcessing,
	StatusQualityCheck,
	StatusPackaged,
	StatusShipped,
	StatusDelivered,
	StatusRecalled,
	StatusQualityFailed,
}

func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToUpper(strings.TrimSpace(value)))
	for _, s := range Statuses {
		if s == status {
			return status, true
		}
	}
	return "", false
}

func (s Status) Terminal() bool {
	return s == StatusRecalled
}

// CanTransition reports whether an explicit status update may move a batch
// from s to next. A recalled batch is frozen and RECALLED itself is only
// reached through the recall operation.
func (s Status) CanTransition(next Status) bool {
	return !s.Terminal() && next != StatusRecalled
}

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

func ParseSeverity(value string) (Severity, bool) {
	switch sev := Severity(strings.ToUpper(strings.TrimSpace(value))); sev {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return sev, true
	}
	return "", false
}

// Step types written by the engine itself. Callers cannot log them.
const (
	StepStatusChange  = "STATUS_CHANGE"
	StepRecall        = "RECALL"
	StepQualityRecall = "QUALITY_RECALL"
)

func IsReservedStep(stepType string) bool {
	switch strings.ToUpper(strings.TrimSpace(stepType)) {
	case StepStatusChange, StepRecall, StepQualityRecall:
		return true
	}
	return false
}

type Batch struct {
	ID                  int64                      `gorm:"primaryKey"`
	SpeciesID           int64                      `gorm:"not null;index"`
	CollectionEventIDs  datatypes.JSONSlice[int64] `gorm:"type:jsonb;not null"`
	ProcessingStepIDs   datatypes.JSONSlice[int64] `gorm:"type:jsonb;not null"`
	QualityTestIDs      datatypes.JSONSlice[int64] `gorm:"type:jsonb;not null"`
	Status              Status                     `gorm:"type:text;not null;index"`
	CurrentLocation     string                     `gorm:"type:text;not null;default:''"`
	RecallFlag          bool                       `gorm:"not null;default:false;index"`
	RecallReason        *string                    `gorm:"type:text"`
	RecallSeverity      *Severity                  `gorm:"type:text"`
	RecallDate          *time.Time                 `gorm:"default:null"`
	QrCode              string                     `gorm:"type:text;not null;uniqueIndex"`
	ProvenanceBundleURL *string                    `gorm:"type:text"`
	CreatedBy           int64                      `gorm:"not null"`
	CreatedAt           time.Time                  `gorm:"not null;index"`
	UpdatedAt           time.Time                  `gorm:"not null"`
}

func (Batch) TableName() string { return "batches" }

type ProcessingStep struct {
	ID         int64             `gorm:"primaryKey"`
	BatchID    int64             `gorm:"not null;index"`
	StepType   string            `gorm:"type:text;not null"`
	Timestamp  time.Time         `gorm:"not null;index"`
	Conditions datatypes.JSONMap `gorm:"type:jsonb"`
	Notes      *string           `gorm:"type:text"`
	FacilityID *int64            `gorm:"index"`
	OperatorID *int64            `gorm:"default:null"`
	CreatedAt  time.Time         `gorm:"not null"`
}

func (ProcessingStep) TableName() string { return "processing_steps" }
