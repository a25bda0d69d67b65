package domain

import "time"

// ChainOfCustody is one handover of a batch between two accounts.
type ChainOfCustody struct {
	ID           int64     `gorm:"primaryKey"`
	BatchID      int64     `gorm:"not null;index"`
	FromActorID  int64     `gorm:"not null"`
	ToActorID    int64     `gorm:"not null"`
	Location     string    `gorm:"type:text;not null"`
	HandedOverAt time.Time `gorm:"not null"`
	Notes        *string   `gorm:"type:text"`
	RecordedBy   int64     `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (ChainOfCustody) TableName() string { return "chain_of_custody" }
