package domain

import "time"

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusRecalled Status = "RECALLED"
)

type Product struct {
	ID             int64     `gorm:"primaryKey"`
	BatchID        int64     `gorm:"not null;index"`
	Name           string    `gorm:"type:text;not null"`
	SKU            string    `gorm:"column:sku;type:text;not null;uniqueIndex"`
	PackagingDate  time.Time `gorm:"not null"`
	ExpiryDate     *time.Time
	RetailLocation *string `gorm:"type:text"`
	Status         Status  `gorm:"type:text;not null;default:ACTIVE"`
	RecallFlag     bool    `gorm:"not null;default:false"`
	RecallReason   *string `gorm:"type:text"`
	RecallDate     *time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (Product) TableName() string { return "products" }
