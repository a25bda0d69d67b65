package domain

import "time"

// QrCode binds one printed code to one batch.
type QrCode struct {
	ID            int64  `gorm:"primaryKey"`
	Code          string `gorm:"type:text;not null;uniqueIndex"`
	BatchID       int64  `gorm:"not null;uniqueIndex"`
	ScanCount     int64  `gorm:"not null;default:0"`
	LastScannedAt *time.Time
	CreatedAt     time.Time `gorm:"not null"`
}

func (QrCode) TableName() string { return "qr_codes" }

type ConsumerScan struct {
	ID        int64     `gorm:"primaryKey"`
	QrCodeID  int64     `gorm:"not null;index"`
	BatchID   int64     `gorm:"not null;index"`
	ScannedAt time.Time `gorm:"not null"`
	Location  *string   `gorm:"type:text"`
	IPAddress *string   `gorm:"type:text"`
	UserAgent *string   `gorm:"type:text"`
	AccountID *int64
}

func (ConsumerScan) TableName() string { return "consumer_scans" }
