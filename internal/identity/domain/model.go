package domain

import (
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"gorm.io/datatypes"
)

type Account struct {
	ID          int64          `gorm:"primaryKey"`
	Phone       string         `gorm:"type:text;not null;uniqueIndex"`
	DisplayName string         `gorm:"type:text;not null"`
	Role        actor.Role     `gorm:"type:text;not null"`
	Verified    bool           `gorm:"not null;default:false"`
	Profile     datatypes.JSON `gorm:"type:jsonb"`
	LastLoginAt *time.Time
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (Account) TableName() string { return "accounts" }

// OTPChallenge is one issued code. Only the argon2 hash is stored.
type OTPChallenge struct {
	ID         int64     `gorm:"primaryKey"`
	Phone      string    `gorm:"type:text;not null;index"`
	CodeHash   string    `gorm:"type:text;not null"`
	ExpiresAt  time.Time `gorm:"not null"`
	Attempts   int       `gorm:"not null;default:0"`
	ConsumedAt *time.Time
	CreatedAt  time.Time `gorm:"not null"`
}

func (OTPChallenge) TableName() string { return "otp_challenges" }
