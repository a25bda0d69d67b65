package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	InsertAccount(ctx context.Context, db *gorm.DB, account *Account) error
	FindAccountByID(ctx context.Context, db *gorm.DB, id int64) (*Account, error)
	FindAccountByPhone(ctx context.Context, db *gorm.DB, phone string) (*Account, error)
	MarkLoggedIn(ctx context.Context, db *gorm.DB, id int64, at time.Time) error

	InsertChallenge(ctx context.Context, db *gorm.DB, challenge *OTPChallenge) error
	// LatestChallenge returns the newest unconsumed challenge for phone.
	LatestChallenge(ctx context.Context, db *gorm.DB, phone string) (*OTPChallenge, error)
	// ConsumeOpen closes every open challenge for phone.
	ConsumeOpen(ctx context.Context, db *gorm.DB, phone string, at time.Time) error
	// Consume closes one challenge and reports whether it was still open.
	Consume(ctx context.Context, db *gorm.DB, id int64, at time.Time) (bool, error)
	IncrementAttempts(ctx context.Context, db *gorm.DB, id int64) error
}
