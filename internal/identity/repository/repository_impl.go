package repository

import (
	"context"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/identity/domain"
	"gorm.io/gorm"
)

const accountColumns = `id, phone, display_name, role, verified, profile, last_login_at, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertAccount(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.Phone,
		account.DisplayName,
		account.Role,
		account.Verified,
		account.Profile,
		account.LastLoginAt,
		account.CreatedAt,
		account.UpdatedAt,
	).Error
}

func (r *repo) FindAccountByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Account, error) {
	return r.findAccount(ctx, db, `id = ?`, id)
}

func (r *repo) FindAccountByPhone(ctx context.Context, db *gorm.DB, phone string) (*domain.Account, error) {
	return r.findAccount(ctx, db, `phone = ?`, phone)
}

func (r *repo) findAccount(ctx context.Context, db *gorm.DB, where string, arg any) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).Raw(
		`SELECT `+accountColumns+` FROM accounts WHERE `+where+` LIMIT 1`,
		arg,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) MarkLoggedIn(ctx context.Context, db *gorm.DB, id int64, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE accounts SET verified = ?, last_login_at = ?, updated_at = ? WHERE id = ?`,
		true,
		at,
		at,
		id,
	).Error
}

func (r *repo) InsertChallenge(ctx context.Context, db *gorm.DB, challenge *domain.OTPChallenge) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO otp_challenges (id, phone, code_hash, expires_at, attempts, consumed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		challenge.ID,
		challenge.Phone,
		challenge.CodeHash,
		challenge.ExpiresAt,
		challenge.Attempts,
		challenge.ConsumedAt,
		challenge.CreatedAt,
	).Error
}

func (r *repo) LatestChallenge(ctx context.Context, db *gorm.DB, phone string) (*domain.OTPChallenge, error) {
	var challenge domain.OTPChallenge
	err := db.WithContext(ctx).Raw(
		`SELECT id, phone, code_hash, expires_at, attempts, consumed_at, created_at
		 FROM otp_challenges
		 WHERE phone = ? AND consumed_at IS NULL
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		phone,
	).Scan(&challenge).Error
	if err != nil {
		return nil, err
	}
	if challenge.ID == 0 {
		return nil, nil
	}
	return &challenge, nil
}

func (r *repo) ConsumeOpen(ctx context.Context, db *gorm.DB, phone string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE otp_challenges SET consumed_at = ? WHERE phone = ? AND consumed_at IS NULL`,
		at,
		phone,
	).Error
}

func (r *repo) Consume(ctx context.Context, db *gorm.DB, id int64, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE otp_challenges SET consumed_at = ? WHERE id = ? AND consumed_at IS NULL`,
		at,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) IncrementAttempts(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE otp_challenges SET attempts = attempts + 1 WHERE id = ?`,
		id,
	).Error
}
