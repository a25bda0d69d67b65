package repository

import (
	"context"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/qrcode/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, code *domain.QrCode) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO qr_codes (id, code, batch_id, scan_count, last_scanned_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		code.ID,
		code.Code,
		code.BatchID,
		code.ScanCount,
		code.LastScannedAt,
		code.CreatedAt,
	).Error
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.QrCode, error) {
	return r.findOne(ctx, db, `code = ?`, code)
}

func (r *repo) FindByBatchID(ctx context.Context, db *gorm.DB, batchID int64) (*domain.QrCode, error) {
	return r.findOne(ctx, db, `batch_id = ?`, batchID)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where string, arg any) (*domain.QrCode, error) {
	var code domain.QrCode
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, batch_id, scan_count, last_scanned_at, created_at
		 FROM qr_codes WHERE `+where+` LIMIT 1`,
		arg,
	).Scan(&code).Error
	if err != nil {
		return nil, err
	}
	if code.ID == 0 {
		return nil, nil
	}
	return &code, nil
}

func (r *repo) IncrementScan(ctx context.Context, db *gorm.DB, id int64, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE qr_codes SET scan_count = scan_count + 1, last_scanned_at = ? WHERE id = ?`,
		at,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) InsertScan(ctx context.Context, db *gorm.DB, scan *domain.ConsumerScan) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO consumer_scans (id, qr_code_id, batch_id, scanned_at, location, ip_address, user_agent, account_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		scan.ID,
		scan.QrCodeID,
		scan.BatchID,
		scan.ScannedAt,
		scan.Location,
		scan.IPAddress,
		scan.UserAgent,
		scan.AccountID,
	).Error
}

func (r *repo) CountScans(ctx context.Context, db *gorm.DB, batchID int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM consumer_scans WHERE batch_id = ?`,
		batchID,
	).Scan(&count).Error
	return count, err
}
