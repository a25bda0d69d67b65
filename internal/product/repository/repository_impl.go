package repository

import (
	"context"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/product/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const productColumns = `id, batch_id, name, sku, packaging_date, expiry_date, retail_location, status,
	recall_flag, recall_reason, recall_date, created_at, updated_at`

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (`+productColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.BatchID,
		product.Name,
		product.SKU,
		product.PackagingDate,
		product.ExpiryDate,
		product.RetailLocation,
		product.Status,
		product.RecallFlag,
		product.RecallReason,
		product.RecallDate,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+` FROM products WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) ListByBatch(ctx context.Context, db *gorm.DB, batchID int64) ([]domain.Product, error) {
	var items []domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+` FROM products WHERE batch_id = ? ORDER BY created_at ASC, id ASC`,
		batchID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MarkRecalled(ctx context.Context, db *gorm.DB, batchID int64, reason string, at time.Time, restamp bool) (int64, error) {
	query := `UPDATE products
		 SET recall_flag = ?, status = ?, recall_reason = ?, recall_date = ?, updated_at = ?
		 WHERE batch_id = ?`
	args := []any{true, domain.StatusRecalled, reason, at, at, batchID}
	if !restamp {
		query += ` AND (recall_flag = ? OR status <> ?)`
		args = append(args, false, domain.StatusRecalled)
	}
	res := db.WithContext(ctx).Exec(query, args...)
	return res.RowsAffected, res.Error
}
