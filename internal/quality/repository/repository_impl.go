package repository

import (
	"context"

	"github.com/ayurtrace/ayurtrace/internal/quality/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const testColumns = `id, batch_id, lab_id, test_type, declared_result, value, unit, tested_at, certificate_ref,
	validation_status, validation_notes, critical, submitted_by, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, test *domain.QualityTest) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO quality_tests (`+testColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		test.ID,
		test.BatchID,
		test.LabID,
		test.TestType,
		test.DeclaredResult,
		test.Value,
		test.Unit,
		test.TestedAt,
		test.CertificateRef,
		test.ValidationStatus,
		test.ValidationNotes,
		test.Critical,
		test.SubmittedBy,
		test.CreatedAt,
		test.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.QualityTest, error) {
	if id == 0 {
		return nil, nil
	}
	var tests []domain.QualityTest
	err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&tests).Error
	if err != nil {
		return nil, err
	}
	if len(tests) == 0 {
		return nil, nil
	}
	return &tests[0], nil
}

func (r *repo) UpdateResult(ctx context.Context, db *gorm.DB, test *domain.QualityTest) error {
	return db.WithContext(ctx).Exec(
		`UPDATE quality_tests
		 SET declared_result = ?, value = ?, unit = ?, certificate_ref = ?, validation_status = ?,
		     validation_notes = ?, critical = ?, updated_at = ?
		 WHERE id = ?`,
		test.DeclaredResult,
		test.Value,
		test.Unit,
		test.CertificateRef,
		test.ValidationStatus,
		test.ValidationNotes,
		test.Critical,
		test.UpdatedAt,
		test.ID,
	).Error
}

func (r *repo) ListByBatch(ctx context.Context, db *gorm.DB, batchID int64) ([]domain.QualityTest, error) {
	var tests []domain.QualityTest
	err := db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("tested_at asc, id asc").
		Find(&tests).Error
	if err != nil {
		return nil, err
	}
	return tests, nil
}
