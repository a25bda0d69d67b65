package repository

import (
	"context"

	"github.com/ayurtrace/ayurtrace/internal/batch/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, batch *domain.Batch) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO batches (
			id, species_id, collection_event_ids, processing_step_ids, quality_test_ids, status,
			current_location, recall_flag, recall_reason, recall_severity, recall_date, qr_code,
			provenance_bundle_url, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		batch.ID,
		batch.SpeciesID,
		batch.CollectionEventIDs,
		batch.ProcessingStepIDs,
		batch.QualityTestIDs,
		batch.Status,
		batch.CurrentLocation,
		batch.RecallFlag,
		batch.RecallReason,
		batch.RecallSeverity,
		batch.RecallDate,
		batch.QrCode,
		batch.ProvenanceBundleURL,
		batch.CreatedBy,
		batch.CreatedAt,
		batch.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Batch, error) {
	return r.find(db.WithContext(ctx), id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id int64) (*domain.Batch, error) {
	stmt := db.WithContext(ctx)
	if stmt.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	return r.find(stmt, id)
}

func (r *repo) find(stmt *gorm.DB, id int64) (*domain.Batch, error) {
	if id == 0 {
		return nil, nil
	}
	var batches []domain.Batch
	if err := stmt.Where("id = ?", id).Limit(1).Find(&batches).Error; err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, nil
	}
	return &batches[0], nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, batch *domain.Batch) error {
	return db.WithContext(ctx).Exec(
		`UPDATE batches
		 SET collection_event_ids = ?, processing_step_ids = ?, quality_test_ids = ?, status = ?,
		     current_location = ?, recall_flag = ?, recall_reason = ?, recall_severity = ?, recall_date = ?,
		     provenance_bundle_url = ?, updated_at = ?
		 WHERE id = ?`,
		batch.CollectionEventIDs,
		batch.ProcessingStepIDs,
		batch.QualityTestIDs,
		batch.Status,
		batch.CurrentLocation,
		batch.RecallFlag,
		batch.RecallReason,
		batch.RecallSeverity,
		batch.RecallDate,
		batch.ProvenanceBundleURL,
		batch.UpdatedAt,
		batch.ID,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Batch, error) {
	var items []domain.Batch
	stmt := db.WithContext(ctx).Model(&domain.Batch{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.SpeciesID != 0 {
		stmt = stmt.Where("species_id = ?", filter.SpeciesID)
	}
	if filter.RecallFlag != nil {
		stmt = stmt.Where("recall_flag = ?", *filter.RecallFlag)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at < ?", *filter.CreatedTo)
	}
	if filter.AfterCreatedAt != nil {
		stmt = stmt.Where("(created_at < ? OR (created_at = ? AND id < ?))",
			*filter.AfterCreatedAt, *filter.AfterCreatedAt, filter.AfterID)
	}
	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) InsertStep(ctx context.Context, db *gorm.DB, step *domain.ProcessingStep) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO processing_steps (
			id, batch_id, step_type, timestamp, conditions, notes, facility_id, operator_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		step.ID,
		step.BatchID,
		step.StepType,
		step.Timestamp,
		step.Conditions,
		step.Notes,
		step.FacilityID,
		step.OperatorID,
		step.CreatedAt,
	).Error
}

func (r *repo) ListSteps(ctx context.Context, db *gorm.DB, batchID int64) ([]domain.ProcessingStep, error) {
	var steps []domain.ProcessingStep
	err := db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("timestamp asc, id asc").
		Find(&steps).Error
	if err != nil {
		return nil, err
	}
	return steps, nil
}

func (r *repo) CountSteps(ctx context.Context, db *gorm.DB, batchID int64, stepType string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM processing_steps WHERE batch_id = ? AND step_type = ?`,
		batchID,
		stepType,
	).Scan(&count).Error
	return count, err
}
