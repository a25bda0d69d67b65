package repository

import (
	"context"
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/analytics/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// batchScope filters batches aliased b by the window and species.
func batchScope(q domain.Query) (string, []any) {
	where := []string{"b.created_at >= ?", "b.created_at < ?"}
	args := []any{q.From, q.To}
	if q.SpeciesID != 0 {
		where = append(where, "b.species_id = ?")
		args = append(args, q.SpeciesID)
	}
	return strings.Join(where, " AND "), args
}

// testScope filters quality tests aliased t by tested_at, lab and batch species.
func testScope(q domain.Query) (string, []any) {
	where := []string{"t.tested_at >= ?", "t.tested_at < ?"}
	args := []any{q.From, q.To}
	if q.LabID != 0 {
		where = append(where, "t.lab_id = ?")
		args = append(args, q.LabID)
	}
	if q.SpeciesID != 0 {
		where = append(where, "t.batch_id IN (SELECT id FROM batches WHERE species_id = ?)")
		args = append(args, q.SpeciesID)
	}
	return strings.Join(where, " AND "), args
}

func (r *repo) StatusCounts(ctx context.Context, db *gorm.DB, q domain.Query) ([]domain.StatusRow, error) {
	where, args := batchScope(q)
	var rows []domain.StatusRow
	err := db.WithContext(ctx).Raw(
		`SELECT b.status AS status, b.recall_flag AS recall_flag, COUNT(*) AS count
		 FROM batches b
		 WHERE `+where+`
		 GROUP BY b.status, b.recall_flag`,
		args...,
	).Scan(&rows).Error
	return rows, err
}

func (r *repo) SpeciesCounts(ctx context.Context, db *gorm.DB, q domain.Query) ([]domain.SpeciesRow, error) {
	where, args := batchScope(q)
	var rows []domain.SpeciesRow
	err := db.WithContext(ctx).Raw(
		`SELECT b.species_id AS species_id,
		        COALESCE(s.botanical_name, '') AS botanical_name,
		        COALESCE(s.common_name, '') AS common_name,
		        COUNT(*) AS count
		 FROM batches b
		 LEFT JOIN species s ON s.id = b.species_id
		 WHERE `+where+`
		 GROUP BY b.species_id, s.botanical_name, s.common_name
		 ORDER BY count DESC, b.species_id ASC`,
		args...,
	).Scan(&rows).Error
	return rows, err
}

func (r *repo) BatchCreatedTimes(ctx context.Context, db *gorm.DB, q domain.Query) ([]domain.TimeRow, error) {
	where, args := batchScope(q)
	var rows []domain.TimeRow
	err := db.WithContext(ctx).Raw(
		`SELECT b.created_at AS created_at FROM batches b WHERE `+where+` ORDER BY b.created_at ASC`,
		args...,
	).Scan(&rows).Error
	return rows, err
}

// TestResultCounts groups tests by type and outcome. A test declared PENDING
// with no measured value is still awaiting the lab and counts as PENDING.
func (r *repo) TestResultCounts(ctx context.Context, db *gorm.DB, q domain.Query) ([]domain.TestResultRow, error) {
	where, args := testScope(q)
	var rows []domain.TestResultRow
	err := db.WithContext(ctx).Raw(
		`SELECT test_type, validation_status, COUNT(*) AS count FROM (
			SELECT t.test_type AS test_type,
				CASE WHEN t.declared_result = 'PENDING' AND t.value IS NULL
					THEN 'PENDING' ELSE t.validation_status END AS validation_status
			FROM quality_tests t
			WHERE `+where+`
		 ) AS outcomes
		 GROUP BY test_type, validation_status
		 ORDER BY test_type ASC`,
		args...,
	).Scan(&rows).Error
	return rows, err
}

func (r *repo) TestTimings(ctx context.Context, db *gorm.DB, q domain.Query) ([]domain.TestTimingRow, error) {
	where, args := testScope(q)
	var rows []domain.TestTimingRow
	err := db.WithContext(ctx).Raw(
		`SELECT t.lab_id AS lab_id, COALESCE(l.name, '') AS lab_name, t.tested_at AS tested_at, t.updated_at AS updated_at
		 FROM quality_tests t
		 LEFT JOIN quality_labs l ON l.id = t.lab_id
		 WHERE `+where+`
		 ORDER BY t.lab_id ASC`,
		args...,
	).Scan(&rows).Error
	return rows, err
}
