package repository

import (
	"context"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/collection/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const eventColumns = `id, collector_id, cooperative_id, species_id, latitude, longitude, collected_at,
	harvest_method, quantity_kg, quality_metrics, environmental_conditions, batch_id, recorded_by,
	created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, event *domain.CollectionEvent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO collection_events (`+eventColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.CollectorID,
		event.CooperativeID,
		event.SpeciesID,
		event.Latitude,
		event.Longitude,
		event.CollectedAt,
		event.HarvestMethod,
		event.QuantityKg,
		event.QualityMetrics,
		event.EnvironmentalConditions,
		event.BatchID,
		event.RecordedBy,
		event.CreatedAt,
		event.UpdatedAt,
	).Error
}

func (r *repo) InsertCompliance(ctx context.Context, db *gorm.DB, c *domain.SustainabilityCompliance) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO sustainability_compliances (
			id, collection_event_id, within_approved_zone, seasonal_window_met, quota_respected,
			conservation_status, compliant, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.CollectionEventID,
		c.WithinApprovedZone,
		c.SeasonalWindowMet,
		c.QuotaRespected,
		c.ConservationStatus,
		c.Compliant,
		c.Notes,
		c.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.CollectionEvent, error) {
	var event domain.CollectionEvent
	err := db.WithContext(ctx).Raw(
		`SELECT `+eventColumns+` FROM collection_events WHERE id = ?`,
		id,
	).Scan(&event).Error
	if err != nil {
		return nil, err
	}
	if event.ID == 0 {
		return nil, nil
	}
	return &event, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]domain.CollectionEvent, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []domain.CollectionEvent
	err := db.WithContext(ctx).Raw(
		`SELECT `+eventColumns+` FROM collection_events WHERE id IN ? ORDER BY collected_at ASC, id ASC`,
		ids,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindCompliance(ctx context.Context, db *gorm.DB, eventID int64) (*domain.SustainabilityCompliance, error) {
	var c domain.SustainabilityCompliance
	err := db.WithContext(ctx).Raw(
		`SELECT id, collection_event_id, within_approved_zone, seasonal_window_met, quota_respected,
			conservation_status, compliant, notes, created_at
		 FROM sustainability_compliances WHERE collection_event_id = ?`,
		eventID,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.CollectionEvent, error) {
	var items []domain.CollectionEvent
	stmt := db.WithContext(ctx).Model(&domain.CollectionEvent{})
	if filter.SpeciesID != 0 {
		stmt = stmt.Where("species_id = ?", filter.SpeciesID)
	}
	if filter.CooperativeID != 0 {
		stmt = stmt.Where("cooperative_id = ?", filter.CooperativeID)
	}
	if filter.CollectorID != 0 {
		stmt = stmt.Where("collector_id = ?", filter.CollectorID)
	}
	if filter.Unbatched {
		stmt = stmt.Where("batch_id IS NULL")
	}
	stmt = stmt.Order("collected_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateMutable(ctx context.Context, db *gorm.DB, event *domain.CollectionEvent) error {
	return db.WithContext(ctx).Exec(
		`UPDATE collection_events
		 SET harvest_method = ?, quantity_kg = ?, quality_metrics = ?, environmental_conditions = ?, updated_at = ?
		 WHERE id = ?`,
		event.HarvestMethod,
		event.QuantityKg,
		event.QualityMetrics,
		event.EnvironmentalConditions,
		event.UpdatedAt,
		event.ID,
	).Error
}

func (r *repo) AssignBatch(ctx context.Context, db *gorm.DB, ids []int64, batchID int64, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).Exec(
		`UPDATE collection_events SET batch_id = ?, updated_at = ? WHERE id IN ? AND batch_id IS NULL`,
		batchID,
		at,
		ids,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) SumQuantity(ctx context.Context, db *gorm.DB, collectorID, speciesID int64, from, to time.Time) (float64, error) {
	var total float64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(quantity_kg), 0) FROM collection_events
		 WHERE collector_id = ? AND species_id = ? AND collected_at >= ? AND collected_at < ?`,
		collectorID,
		speciesID,
		from,
		to,
	).Scan(&total).Error
	return total, err
}
