package service

import (
	"context"
	"fmt"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/batch/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ApplyQualityResult records a validated test against the batch. A failure
// moves the batch to QUALITY_FAILED and a critical failure also flags it for
// recall with a QUALITY_RECALL step. A pass returns QUALITY_CHECK, or an
// unrecalled QUALITY_FAILED, to PROCESSING.
func (s *Service) ApplyQualityResult(ctx context.Context, batchID int64, outcome domain.QualityOutcome, write func(tx *gorm.DB) error) (*domain.Batch, error) {
	var (
		from   domain.Status
		result recallResult
	)
	batch, err := s.mutate(ctx, batchID, func(tx *gorm.DB, b *domain.Batch) error {
		if write != nil {
			if err := write(tx); err != nil {
				return err
			}
		}
		from = b.Status
		if outcome.Unchanged {
			return nil
		}
		if outcome.Append {
			b.QualityTestIDs = append(b.QualityTestIDs, outcome.TestID)
		}

		failed := !outcome.Passed
		switch {
		case b.Status.Terminal():
		case failed:
			b.Status = domain.StatusQualityFailed
		case b.Status == domain.StatusQualityCheck:
			b.Status = domain.StatusProcessing
		case b.Status == domain.StatusQualityFailed && !b.RecallFlag:
			b.Status = domain.StatusProcessing
		}

		if failed && outcome.Critical && !b.RecallFlag {
			reason := fmt.Sprintf("critical quality failure: %s", outcome.TestType)
			var err error
			result, err = s.cascadeRecall(ctx, tx, b, recallMark{
				reason:   reason,
				severity: domain.SeverityCritical,
				stepType: domain.StepQualityRecall,
			})
			return err
		}
		b.UpdatedAt = s.clock.Now()
		return s.repo.Update(ctx, tx, b)
	})
	if err != nil {
		s.recordCascadeFailure(batchID, err)
		return nil, err
	}

	if from != batch.Status {
		s.metrics.IncStatusTransition(string(from), string(batch.Status))
	}
	if result.newlyFlagged {
		s.metrics.IncRecall(string(domain.SeverityCritical))
		s.auditRecall(ctx, actor.Actor{}, batch, result)
	}
	s.log.Info("quality result applied",
		zap.Int64("batch_id", batch.ID),
		zap.Int64("quality_test_id", outcome.TestID),
		zap.Bool("passed", outcome.Passed),
		zap.Bool("critical", outcome.Critical),
		zap.String("status", string(batch.Status)),
	)
	return batch, nil
}

func (s *Service) SetProvenanceBundleURL(ctx context.Context, batchID int64, url string) error {
	_, err := s.mutate(ctx, batchID, func(tx *gorm.DB, b *domain.Batch) error {
		b.ProvenanceBundleURL = &url
		b.UpdatedAt = s.clock.Now()
		return s.repo.Update(ctx, tx, b)
	})
	return err
}
