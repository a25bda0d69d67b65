package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
	auditdomain "github.com/ayurtrace/ayurtrace/internal/audit/domain"
	"github.com/ayurtrace/ayurtrace/internal/authorization"
	"github.com/ayurtrace/ayurtrace/internal/batch/domain"
	"github.com/ayurtrace/ayurtrace/internal/validation"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Cascade stages reported by RecallCascadeError.
const (
	stageProducts   = "products"
	stageRecallStep = "recall_step"
	stageBatch      = "batch"
)

type recallResult struct {
	newlyFlagged     bool
	stepAdded        bool
	productsRecalled int64
}

// recallMark describes one recall applied by cascadeRecall. stepType is the
// audit step written at most once per batch; restamp replaces the reason,
// severity and date of an earlier recall.
type recallMark struct {
	reason     string
	severity   domain.Severity
	operatorID *int64
	stepType   string
	restamp    bool
}

// SetRecallFlag recalls the batch and every product packed from it. The
// first call records the caller's reason and severity, even over a recall
// raised by a critical quality failure. Repeating it on a recalled batch
// only completes what is missing.
func (s *Service) SetRecallFlag(ctx context.Context, who actor.Actor, id string, req domain.RecallRequest) (*domain.Response, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectBatch, authorization.ActionBatchRecall); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}
	batchID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	severity, ok := domain.ParseSeverity(req.Severity)
	if !ok {
		return nil, domain.ErrInvalidSeverity
	}
	reason := strings.TrimSpace(req.Reason)

	var result recallResult
	batch, err := s.mutate(ctx, batchID, func(tx *gorm.DB, b *domain.Batch) error {
		first := b.Status != domain.StatusRecalled
		b.Status = domain.StatusRecalled
		var err error
		result, err = s.cascadeRecall(ctx, tx, b, recallMark{
			reason:     reason,
			severity:   severity,
			operatorID: operatorOf(who),
			stepType:   domain.StepRecall,
			restamp:    first,
		})
		return err
	})
	if err != nil {
		s.recordCascadeFailure(batchID, err)
		return nil, err
	}

	if result.stepAdded {
		s.metrics.IncRecall(string(severity))
	}
	s.auditRecall(ctx, who, batch, result)
	resp := toResponse(batch)
	return &resp, nil
}

// cascadeRecall flags b, mirrors the recall onto its products, appends the
// mark's step when none of that type exists and persists b. The caller sets
// b.Status.
func (s *Service) cascadeRecall(ctx context.Context, tx *gorm.DB, b *domain.Batch, mark recallMark) (recallResult, error) {
	var result recallResult
	now := s.clock.Now()
	result.newlyFlagged = !b.RecallFlag
	if !b.RecallFlag || mark.restamp {
		reason, severity := mark.reason, mark.severity
		b.RecallFlag = true
		b.RecallReason = &reason
		b.RecallSeverity = &severity
		b.RecallDate = &now
	}

	n, err := s.products.MarkRecalled(ctx, tx, b.ID, *b.RecallReason, *b.RecallDate, mark.restamp)
	if err != nil {
		return result, &apperror.RecallCascadeError{BatchID: b.ID, Stage: stageProducts, Err: err}
	}
	result.productsRecalled = n

	existing, err := s.repo.CountSteps(ctx, tx, b.ID, mark.stepType)
	if err != nil {
		return result, &apperror.RecallCascadeError{BatchID: b.ID, Stage: stageRecallStep, Err: err}
	}
	if existing == 0 {
		conditions := datatypes.JSONMap{
			"reason":            *b.RecallReason,
			"products_recalled": n,
		}
		if b.RecallSeverity != nil {
			conditions["severity"] = string(*b.RecallSeverity)
		}
		step := &domain.ProcessingStep{
			ID:         s.genID.Generate().Int64(),
			BatchID:    b.ID,
			StepType:   mark.stepType,
			Timestamp:  now,
			Conditions: conditions,
			Notes:      b.RecallReason,
			OperatorID: mark.operatorID,
			CreatedAt:  now,
		}
		if err := s.repo.InsertStep(ctx, tx, step); err != nil {
			return result, &apperror.RecallCascadeError{BatchID: b.ID, Stage: stageRecallStep, Err: err}
		}
		b.ProcessingStepIDs = append(b.ProcessingStepIDs, step.ID)
		result.stepAdded = true
	}

	b.UpdatedAt = now
	if err := s.repo.Update(ctx, tx, b); err != nil {
		return result, &apperror.RecallCascadeError{BatchID: b.ID, Stage: stageBatch, Err: err}
	}
	return result, nil
}

func (s *Service) recordCascadeFailure(batchID int64, err error) {
	var cascade *apperror.RecallCascadeError
	if !errors.As(err, &cascade) {
		return
	}
	s.metrics.IncRecallCascadeError(cascade.Stage)
	s.log.Error("recall cascade failed",
		zap.Int64("batch_id", batchID),
		zap.String("stage", cascade.Stage),
		zap.Error(cascade.Err),
	)
}

func (s *Service) auditRecall(ctx context.Context, who actor.Actor, b *domain.Batch, result recallResult) {
	targetID := snowflake.ID(b.ID).String()
	metadata := map[string]any{
		"reason":            derefString(b.RecallReason),
		"products_recalled": result.productsRecalled,
		"newly_flagged":     result.newlyFlagged,
	}
	if b.RecallSeverity != nil {
		metadata["severity"] = string(*b.RecallSeverity)
	}
	if err := s.audit.AuditLog(ctx, who, auditdomain.ActionBatchRecalled, "batch", &targetID, metadata); err != nil {
		s.log.Warn("failed to write recall audit log", zap.Int64("batch_id", b.ID), zap.Error(err))
	}
	s.log.Info("batch recalled",
		zap.Int64("batch_id", b.ID),
		zap.Int64("products_recalled", result.productsRecalled),
		zap.Time("recall_date", derefTime(b.RecallDate)),
	)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefTime(v *time.Time) time.Time {
	if v == nil {
		return time.Time{}
	}
	return *v
}
