package service

import (
	"context"
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/authorization"
	"github.com/ayurtrace/ayurtrace/internal/batch/domain"
	"github.com/ayurtrace/ayurtrace/internal/validation"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UpdateStatus moves the batch and records one STATUS_CHANGE step per
// successful call.
func (s *Service) UpdateStatus(ctx context.Context, who actor.Actor, id string, req domain.UpdateStatusRequest) (*domain.Response, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectBatch, authorization.ActionBatchUpdateStatus); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}
	batchID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	next, ok := domain.ParseStatus(req.Status)
	if !ok {
		return nil, domain.ErrInvalidStatus
	}
	if next == domain.StatusRecalled {
		return nil, domain.ErrUseRecall
	}

	var from domain.Status
	batch, err := s.mutate(ctx, batchID, func(tx *gorm.DB, b *domain.Batch) error {
		if b.RecallFlag || b.Status.Terminal() {
			return domain.ErrBatchRecalled
		}
		if !b.Status.CanTransition(next) {
			return domain.ErrTransition
		}

		now := s.clock.Now()
		from = b.Status
		conditions := datatypes.JSONMap{
			"from": string(from),
			"to":   string(next),
		}
		if loc := trimmed(req.Location); loc != nil {
			b.CurrentLocation = *loc
			conditions["location"] = *loc
		}
		step := &domain.ProcessingStep{
			ID:         s.genID.Generate().Int64(),
			BatchID:    b.ID,
			StepType:   domain.StepStatusChange,
			Timestamp:  now,
			Conditions: conditions,
			Notes:      trimmed(req.Notes),
			OperatorID: operatorOf(who),
			CreatedAt:  now,
		}
		if err := s.repo.InsertStep(ctx, tx, step); err != nil {
			return err
		}
		b.Status = next
		b.ProcessingStepIDs = append(b.ProcessingStepIDs, step.ID)
		b.UpdatedAt = now
		return s.repo.Update(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncStatusTransition(string(from), string(next))
	s.log.Info("batch status updated",
		zap.Int64("batch_id", batch.ID),
		zap.String("from", string(from)),
		zap.String("to", string(next)),
	)
	resp := toResponse(batch)
	return &resp, nil
}

func (s *Service) AddProcessingStep(ctx context.Context, who actor.Actor, id string, req domain.AddStepRequest) (*domain.StepResponse, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectBatch, authorization.ActionBatchAddStep); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}
	batchID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	stepType := strings.TrimSpace(req.StepType)
	if domain.IsReservedStep(stepType) {
		return nil, domain.ErrInvalidStepType
	}

	var facilityID, operatorID *int64
	if strings.TrimSpace(req.FacilityID) != "" {
		ref, err := parseRef(req.FacilityID)
		if err != nil {
			return nil, err
		}
		facility, err := s.registry.FacilityByID(ctx, ref)
		if err != nil {
			return nil, err
		}
		facilityID = &facility.ID
	}
	if strings.TrimSpace(req.OperatorID) != "" {
		ref, err := parseRef(req.OperatorID)
		if err != nil {
			return nil, err
		}
		operatorID = &ref
	} else {
		operatorID = operatorOf(who)
	}

	var step *domain.ProcessingStep
	_, err = s.mutate(ctx, batchID, func(tx *gorm.DB, b *domain.Batch) error {
		if b.Status.Terminal() {
			return domain.ErrBatchRecalled
		}
		now := s.clock.Now()
		at := now
		if req.Timestamp != nil {
			at = req.Timestamp.UTC()
		}
		step = &domain.ProcessingStep{
			ID:         s.genID.Generate().Int64(),
			BatchID:    b.ID,
			StepType:   stepType,
			Timestamp:  at,
			Conditions: jsonMap(req.Conditions),
			Notes:      trimmed(req.Notes),
			FacilityID: facilityID,
			OperatorID: operatorID,
			CreatedAt:  now,
		}
		if err := s.repo.InsertStep(ctx, tx, step); err != nil {
			return err
		}
		b.ProcessingStepIDs = append(b.ProcessingStepIDs, step.ID)
		b.UpdatedAt = now
		return s.repo.Update(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncProcessingStep(stepType)
	s.log.Info("processing step added",
		zap.Int64("batch_id", batchID),
		zap.Int64("step_id", step.ID),
		zap.String("step_type", stepType),
	)
	resp := toStepResponse(step)
	return &resp, nil
}

func operatorOf(who actor.Actor) *int64 {
	if who.ID == 0 {
		return nil
	}
	id := who.ID.Int64()
	return &id
}

func jsonMap(in map[string]any) datatypes.JSONMap {
	if in == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(in)
}
