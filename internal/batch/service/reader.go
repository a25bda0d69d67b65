package service

import (
	"context"

	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/ayurtrace/ayurtrace/internal/batch/domain"
)

func (s *Service) BatchByID(ctx context.Context, id int64) (*domain.Batch, error) {
	batch, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	if batch == nil {
		return nil, domain.ErrNotFound
	}
	return batch, nil
}

// StepsByBatch returns the batch's steps by timestamp, oldest first.
func (s *Service) StepsByBatch(ctx context.Context, id int64) ([]domain.ProcessingStep, error) {
	steps, err := s.repo.ListSteps(ctx, s.db, id)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return steps, nil
}
