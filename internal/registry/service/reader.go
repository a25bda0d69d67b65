package service

import (
	"context"

	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/ayurtrace/ayurtrace/internal/registry/domain"
	"github.com/ayurtrace/ayurtrace/pkg/repository"
)

func (s *Service) SpeciesByID(ctx context.Context, id int64) (*domain.Species, error) {
	return getByID(ctx, s.species, id, domain.ErrSpeciesNotFound)
}

func (s *Service) CooperativeByID(ctx context.Context, id int64) (*domain.Cooperative, error) {
	return getByID(ctx, s.cooperatives, id, domain.ErrCooperativeNotFound)
}

func (s *Service) CollectorByID(ctx context.Context, id int64) (*domain.Collector, error) {
	return getByID(ctx, s.collectors, id, domain.ErrCollectorNotFound)
}

func (s *Service) FacilityByID(ctx context.Context, id int64) (*domain.ProcessingFacility, error) {
	return getByID(ctx, s.facilities, id, domain.ErrFacilityNotFound)
}

func (s *Service) LabByID(ctx context.Context, id int64) (*domain.QualityLab, error) {
	return getByID(ctx, s.labs, id, domain.ErrLabNotFound)
}

func (s *Service) SpeciesByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Species, error) {
	return byIDs(ctx, s.species, ids, func(v *domain.Species) int64 { return v.ID })
}

func (s *Service) CollectorsByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Collector, error) {
	return byIDs(ctx, s.collectors, ids, func(v *domain.Collector) int64 { return v.ID })
}

func (s *Service) CooperativesByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Cooperative, error) {
	return byIDs(ctx, s.cooperatives, ids, func(v *domain.Cooperative) int64 { return v.ID })
}

func (s *Service) FacilitiesByIDs(ctx context.Context, ids []int64) (map[int64]*domain.ProcessingFacility, error) {
	return byIDs(ctx, s.facilities, ids, func(v *domain.ProcessingFacility) int64 { return v.ID })
}

func (s *Service) LabsByIDs(ctx context.Context, ids []int64) (map[int64]*domain.QualityLab, error) {
	return byIDs(ctx, s.labs, ids, func(v *domain.QualityLab) int64 { return v.ID })
}

func byIDs[T any](ctx context.Context, store repository.Repository[T], ids []int64, idOf func(*T) int64) (map[int64]*T, error) {
	out := make(map[int64]*T, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	items, err := store.FindByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, apperror.Storage(err)
	}
	for _, item := range items {
		out[idOf(item)] = item
	}
	return out, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
