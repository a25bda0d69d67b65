package registry

import (
	"github.com/ayurtrace/ayurtrace/internal/registry/domain"
	"github.com/ayurtrace/ayurtrace/internal/registry/service"
	"github.com/ayurtrace/ayurtrace/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("registry.service",
	fx.Provide(
		repository.ProvideStore[domain.Species],
		repository.ProvideStore[domain.Cooperative],
		repository.ProvideStore[domain.Collector],
		repository.ProvideStore[domain.ProcessingFacility],
		repository.ProvideStore[domain.QualityLab],
	),
	fx.Provide(service.NewService),
	fx.Provide(
		func(s *service.Service) domain.Service { return s },
		func(s *service.Service) domain.Reader { return s },
	),
)
