package batch

import (
	"github.com/ayurtrace/ayurtrace/internal/batch/domain"
	"github.com/ayurtrace/ayurtrace/internal/batch/repository"
	"github.com/ayurtrace/ayurtrace/internal/batch/service"
	"go.uber.org/fx"
)

var Module = fx.Module("batch.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(
		func(s *service.Service) domain.Service { return s },
		func(s *service.Service) domain.Reader { return s },
		func(s *service.Service) domain.Lifecycle { return s },
	),
)
