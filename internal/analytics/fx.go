package analytics

import (
	"github.com/ayurtrace/ayurtrace/internal/analytics/repository"
	"github.com/ayurtrace/ayurtrace/internal/analytics/service"
	"go.uber.org/fx"
)

var Module = fx.Module("analytics.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
