package quality

import (
	"github.com/ayurtrace/ayurtrace/internal/quality/repository"
	"github.com/ayurtrace/ayurtrace/internal/quality/service"
	"github.com/ayurtrace/ayurtrace/internal/quality/thresholds"
	"go.uber.org/fx"
)

var Module = fx.Module("quality.service",
	fx.Provide(thresholds.NewHolder),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
