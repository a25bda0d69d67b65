package audit

import (
	"github.com/ayurtrace/ayurtrace/internal/audit/repository"
	"github.com/ayurtrace/ayurtrace/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
