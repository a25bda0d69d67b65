package collection

import (
	"github.com/ayurtrace/ayurtrace/internal/collection/repository"
	"github.com/ayurtrace/ayurtrace/internal/collection/service"
	"go.uber.org/fx"
)

var Module = fx.Module("collection.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
