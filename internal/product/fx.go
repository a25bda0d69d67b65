package product

import (
	"github.com/ayurtrace/ayurtrace/internal/product/repository"
	"github.com/ayurtrace/ayurtrace/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
