package custody

import (
	"github.com/ayurtrace/ayurtrace/internal/custody/domain"
	"github.com/ayurtrace/ayurtrace/internal/custody/service"
	"github.com/ayurtrace/ayurtrace/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("custody.service",
	fx.Provide(repository.ProvideStore[domain.ChainOfCustody]),
	fx.Provide(service.New),
)
