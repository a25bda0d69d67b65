package identity

import (
	"github.com/ayurtrace/ayurtrace/internal/identity/domain"
	"github.com/ayurtrace/ayurtrace/internal/identity/repository"
	"github.com/ayurtrace/ayurtrace/internal/identity/service"
	"github.com/ayurtrace/ayurtrace/internal/identity/token"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(token.NewIssuer),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(
		func(s *service.Service) domain.Service { return s },
		func(s *service.Service) domain.Authenticator { return s },
	),
)
