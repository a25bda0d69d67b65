package provenance

import (
	"github.com/ayurtrace/ayurtrace/internal/provenance/service"
	"go.uber.org/fx"
)

var Module = fx.Module("provenance.service",
	fx.Provide(service.New),
)
