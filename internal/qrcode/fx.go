package qrcode

import (
	"github.com/ayurtrace/ayurtrace/internal/qrcode/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("qrcode",
	fx.Provide(repository.Provide),
)
