package providers

import (
	"github.com/ayurtrace/ayurtrace/internal/providers/pdf"
	"github.com/ayurtrace/ayurtrace/internal/providers/sms"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	pdf.Module,
	sms.Module,
)
