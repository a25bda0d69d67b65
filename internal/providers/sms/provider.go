package sms

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.sms",
	fx.Provide(NewLogProvider),
)

type Provider interface {
	Send(ctx context.Context, phone string, message string) error
}

// LogProvider writes messages to the log instead of a gateway. The phone
// number is masked.
type LogProvider struct {
	log *zap.Logger
}

func NewLogProvider(log *zap.Logger) Provider {
	return &LogProvider{log: log.Named("sms")}
}

func (p *LogProvider) Send(ctx context.Context, phone string, message string) error {
	p.log.Info("sms dispatched",
		zap.String("to", MaskPhone(phone)),
		zap.Int("length", len(message)),
	)
	return nil
}

// MaskPhone keeps the last four digits.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	masked := make([]byte, len(phone))
	for i := range phone {
		if i < len(phone)-4 {
			masked[i] = '*'
			continue
		}
		masked[i] = phone[i]
	}
	return string(masked)
}
