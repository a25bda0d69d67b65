package observability

import (
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/config"
)

// Config is the part of the application configuration that shapes logs,
// traces and metrics.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

var devEnvironments = map[string]bool{
	"dev":         true,
	"development": true,
	"local":       true,
	"test":        true,
}

func LoadConfig(cfg config.Config) Config {
	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = "ayurtrace"
	}
	protocol := cfg.Telemetry.OtelProtocol
	if protocol == "http/protobuf" {
		protocol = "http"
	}
	ratio := cfg.Telemetry.SamplingRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.1
	}

	return Config{
		ServiceName:          name,
		Environment:          strings.ToLower(strings.TrimSpace(cfg.Environment)),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             cfg.Telemetry.LogLevel,
		LogFormat:            cfg.Telemetry.LogFormat,
		OtelEnabled:          cfg.Telemetry.OtelEnabled,
		OtelExporterEndpoint: strings.TrimSpace(cfg.OTLPEndpoint),
		OtelExporterProtocol: protocol,
		OtelSamplingRatio:    ratio,
	}
}

// Debug enables verbose request logs outside production-like environments.
func (c Config) Debug() bool {
	return c.LogLevel == "debug" || devEnvironments[c.Environment]
}
