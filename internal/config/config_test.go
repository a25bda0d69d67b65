package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("OTP_TTL", "")
	t.Setenv("BLOB_DRIVER", "")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, "memory", cfg.Blob.Driver)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("OTP_MAX_ATTEMPTS", "3")
	t.Setenv("BLOB_DRIVER", "S3")
	t.Setenv("BLOB_S3_PATH_STYLE", "yes")
	t.Setenv("PUBLIC_BASE_URL", "https://trace.example.org/")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "HTTP")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 90*time.Second, cfg.OTPTTL)
	assert.Equal(t, 3, cfg.OTPMaxAttempts)
	assert.Equal(t, "s3", cfg.Blob.Driver)
	assert.True(t, cfg.Blob.PathStyle)
	assert.Equal(t, "https://trace.example.org", cfg.PublicBaseURL)
	assert.Equal(t, "debug", cfg.Telemetry.LogLevel)
	assert.Equal(t, "http", cfg.Telemetry.OtelProtocol)
	assert.Equal(t, 0.25, cfg.Telemetry.SamplingRatio)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("OTP_TTL", "soon")
	t.Setenv("DATABASE_MAX_OPEN_CONN", "many")
	t.Setenv("DATABASE_AUTO_MIGRATE", "maybe")

	cfg := Load()

	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 50, cfg.DBMaxOpenConn)
	assert.False(t, cfg.DBAutoMigrate)
}
