package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	obscontext "github.com/ayurtrace/ayurtrace/internal/observability/context"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestWithContextAddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := obscontext.WithRequestID(context.Background(), "req-7")
	ctx = obscontext.WithActor(ctx, "MANUFACTURER", "99")

	WithContext(ctx, zap.New(core)).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "MANUFACTURER", fields["actor_role"])
	assert.Equal(t, "99", fields["actor_id"])
}

func TestWithContextOmitsMissingFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	WithContext(context.Background(), zap.New(core)).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.NotContains(t, fields, "request_id")
	assert.NotContains(t, fields, "trace_id")
}

func TestNewAppliesLevel(t *testing.T) {
	log, err := New(nil, Config{Level: "warn", Format: "console"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	_, err = New(nil, Config{Level: "verbose"})
	assert.Error(t, err)
}

func TestGinMiddlewareLogsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		Base: zap.New(core),
		ErrorClassifier: func(err error) (string, string) {
			return "not_found", err.Error()
		},
	}))
	r.GET("/public/trace/:code", func(c *gin.Context) {
		_ = c.Error(errors.New("qr_code_not_found"))
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/public/trace/01HX", nil)
	req.Header.Set("X-Request-Id", "abc")
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc", w.Header().Get("X-Request-Id"))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.DebugLevel, entry.Level)
	assert.Equal(t, "qr_code_not_found", entry.ContextMap()["error_code"])
	assert.Equal(t, int64(http.StatusNotFound), entry.ContextMap()["status"])
}

func TestGormLoggerSkipsRecordNotFound(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), DefaultGormLoggerConfig())

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM batches WHERE id = 1", 0
	}, gormlogger.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len())

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "UPDATE batches SET status = 'PACKAGED'", 1
	}, errors.New("deadlock"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "UPDATE", logs.All()[0].ContextMap()["operation"])
}
