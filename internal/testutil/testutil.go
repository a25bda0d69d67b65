// Package testutil wires the shared infrastructure used by service tests.
package testutil

import (
	"testing"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	auditdomain "github.com/ayurtrace/ayurtrace/internal/audit/domain"
	auditrepository "github.com/ayurtrace/ayurtrace/internal/audit/repository"
	auditservice "github.com/ayurtrace/ayurtrace/internal/audit/service"
	"github.com/ayurtrace/ayurtrace/internal/authorization"
	"github.com/ayurtrace/ayurtrace/internal/blob"
	"github.com/ayurtrace/ayurtrace/internal/clock"
	"github.com/ayurtrace/ayurtrace/internal/lock"
	"github.com/ayurtrace/ayurtrace/internal/migration"
	"github.com/ayurtrace/ayurtrace/internal/validation"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Epoch is the fake clock's starting time in every Env.
var Epoch = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

type Env struct {
	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    *clock.FakeClock
	Validate *validator.Validate
	Authz    authorization.Service
	Audit    auditdomain.Service
	Locker   lock.Locker
	Blob     *blob.MemoryStore
}

// NewDB opens a private in-memory sqlite database with the full schema.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(migration.Models()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func New(t *testing.T) *Env {
	t.Helper()
	db := NewDB(t)
	log := zap.NewNop()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	enforcer, err := authorization.NewEnforcer(db)
	require.NoError(t, err)

	fake := clock.NewFakeClock(Epoch)
	audit := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  auditrepository.Provide(),
	})

	return &Env{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    fake,
		Validate: validation.New(),
		Authz:    authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer, AuditSvc: audit}),
		Audit:    audit,
		Locker:   lock.NewMemoryLocker(nil),
		Blob:     blob.NewMemoryStore("http://localhost:8080/public/blobs"),
	}
}

// SerializeWrites pins the pool to one connection. Shared-cache sqlite fails
// a second concurrent writer with SQLITE_LOCKED instead of waiting.
func (e *Env) SerializeWrites(t *testing.T) {
	t.Helper()
	sqlDB, err := e.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
}

// Actor returns a fresh actor of role.
func (e *Env) Actor(role actor.Role) actor.Actor {
	return actor.New(e.GenID.Generate(), role)
}

// CountRows counts rows of table matching where.
func (e *Env) CountRows(t *testing.T, table string, where string, args ...any) int64 {
	t.Helper()
	var n int64
	q := e.DB.Table(table)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
