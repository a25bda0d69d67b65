package main

import (
	"github.com/ayurtrace/ayurtrace/internal/analytics"
	"github.com/ayurtrace/ayurtrace/internal/audit"
	"github.com/ayurtrace/ayurtrace/internal/authorization"
	"github.com/ayurtrace/ayurtrace/internal/batch"
	"github.com/ayurtrace/ayurtrace/internal/blob"
	"github.com/ayurtrace/ayurtrace/internal/clock"
	"github.com/ayurtrace/ayurtrace/internal/collection"
	"github.com/ayurtrace/ayurtrace/internal/config"
	"github.com/ayurtrace/ayurtrace/internal/custody"
	"github.com/ayurtrace/ayurtrace/internal/identity"
	"github.com/ayurtrace/ayurtrace/internal/lock"
	"github.com/ayurtrace/ayurtrace/internal/migration"
	"github.com/ayurtrace/ayurtrace/internal/observability"
	"github.com/ayurtrace/ayurtrace/internal/product"
	"github.com/ayurtrace/ayurtrace/internal/provenance"
	"github.com/ayurtrace/ayurtrace/internal/providers"
	"github.com/ayurtrace/ayurtrace/internal/qrcode"
	"github.com/ayurtrace/ayurtrace/internal/quality"
	"github.com/ayurtrace/ayurtrace/internal/ratelimit"
	"github.com/ayurtrace/ayurtrace/internal/registry"
	"github.com/ayurtrace/ayurtrace/internal/server"
	"github.com/ayurtrace/ayurtrace/internal/validation"
	"github.com/ayurtrace/ayurtrace/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		validation.Module,
		lock.Module,
		ratelimit.Module,
		blob.Module,
		providers.Module,
		audit.Module,
		authorization.Module,

		// Functional Domains
		identity.Module,
		registry.Module,
		collection.Module,
		qrcode.Module,
		batch.Module,
		quality.Module,
		product.Module,
		custody.Module,
		provenance.Module,
		analytics.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
