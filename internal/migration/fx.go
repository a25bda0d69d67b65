package migration

import (
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Migrate),
)

// Migrate brings the schema up to date when DATABASE_AUTO_MIGRATE is set.
// Postgres uses the SQL migrations; other dialects use gorm AutoMigrate.
func Migrate(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	if !cfg.DBAutoMigrate {
		return nil
	}
	log = log.Named("migration")

	if strings.EqualFold(strings.TrimSpace(cfg.DBType), "postgres") {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}
		log.Info("sql migrations applied")
		return nil
	}

	if err := conn.AutoMigrate(Models()...); err != nil {
		return err
	}
	log.Info("schema auto-migrated", zap.String("dialect", conn.Dialector.Name()))
	return nil
}
