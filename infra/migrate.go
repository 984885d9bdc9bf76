package infra

import (
	"errors"
	"fmt"
	"log/slog"

	infra_repository "github.com/amirasaad/smartledger/infra/repository"
	"github.com/amirasaad/smartledger/internal/migrations"
	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

// Migrate brings the schema up to date. Postgres runs the embedded SQL
// migrations; SQLite, used for local runs and tests, is auto-migrated from the
// gorm models.
func Migrate(db *gorm.DB, dialect Dialect, logger *slog.Logger) error {
	if dialect == DialectSQLite {
		logger.Info("Auto-migrating sqlite schema")
		return db.AutoMigrate(infra_repository.Models()...)
	}
	return RunPostgresMigrations(db, logger)
}

// RunPostgresMigrations applies the embedded migrations. ErrNoChange is success.
func RunPostgresMigrations(db *gorm.DB, logger *slog.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	driver, err := migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return err
	}
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	version, dirty, _ := m.Version()
	logger.Info("Postgres migrations applied", "version", version, "dirty", dirty)
	return nil
}
