package initializer

import (
	"fmt"
	"io"

	"github.com/amirasaad/smartledger/infra"
	infra_repository "github.com/amirasaad/smartledger/infra/repository"
	"github.com/amirasaad/smartledger/pkg/app"
	"github.com/amirasaad/smartledger/pkg/config"
	"github.com/amirasaad/smartledger/pkg/metrics"
	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/amirasaad/smartledger/pkg/provider"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// InitializeDependencies initializes all the application dependencies.
// Logs go to w.
func InitializeDependencies(cfg *config.App, w io.Writer) (
	deps *app.Deps,
	err error,
) {
	deps = &app.Deps{}
	logger := SetupLogger(cfg.Log, w)
	deps.Logger = logger

	// Initialize database
	db, dialect, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	deps.DB = db
	logger.Debug("Database connected", "dialect", dialect)

	// Initialize unit of work
	deps.Uow = infra_repository.NewUoW(db)

	// Initialize metrics on a private registry; callers decide where to expose it
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	deps.MetricsRegistry = reg
	deps.Metrics = metrics.New(reg, cfg.Metrics.Namespace)

	// Initialize webhook decoders
	deps.Providers = provider.DefaultRegistry(money.Code(cfg.Ledger.Currency))
	return deps, nil
}

// MigrateDatabase brings the schema behind deps up to date.
func MigrateDatabase(cfg *config.App, deps *app.Deps) error {
	dialect, _, err := infra.ParseDatabaseURL(cfg.DB.Url)
	if err != nil {
		return err
	}
	if err := infra.Migrate(deps.DB, dialect, deps.Logger); err != nil {
		return fmt.Errorf("migrate %s: %w", dialect, err)
	}
	return nil
}

// Close releases the database connection pool.
func Close(deps *app.Deps) error {
	if deps == nil || deps.DB == nil {
		return nil
	}
	sqlDB, err := deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
