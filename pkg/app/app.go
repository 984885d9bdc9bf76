package app

import (
	"fmt"
	"log/slog"

	"github.com/amirasaad/smartledger/pkg/config"
	"github.com/amirasaad/smartledger/pkg/metrics"
	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/amirasaad/smartledger/pkg/provider"
	"github.com/amirasaad/smartledger/pkg/repository"
	"github.com/amirasaad/smartledger/pkg/service/allocation"
	"github.com/amirasaad/smartledger/pkg/service/bill"
	"github.com/amirasaad/smartledger/pkg/service/deposit"
	"github.com/amirasaad/smartledger/pkg/service/ledger"
	"github.com/amirasaad/smartledger/pkg/service/onboarding"
	"github.com/amirasaad/smartledger/pkg/service/roundup"
	"github.com/amirasaad/smartledger/pkg/service/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Deps contains the infrastructure the services are built on.
type Deps struct {
	Uow             repository.UnitOfWork
	DB              *gorm.DB
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
	MetricsRegistry *prometheus.Registry
	Providers       *provider.Registry
}

// App holds the wired services.
type App struct {
	Deps       *Deps
	Config     *config.App
	Ledger     *ledger.Service
	Deposits   *deposit.Service
	Allocation *allocation.Service
	Bills      *bill.Service
	Roundup    *roundup.Service
	Onboarding *onboarding.Service
	Webhooks   *webhook.Service
}

// New wires the services. It fails only when the ledger config is unusable.
func New(deps *Deps, cfg *config.App) (*App, error) {
	currency := money.Code(cfg.Ledger.Currency)
	fee, err := money.FromDecimal(currency, cfg.Ledger.ServiceFeeFlat)
	if err != nil {
		return nil, fmt.Errorf("service fee: %w", err)
	}
	depositCfg := deposit.Config{Currency: currency, ServiceFee: fee}
	if err := depositCfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	app.Ledger = ledger.New(deps.Uow, deps.Logger)
	app.Onboarding = onboarding.New(deps.Uow, deps.Logger)
	app.Allocation = allocation.New(deps.Uow, deps.Logger)
	app.Deposits = deposit.New(deps.Uow, depositCfg, deps.Logger,
		deposit.WithMetrics(deps.Metrics))
	app.Roundup = roundup.New(deps.Uow, deps.Logger,
		roundup.WithMetrics(deps.Metrics))

	billOpts := []bill.Option{bill.WithMetrics(deps.Metrics)}
	if cfg.Bills.RoundupEnabled {
		billOpts = append(billOpts, bill.WithRoundup(app.Roundup))
	}
	app.Bills = bill.New(deps.Uow, deps.Logger, billOpts...)
	app.Webhooks = webhook.New(deps.Uow, deps.Providers, app.Deposits, deps.Logger,
		webhook.WithMetrics(deps.Metrics))
	return app, nil
}
