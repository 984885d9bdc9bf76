// Package cmd provides the ledgerctl commands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/amirasaad/smartledger/infra/initializer"
	"github.com/amirasaad/smartledger/pkg/app"
	"github.com/amirasaad/smartledger/pkg/config"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// cli carries what every subcommand needs once the environment is loaded.
type cli struct {
	out         io.Writer
	logOut      io.Writer
	envFile     string
	metricsFile string

	cfg  *config.App
	deps *app.Deps
	app  *app.App
}

// NewRootCmd builds the command tree. Command output goes to out, logs to logOut.
func NewRootCmd(out, logOut io.Writer) *cobra.Command {
	c := &cli{out: out, logOut: logOut}
	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the smart ledger",
		Long: `ledgerctl records provider deposits into a double-entry ledger,
splits them across a user's buckets and pays recurring bills.

Configuration comes from the environment (DATABASE_URL, LEDGER_CURRENCY,
LEDGER_SERVICE_FEE_FLAT, ...) or an env file.

Example:
  ledgerctl migrate
  ledgerctl provision --user 6f1c...
  ledgerctl deposit --provider pesapal --file ipn.json
  ledgerctl bills run`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(logOut)

	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "env file to load before reading the environment")
	root.PersistentFlags().StringVar(&c.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	root.AddCommand(
		c.migrateCmd(),
		c.provisionCmd(),
		c.depositCmd(),
		c.balancesCmd(),
		c.transactionsCmd(),
		c.rulesCmd(),
		c.billsCmd(),
		c.roundupCmd(),
		c.webhooksCmd(),
	)
	return root
}

// Execute runs the root command against the process streams.
func Execute() error {
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		errColor.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// action wraps a command body with dependency setup and teardown.
func (c *cli) action(fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if err := c.setup(); err != nil {
			return err
		}
		defer func() {
			if cerr := c.teardown(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd.Context(), args)
	}
}

func (c *cli) setup() error {
	cfg, err := config.Load(c.envFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	deps, err := initializer.InitializeDependencies(cfg, c.logOut)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	a, err := app.New(deps, cfg)
	if err != nil {
		_ = initializer.Close(deps)
		return fmt.Errorf("failed to build services: %w", err)
	}
	c.cfg, c.deps, c.app = cfg, deps, a
	return nil
}

func (c *cli) teardown() error {
	defer func() { c.cfg, c.deps, c.app = nil, nil, nil }()
	if c.metricsFile != "" {
		if err := prometheus.WriteToTextfile(c.metricsFile, c.deps.MetricsRegistry); err != nil {
			_ = initializer.Close(c.deps)
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return initializer.Close(c.deps)
}

func parseUser(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("--user is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --user %q: %w", raw, err)
	}
	return id, nil
}
