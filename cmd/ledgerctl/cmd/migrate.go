package cmd

import (
	"context"
	"fmt"

	"github.com/amirasaad/smartledger/infra/initializer"
	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/spf13/cobra"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		Args:  cobra.NoArgs,
		RunE: c.action(func(_ context.Context, _ []string) error {
			if err := initializer.MigrateDatabase(c.cfg, c.deps); err != nil {
				return err
			}
			okColor.Fprintln(c.out, "schema up to date")
			return nil
		}),
	}
}

func (c *cli) provisionCmd() *cobra.Command {
	var (
		user     string
		currency string
	)
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create a user's default accounts and allocation rules",
		Long: `Create the main, bills and savings buckets plus the clearing,
system_revenue and settlement accounts, and the default 40/40/20 split.
Running it again for the same user changes nothing.`,
		Args: cobra.NoArgs,
		RunE: c.action(func(ctx context.Context, _ []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			code := money.Code(c.cfg.Ledger.Currency)
			if currency != "" {
				code = money.Code(currency)
			}
			accounts, err := c.app.Onboarding.Provision(ctx, userID, code)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(accounts))
			for _, a := range accounts {
				rows = append(rows, []string{a.Slug, a.Name, string(a.Kind), a.Currency.String(), a.ID.String()})
			}
			renderTable(c.out, []string{"SLUG", "NAME", "KIND", "CURRENCY", "ID"}, rows)
			fmt.Fprintf(c.out, "user %s provisioned\n", userID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&user, "user", "", "user id (uuid)")
	cmd.Flags().StringVar(&currency, "currency", "", "account currency (default LEDGER_CURRENCY)")
	return cmd
}
