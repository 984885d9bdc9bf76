package cmd

import (
	"context"

	"github.com/amirasaad/smartledger/pkg/money"
	roundupsvc "github.com/amirasaad/smartledger/pkg/service/roundup"
	"github.com/spf13/cobra"
)

func (c *cli) roundupCmd() *cobra.Command {
	roundup := &cobra.Command{
		Use:   "roundup",
		Short: "Manage round-up savings",
	}

	var (
		user    string
		in      roundupsvc.ConfigureInput
		limit   string
		disable bool
	)
	configure := &cobra.Command{
		Use:   "configure",
		Short: "Set how bill payments are rounded up into savings",
		Long: `After each bill payment the difference to the next multiple of
--round-to moves from main into the savings bucket, up to --monthly-limit per
calendar month.

Example:
  ledgerctl roundup configure --user 6f1c... --round-to 50 --monthly-limit 1000`,
		Args: cobra.NoArgs,
		RunE: c.action(func(ctx context.Context, _ []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			in.Enabled = !disable
			if limit != "" {
				m, err := money.New(money.Code(c.cfg.Ledger.Currency), limit)
				if err != nil {
					return err
				}
				in.MonthlyLimit = &m
			}
			setting, err := c.app.Roundup.Configure(ctx, userID, in)
			if err != nil {
				return err
			}
			if !setting.Enabled {
				outcome(c.out, false, "round-ups disabled\n")
				return nil
			}
			outcome(c.out, true, "round-ups to the nearest %d enabled\n", setting.RoundTo)
			return nil
		}),
	}
	configure.Flags().StringVar(&user, "user", "", "user id (uuid)")
	configure.Flags().Int64Var(&in.RoundTo, "round-to", 10, "round up to a multiple of 10, 50 or 100")
	configure.Flags().StringVar(&in.SavingsSlug, "savings", "", "bucket to sweep into (default savings)")
	configure.Flags().StringVar(&limit, "monthly-limit", "", "cap per calendar month, empty for none")
	configure.Flags().BoolVar(&disable, "disable", false, "turn round-ups off")

	roundup.AddCommand(configure)
	return roundup
}
