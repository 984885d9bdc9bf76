package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/spf13/cobra"
)

func (c *cli) balancesCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show a user's account balances and trial balance",
		Args:  cobra.NoArgs,
		RunE: c.action(func(ctx context.Context, _ []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			accounts, err := c.app.Ledger.Accounts(ctx, userID)
			if err != nil {
				return err
			}
			balances, err := c.app.Ledger.UserBalances(ctx, userID)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(accounts))
			for _, a := range accounts {
				rows = append(rows, []string{a.Slug, string(a.Kind), balances[a.Slug].StringFixed()})
			}
			renderTable(c.out, []string{"ACCOUNT", "KIND", "BALANCE"}, rows)

			total, err := c.app.Ledger.TrialBalance(ctx, userID, money.Code(c.cfg.Ledger.Currency))
			if err != nil {
				return err
			}
			if total.IsZero() {
				okColor.Fprintln(c.out, "trial balance: 0.00")
				return nil
			}
			errColor.Fprintf(c.out, "trial balance: %s\n", total.StringFixed())
			return fmt.Errorf("trial balance for %s is %s", userID, total)
		}),
	}
	cmd.Flags().StringVar(&user, "user", "", "user id (uuid)")
	return cmd
}

func (c *cli) transactionsCmd() *cobra.Command {
	var (
		user  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List a user's most recent transactions",
		Args:  cobra.NoArgs,
		RunE: c.action(func(ctx context.Context, _ []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			txs, err := c.app.Ledger.Transactions(ctx, userID, limit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(txs))
			for _, tx := range txs {
				rows = append(rows, []string{
					tx.CreatedAt.Format(time.DateTime),
					string(tx.Provider),
					string(tx.Direction),
					string(tx.Status),
					tx.Amount.StringFixed(),
					tx.Ref(),
					tx.ID.String(),
				})
			}
			renderTable(c.out, []string{"CREATED", "PROVIDER", "DIRECTION", "STATUS", "AMOUNT", "REF", "ID"}, rows)
			fmt.Fprintln(c.out, strconv.Itoa(len(txs))+" transactions")
			return nil
		}),
	}
	cmd.Flags().StringVar(&user, "user", "", "user id (uuid)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows, 0 for all")
	return cmd
}
