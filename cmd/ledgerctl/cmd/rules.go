package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirasaad/smartledger/pkg/service/allocation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func (c *cli) rulesCmd() *cobra.Command {
	rules := &cobra.Command{
		Use:   "rules",
		Short: "Manage deposit allocation rules",
	}

	var user string
	set := &cobra.Command{
		Use:   "set slug=percent...",
		Short: "Replace a user's allocation rules",
		Long: `Replace the active rule set in one step. Percentages must sum to exactly
100 and target user buckets; the order given is the allocation order.

Example:
  ledgerctl rules set --user 6f1c... bills=50 savings=30 main=20`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.action(func(ctx context.Context, args []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			inputs, err := parseRuleArgs(args)
			if err != nil {
				return err
			}
			if _, err := c.app.Allocation.ReplaceRules(ctx, userID, inputs); err != nil {
				return err
			}
			okColor.Fprintf(c.out, "%d rules active\n", len(inputs))
			return c.printRules(ctx, userID)
		}),
	}
	set.Flags().StringVar(&user, "user", "", "user id (uuid)")

	var listUser string
	list := &cobra.Command{
		Use:   "list",
		Short: "Show a user's active allocation rules",
		Args:  cobra.NoArgs,
		RunE: c.action(func(ctx context.Context, _ []string) error {
			userID, err := parseUser(listUser)
			if err != nil {
				return err
			}
			return c.printRules(ctx, userID)
		}),
	}
	list.Flags().StringVar(&listUser, "user", "", "user id (uuid)")

	rules.AddCommand(set, list)
	return rules
}

func (c *cli) printRules(ctx context.Context, userID uuid.UUID) error {
	active, err := c.app.Allocation.ListRules(ctx, userID)
	if err != nil {
		return err
	}
	accounts, err := c.app.Ledger.Accounts(ctx, userID)
	if err != nil {
		return err
	}
	slugs := make(map[uuid.UUID]string, len(accounts))
	for _, a := range accounts {
		slugs[a.ID] = a.Slug
	}
	rows := make([][]string, 0, len(active))
	for _, r := range active {
		rows = append(rows, []string{fmt.Sprint(r.Priority), slugs[r.AccountID], r.Percent.StringFixed(2)})
	}
	renderTable(c.out, []string{"PRIORITY", "ACCOUNT", "PERCENT"}, rows)
	return nil
}

func parseRuleArgs(args []string) ([]allocation.RuleInput, error) {
	inputs := make([]allocation.RuleInput, 0, len(args))
	for _, arg := range args {
		slug, pct, ok := strings.Cut(arg, "=")
		if !ok || slug == "" {
			return nil, fmt.Errorf("rule %q: want slug=percent", arg)
		}
		percent, err := decimal.NewFromString(pct)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", arg, err)
		}
		inputs = append(inputs, allocation.RuleInput{Slug: slug, Percent: percent})
	}
	return inputs, nil
}
