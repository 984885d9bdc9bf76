package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/amirasaad/smartledger/pkg/provider"
	webhooksvc "github.com/amirasaad/smartledger/pkg/service/webhook"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func (c *cli) depositCmd() *cobra.Command {
	var (
		providerName string
		file         string
		user         string
	)
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Record a provider payment notification",
		Long: `Store a provider webhook body, then decode it and post the deposit it
confirms. The owning user comes from --user or, when omitted, from
meta.user_id in the payload. Replaying a notification that was already
recorded posts nothing. A body that cannot be posted yet stays in the
webhook inbox for "ledgerctl webhooks retry".

Example:
  ledgerctl deposit --provider flutterwave --file charge.json
  cat ipn.json | ledgerctl deposit --provider pesapal --file -`,
		Args: cobra.NoArgs,
		RunE: c.action(func(ctx context.Context, _ []string) error {
			p, err := provider.Parse(providerName)
			if err != nil {
				return err
			}
			body, err := readPayload(file)
			if err != nil {
				return err
			}
			in := webhooksvc.IngestInput{Provider: p, Payload: body}
			if user != "" {
				userID, err := parseUser(user)
				if err != nil {
					return err
				}
				in.UserID = &userID
			}

			out, err := c.app.Webhooks.Ingest(ctx, in)
			if err != nil {
				if out != nil {
					outcome(c.out, false, "held as webhook %s for retry\n", out.Event.ID)
				}
				return err
			}
			res := out.Deposit
			if res.Duplicate {
				outcome(c.out, false, "duplicate: %s already recorded as %s\n", res.Transaction.Ref(), res.Transaction.ID)
				return nil
			}
			outcome(c.out, true, "posted %s as %s\n", res.Transaction.Amount, res.Transaction.ID)
			userID := res.Transaction.UserID

			accounts, err := c.app.Ledger.Accounts(ctx, userID)
			if err != nil {
				return err
			}
			slugs := make(map[uuid.UUID]string, len(accounts))
			for _, a := range accounts {
				slugs[a.ID] = a.Slug
			}
			rows := [][]string{{"system_revenue", "fee", res.Fee.StringFixed()}}
			for _, portion := range res.Split.Portions {
				rows = append(rows, []string{
					slugs[portion.Rule.AccountID],
					portion.Rule.Percent.String() + "%",
					portion.Amount.StringFixed(),
				})
			}
			if !res.Split.Residual.IsZero() {
				rows = append(rows, []string{"clearing", "residual", res.Split.Residual.StringFixed()})
			}
			renderTable(c.out, []string{"ACCOUNT", "SHARE", "AMOUNT"}, rows)
			return nil
		}),
	}
	cmd.Flags().StringVar(&providerName, "provider", "", "payment provider (pesapal, flutterwave)")
	cmd.Flags().StringVar(&file, "file", "-", "webhook body, - for stdin")
	cmd.Flags().StringVar(&user, "user", "", "user id, overrides meta.user_id")
	_ = cmd.MarkFlagRequired("provider")
	return cmd
}

func readPayload(file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(os.Stdin)
	}
	body, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return body, nil
}
