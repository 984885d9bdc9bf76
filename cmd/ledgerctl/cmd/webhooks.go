package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/amirasaad/smartledger/pkg/domain/webhook"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func (c *cli) webhooksCmd() *cobra.Command {
	webhooks := &cobra.Command{
		Use:   "webhooks",
		Short: "Inspect and replay stored provider notifications",
	}
	webhooks.AddCommand(
		c.webhooksListCmd(),
		c.webhooksRetryCmd(),
		c.webhooksProcessCmd(),
	)
	return webhooks
}

func (c *cli) webhooksListCmd() *cobra.Command {
	var (
		status string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored notifications by status",
		Args:  cobra.NoArgs,
		RunE: c.action(func(ctx context.Context, _ []string) error {
			st, err := webhook.ParseStatus(status)
			if err != nil {
				return err
			}
			events, err := c.app.Webhooks.List(ctx, st, limit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(events))
			for _, ev := range events {
				tx := "-"
				if ev.TransactionID != nil {
					tx = ev.TransactionID.String()
				}
				rows = append(rows, []string{
					ev.CreatedAt.Format(time.DateTime),
					string(ev.Provider),
					ev.EventType,
					string(ev.Status),
					fmt.Sprint(ev.Attempts),
					ev.LastError,
					tx,
					ev.ID.String(),
				})
			}
			renderTable(c.out, []string{"RECEIVED", "PROVIDER", "TYPE", "STATUS", "ATTEMPTS", "LAST ERROR", "TRANSACTION", "ID"}, rows)
			fmt.Fprintf(c.out, "%d %s webhooks\n", len(events), st)
			return nil
		}),
	}
	cmd.Flags().StringVar(&status, "status", string(webhook.StatusFailed), "received, processed or failed")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows, 0 for all")
	return cmd
}

func (c *cli) webhooksRetryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Reprocess failed and unfinished notifications",
		Long: `Reprocess stored notifications that failed or were left received by an
interrupted run, oldest first. Notifications that already posted are absorbed
by deposit idempotency, so running this twice posts nothing new.`,
		Args: cobra.NoArgs,
		RunE: c.action(func(ctx context.Context, _ []string) error {
			report, err := c.app.Webhooks.Retry(ctx, limit)
			if err != nil {
				return err
			}
			outcome(c.out, report.Failed == 0, "%d webhooks retried: %d processed, %d failed\n",
				report.Attempted, report.Processed, report.Failed)
			return nil
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum events per status, 0 for all")
	return cmd
}

func (c *cli) webhooksProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <webhook-id>",
		Short: "Reprocess one stored notification",
		Args:  cobra.ExactArgs(1),
		RunE: c.action(func(ctx context.Context, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid webhook id %q: %w", args[0], err)
			}
			out, err := c.app.Webhooks.Process(ctx, id)
			if err != nil {
				return err
			}
			outcome(c.out, true, "webhook %s processed as %s\n", id, out.Deposit.Transaction.ID)
			return nil
		}),
	}
}
