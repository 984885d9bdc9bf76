package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/amirasaad/smartledger/pkg/domain/bill"
	"github.com/amirasaad/smartledger/pkg/money"
	billsvc "github.com/amirasaad/smartledger/pkg/service/bill"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func (c *cli) billsCmd() *cobra.Command {
	bills := &cobra.Command{
		Use:   "bills",
		Short: "Create and pay recurring bills",
	}
	bills.AddCommand(
		c.billsCreateCmd(),
		c.billsUpdateCmd(),
		c.billsDeactivateCmd(),
		c.billsListCmd(),
		c.billsPayCmd(),
		c.billsRunCmd(),
		c.billsPendingCmd(),
	)
	return bills
}

func (c *cli) billsCreateCmd() *cobra.Command {
	var (
		in       billsvc.CreateInput
		user     string
		amount   string
		firstDue string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a recurring bill",
		Long: `Register a bill paid from the bills bucket first and main for the rest.
Monthly, quarterly and yearly bills fall on --due-day of the month (clamped to
short months); weekly bills use 1..7 for Monday..Sunday.`,
		Args: cobra.NoArgs,
		RunE: c.action(func(ctx context.Context, _ []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			in.UserID = userID
			if in.Amount, err = money.New(money.Code(c.cfg.Ledger.Currency), amount); err != nil {
				return err
			}
			if firstDue != "" {
				due, err := time.Parse(time.DateOnly, firstDue)
				if err != nil {
					return fmt.Errorf("invalid --first-due: %w", err)
				}
				in.FirstDueDate = &due
			}
			b, err := c.app.Bills.CreateBill(ctx, in)
			if err != nil {
				return err
			}
			okColor.Fprintf(c.out, "bill %s created, next due %s\n", b.ID, b.NextDueDate.Format(time.DateOnly))
			return nil
		}),
	}
	cmd.Flags().StringVar(&user, "user", "", "user id (uuid)")
	cmd.Flags().StringVar(&in.Name, "name", "", "bill name")
	cmd.Flags().StringVar(&in.Category, "category", "", "bill category")
	cmd.Flags().StringVar(&amount, "amount", "", "amount per period")
	cmd.Flags().StringVar(&in.Frequency, "frequency", "monthly", "weekly, monthly, quarterly or yearly")
	cmd.Flags().IntVar(&in.DueDay, "due-day", 1, "day of month, or weekday for weekly bills")
	cmd.Flags().StringVar(&in.MerchantCode, "merchant", "", "merchant or paybill code")
	cmd.Flags().StringVar(&in.AccountNumber, "account-number", "", "account number at the merchant")
	cmd.Flags().BoolVar(&in.AutoPay, "auto-pay", false, "pay automatically when due")
	cmd.Flags().StringVar(&firstDue, "first-due", "", "first due date (YYYY-MM-DD), overrides the schedule")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// billUpdateFlags holds the raw flag values of bills update; only flags the
// user set end up in the UpdateInput.
type billUpdateFlags struct {
	name, category, amount, frequency, merchant, accountNumber string
	dueDay                                                     int
	autoPay, active                                            bool
}

func (f *billUpdateFlags) input(changed func(string) bool, currency money.Code) (in billsvc.UpdateInput, err error) {
	if changed("name") {
		in.Name = &f.name
	}
	if changed("category") {
		in.Category = &f.category
	}
	if changed("amount") {
		amt, err := money.New(currency, f.amount)
		if err != nil {
			return in, err
		}
		in.Amount = &amt
	}
	if changed("frequency") {
		in.Frequency = &f.frequency
	}
	if changed("due-day") {
		in.DueDay = &f.dueDay
	}
	if changed("merchant") {
		in.MerchantCode = &f.merchant
	}
	if changed("account-number") {
		in.AccountNumber = &f.accountNumber
	}
	if changed("auto-pay") {
		in.AutoPay = &f.autoPay
	}
	if changed("active") {
		in.Active = &f.active
	}
	return in, nil
}

func (c *cli) billsUpdateCmd() *cobra.Command {
	var f billUpdateFlags
	cmd := &cobra.Command{
		Use:   "update <bill-id>",
		Short: "Change a bill's details or schedule",
		Long: `Change only the flags given. Changing --frequency or --due-day, or
reactivating with --active, moves the next due date to the next occurrence of
the new schedule. A bill with a payment still pending cannot be changed.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.RunE = c.action(func(ctx context.Context, args []string) error {
		billID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid bill id %q: %w", args[0], err)
		}
		in, err := f.input(cmd.Flags().Changed, money.Code(c.cfg.Ledger.Currency))
		if err != nil {
			return err
		}
		return c.updateBill(ctx, billID, in)
	})
	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "bill name")
	flags.StringVar(&f.category, "category", "", "bill category")
	flags.StringVar(&f.amount, "amount", "", "amount per period")
	flags.StringVar(&f.frequency, "frequency", "", "weekly, monthly, quarterly or yearly")
	flags.IntVar(&f.dueDay, "due-day", 0, "day of month, or weekday for weekly bills")
	flags.StringVar(&f.merchant, "merchant", "", "merchant or paybill code")
	flags.StringVar(&f.accountNumber, "account-number", "", "account number at the merchant")
	flags.BoolVar(&f.autoPay, "auto-pay", false, "pay automatically when due")
	flags.BoolVar(&f.active, "active", true, "whether the bill is scheduled")
	return cmd
}

func (c *cli) updateBill(ctx context.Context, billID uuid.UUID, in billsvc.UpdateInput) error {
	b, err := c.app.Bills.UpdateBill(ctx, billID, in)
	if err != nil {
		return err
	}
	okColor.Fprintf(c.out, "bill %s updated, next due %s, active %t\n", b.ID, b.NextDueDate.Format(time.DateOnly), b.Active)
	return nil
}

func (c *cli) billsDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <bill-id>",
		Short: "Stop scheduling a bill",
		Args:  cobra.ExactArgs(1),
		RunE: c.action(func(ctx context.Context, args []string) error {
			billID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid bill id %q: %w", args[0], err)
			}
			b, err := c.app.Bills.DeactivateBill(ctx, billID)
			if err != nil {
				return err
			}
			warnColor.Fprintf(c.out, "bill %s deactivated\n", b.ID)
			return nil
		}),
	}
}

func (c *cli) billsListCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's bills",
		Args:  cobra.NoArgs,
		RunE: c.action(func(ctx context.Context, _ []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			bills, err := c.app.Bills.ListBills(ctx, userID)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(bills))
			for _, b := range bills {
				lastPaid := "-"
				if b.LastPaidAt != nil {
					lastPaid = b.LastPaidAt.Format(time.DateOnly)
				}
				rows = append(rows, []string{
					b.Name,
					b.Amount.StringFixed(),
					string(b.Frequency),
					b.NextDueDate.Format(time.DateOnly),
					lastPaid,
					fmt.Sprint(b.AutoPay),
					fmt.Sprint(b.Active),
					b.ID.String(),
				})
			}
			renderTable(c.out, []string{"NAME", "AMOUNT", "FREQUENCY", "NEXT DUE", "LAST PAID", "AUTO", "ACTIVE", "ID"}, rows)
			return nil
		}),
	}
	cmd.Flags().StringVar(&user, "user", "", "user id (uuid)")
	return cmd
}

func (c *cli) billsPayCmd() *cobra.Command {
	var auto bool
	cmd := &cobra.Command{
		Use:   "pay <bill-id>",
		Short: "Pay one bill now",
		Long: `Pay a bill now. A shortfall is an error unless --auto is set, in which
case the bill is paid only when due and skipped on a shortfall, the way a
scheduled run would.`,
		Args: cobra.ExactArgs(1),
		RunE: c.action(func(ctx context.Context, args []string) error {
			billID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid bill id %q: %w", args[0], err)
			}
			payment, err := c.app.Bills.PayBill(ctx, billID, !auto)
			if err != nil {
				return err
			}
			printPayment(c, billID, payment)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&auto, "auto", false, "pay as a scheduled run would: skip when not due or short of funds")
	return cmd
}

func printPayment(c *cli, billID uuid.UUID, payment *bill.Payment) {
	switch {
	case payment == nil:
		outcome(c.out, false, "bill %s skipped\n", billID)
	case payment.Status == bill.PaymentCompleted:
		outcome(c.out, true, "bill %s paid: %s (transaction %s)\n", billID, payment.Amount, payment.TransactionID)
	default:
		errColor.Fprintf(c.out, "bill %s payment %s: %s\n", billID, payment.Status, payment.FailureReason)
	}
}

func (c *cli) billsRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Pay every due auto-pay bill",
		Args:  cobra.NoArgs,
		RunE: c.action(func(ctx context.Context, _ []string) error {
			paid, err := c.app.Bills.ProcessDueBills(ctx)
			if err != nil {
				return err
			}
			outcome(c.out, true, "%d bills paid\n", paid)
			return nil
		}),
	}
}

func (c *cli) billsPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List payments left pending by an interrupted run",
		Args:  cobra.NoArgs,
		RunE: c.action(func(ctx context.Context, _ []string) error {
			payments, err := c.app.Bills.ListPendingPayments(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(payments))
			for _, p := range payments {
				rows = append(rows, []string{
					p.CreatedAt.Format(time.DateTime),
					p.BillID.String(),
					p.Amount.StringFixed(),
					p.TransactionID.String(),
					p.ID.String(),
				})
			}
			renderTable(c.out, []string{"CREATED", "BILL", "AMOUNT", "TRANSACTION", "ID"}, rows)
			if len(payments) > 0 {
				warnColor.Fprintf(c.out, "%d payments need reconciliation\n", len(payments))
			}
			return nil
		}),
	}
}
