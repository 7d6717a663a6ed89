package commands

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/extrato-dev/extrato/internal/model"
	"github.com/extrato-dev/extrato/internal/money"
	"github.com/extrato-dev/extrato/internal/normalize"
	"github.com/extrato-dev/extrato/internal/recurring"
)

func (p *project) recurringService() *recurring.Service {
	th := p.cfg.Thresholds
	return recurring.NewService(p.store, th.MinRecurringMonths, decimalFromFloat(th.RecurringVariancePct))
}

func newRecurringCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Recurring charges",
	}
	cmd.AddCommand(
		newRecurringListCommand(),
		newRecurringRefreshCommand(),
		newRecurringToggleCommand(),
		newRecurringIgnoreCommand(),
		newRecurringRestoreCommand(),
		newRecurringAddCommand(),
		newRecurringDeleteCommand(),
		newRecurringHistoryCommand(),
	)
	return cmd
}

func newRecurringListCommand() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the recurring charges of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			m, err := p.resolveMonth(ctx, month, model.KindCard)
			if err != nil {
				return err
			}
			svc := p.recurringService()
			report, err := svc.Month(ctx, m)
			if err != nil {
				return err
			}
			variations, err := svc.Variations(ctx, m)
			if err != nil {
				return err
			}
			printRecurringReport(cmd.OutOrStdout(), report, variations)
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "reference month (YYYY-MM, default latest)")

	return cmd
}

func printRecurringReport(out io.Writer, r *recurring.MonthReport, variations []recurring.Variation) {
	fmt.Fprintln(out, heading.Sprintf("Recurring charges %s", r.Month))
	printEntries(out, "Monthly", r.Monthly)
	printEntries(out, "Installments", r.Installments)
	fmt.Fprintf(out, "Total %s of %s expenses (%s%%)\n", brl(r.Total), brl(r.Expenses), r.SharePct.StringFixed(1))

	if len(variations) > 0 {
		fmt.Fprintln(out, heading.Sprint("Changed from average"))
		for _, v := range variations {
			fmt.Fprintf(out, "  %-40s %14s avg %14s %s\n", v.Description, brl(v.Current), brl(v.Average), pct(v.Pct))
		}
	}
}

func printEntries(out io.Writer, title string, entries []recurring.Entry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintln(out, heading.Sprint(title))
	for _, e := range entries {
		change := ""
		if e.ChangePct.Valid {
			change = pct(e.ChangePct.Decimal)
		}
		fmt.Fprintf(out, "  %s %-40s %-20s %14s %-11s %s\n",
			e.Date, e.Description, e.Category, brl(e.Amount), e.Source, change)
	}
}

func newRecurringRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Recompute recurring items from history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			items, err := p.recurringService().Refresh(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, it := range items {
				state := ""
				if !it.Active {
					state = warn.Sprint("inactive")
				}
				fmt.Fprintf(out, "%-40s %14s %3d months %s\n", it.Description, brl(it.AverageAmount), it.MonthCount, state)
			}
			fmt.Fprintf(out, "%d recurring items\n", len(items))
			return nil
		},
	}
}

func newRecurringToggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <description>",
		Short: "Switch a detected recurring item on or off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			norm := normalize.Description(args[0])
			if _, err := p.recurringService().Refresh(ctx); err != nil {
				return err
			}
			active, err := p.store.ToggleRecurring(ctx, norm)
			if err != nil {
				return err
			}
			state := "inactive"
			if active {
				state = "active"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", norm, state)
			return nil
		},
	}
}

func newRecurringIgnoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ignore <description>",
		Short: "Hide a description from recurring lists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			norm := normalize.Description(args[0])
			if err := p.store.IgnoreRecurring(ctx, norm, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ignoring %s\n", norm)
			return nil
		},
	}
}

func newRecurringRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <description>",
		Short: "Stop ignoring a description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			norm := normalize.Description(args[0])
			if err := p.store.RestoreRecurring(ctx, norm); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", norm)
			return nil
		},
	}
}

func newRecurringAddCommand() *cobra.Command {
	var amount, category string

	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Declare a monthly recurring charge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := model.ManualRecurring{
				NormalizedDescription: normalize.Description(args[0]),
				Description:           args[0],
				Category:              category,
				Frequency:             "monthly",
			}
			if m.NormalizedDescription == "" {
				return fmt.Errorf("description %q is empty after normalization", args[0])
			}
			if amount != "" {
				d, err := parseAmountFlag(amount)
				if err != nil {
					return err
				}
				m.EstimatedAmount = decimal.NewNullDecimal(d)
			}

			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			if err := p.store.AddManualRecurring(ctx, m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Declared %s\n", m.NormalizedDescription)
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "estimated monthly amount")
	cmd.Flags().StringVar(&category, "category", "", "category")

	return cmd
}

func newRecurringDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <description>",
		Short: "Remove a declared recurring charge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			norm := normalize.Description(args[0])
			if err := p.store.DeleteManualRecurring(ctx, norm); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", norm)
			return nil
		},
	}
}

func newRecurringHistoryCommand() *cobra.Command {
	var months int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Split past months into recurring and variable spend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			points, err := p.recurringService().History(ctx, months)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, pt := range points {
				fmt.Fprintf(out, "%s total %14s recurring %14s variable %14s\n",
					pt.Month, brl(pt.Total), brl(pt.Recurring), brl(pt.Variable))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&months, "months", 6, "number of months")

	return cmd
}

// parseAmountFlag accepts "1234.56" and "1.234,56".
func parseAmountFlag(s string) (decimal.Decimal, error) {
	d := money.ParseAmount(s)
	if d.IsZero() {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}
