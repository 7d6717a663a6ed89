package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/extrato-dev/extrato/internal/summary"
)

func newSummaryCommand() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Totals of a month's card and account transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			m, err := p.resolveMonth(ctx, month)
			if err != nil {
				return err
			}
			card, account, err := summary.Month(ctx, p.store, m)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, heading.Sprintf("Card %s", m))
			fmt.Fprintf(out, "  expenses %14s\n  refunds  %14s\n  total    %14s (%d transactions)\n",
				brl(card.Expenses), brl(card.Refunds), brl(card.Total), card.Count)
			for _, c := range card.Categories {
				fmt.Fprintf(out, "  %-30s %4d %14s avg %14s\n", c.Category, c.Count, brl(c.Total), brl(c.Average))
			}
			if account.Count > 0 {
				fmt.Fprintln(out, heading.Sprintf("Account %s", m))
				fmt.Fprintf(out, "  credits  %14s\n  debits   %14s\n  balance  %14s\n",
					good.Sprint(brl(account.Credits)), alert.Sprint(brl(account.Debits)), brl(account.Balance))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "reference month (YYYY-MM, default latest)")

	return cmd
}
