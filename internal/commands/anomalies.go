package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/extrato-dev/extrato/internal/anomaly"
	"github.com/extrato-dev/extrato/internal/model"
)

func newAnomaliesCommand() *cobra.Command {
	var month, category string

	cmd := &cobra.Command{
		Use:   "anomalies",
		Short: "Flag unusual spending in a month",
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
			svc := anomaly.NewService(p.store, anomaly.FromConfig(p.cfg.Thresholds))
			out := cmd.OutOrStdout()

			if category != "" {
				subs, err := svc.Subcategories(ctx, m, category)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, heading.Sprintf("%s by subcategory, %s", category, m))
				for _, s := range subs {
					fmt.Fprintf(out, "  %-30s %14s mean %14s %s  prev %14s %s\n",
						s.Subcategory, brl(s.Current), brl(s.Mean), pct(s.MeanPct), brl(s.Previous), pct(s.PreviousPct))
				}
				return nil
			}

			report, err := svc.Month(ctx, m)
			if err != nil {
				return err
			}
			printAnomalies(out, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "reference month (YYYY-MM, default latest)")
	cmd.Flags().StringVar(&category, "category", "", "compare the subcategories of one category")

	return cmd
}

func printAnomalies(out io.Writer, r *anomaly.Report) {
	fmt.Fprintln(out, heading.Sprintf("Anomalies %s (%d months of history)", r.Month, len(r.Trailing)))

	if len(r.Spikes) > 0 {
		fmt.Fprintln(out, heading.Sprint("Above average"))
		for _, s := range r.Spikes {
			fmt.Fprintf(out, "  %s %-28s %14s mean %14s %s\n", alert.Sprint("!"), s.Category, brl(s.Current), brl(s.Mean), pct(s.Pct))
		}
	}
	if len(r.CategoryIncreases) > 0 {
		fmt.Fprintln(out, heading.Sprint("Up from last month"))
		for _, c := range r.CategoryIncreases {
			fmt.Fprintf(out, "  %s %-28s %14s prev %14s %s\n", warn.Sprint("!"), c.Key, brl(c.Current), brl(c.Previous), pct(c.Pct))
		}
	}
	if len(r.HighValue) > 0 {
		fmt.Fprintln(out, heading.Sprint("Unusually high"))
		for _, h := range r.HighValue {
			t := h.Transaction
			fmt.Fprintf(out, "  %s %-40s %-20s %14s avg %14s\n", t.PurchaseDate, t.Description, t.Category, brl(t.Amount), brl(h.Average))
		}
	}
	if len(r.NewSuppliers) > 0 {
		fmt.Fprintln(out, heading.Sprint("New suppliers"))
		for _, t := range r.NewSuppliers {
			fmt.Fprintf(out, "  %s %-40s %14s\n", t.PurchaseDate, t.Description, brl(t.Amount))
		}
	}
	if len(r.MonthOverMonth) > 0 {
		fmt.Fprintln(out, heading.Sprint("By category"))
		for _, c := range r.MonthOverMonth {
			fmt.Fprintf(out, "  %-30s %14s prev %14s %s\n", c.Key, brl(c.Current), brl(c.Previous), pct(c.Pct))
		}
	}
}
