package commands

import (
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/extrato-dev/extrato/internal/model"
	"github.com/extrato-dev/extrato/internal/money"
)

func newInstallmentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "installments",
		Short: "Manually declared installment plans",
	}
	cmd.AddCommand(newInstallmentsAddCommand(), newInstallmentsListCommand(), newInstallmentsDeleteCommand())
	return cmd
}

func newInstallmentsAddCommand() *cobra.Command {
	var start, category string

	cmd := &cobra.Command{
		Use:   "add <description> <total> <count>",
		Short: "Declare a purchase split over several months",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := parseAmountFlag(args[1])
			if err != nil {
				return err
			}
			count, err := strconv.Atoi(args[2])
			if err != nil || count < 1 {
				return fmt.Errorf("invalid installment count %q", args[2])
			}
			startDate := civil.DateOf(time.Now())
			if start != "" {
				d, ok := money.ParseDate(start)
				if !ok {
					return fmt.Errorf("invalid start date %q", start)
				}
				startDate = d
			}

			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			id, err := p.store.AddInstallmentPlan(ctx, model.InstallmentPlan{
				Description:      args[0],
				Category:         category,
				TotalAmount:      total,
				InstallmentCount: count,
				StartDate:        startDate,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plan %d: %d x %s from %s\n", id, count, brl(total.DivRound(decimal.NewFromInt(int64(count)), 2)), model.MonthOf(startDate))
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "date of the first installment (default today)")
	cmd.Flags().StringVar(&category, "category", "", "category")

	return cmd
}

func newInstallmentsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installment plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			plans, err := p.store.InstallmentPlans(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(plans) == 0 {
				fmt.Fprintln(out, "No installment plans")
				return nil
			}
			for _, pl := range plans {
				end := model.MonthOf(pl.StartDate).AddMonths(pl.InstallmentCount - 1)
				fmt.Fprintf(out, "%4d %-40s %14s %3dx %s..%s\n",
					pl.ID, pl.Description, brl(pl.TotalAmount), pl.InstallmentCount, model.MonthOf(pl.StartDate), end)
			}
			return nil
		},
	}
}

func newInstallmentsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an installment plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid plan id %q", args[0])
			}

			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			if err := p.store.DeleteInstallmentPlan(ctx, uint(id)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted plan %d\n", id)
			return nil
		},
	}
}
