package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/extrato-dev/extrato/internal/export"
	"github.com/extrato-dev/extrato/internal/model"
	"github.com/extrato-dev/extrato/internal/store"
)

func newExportCommand() *cobra.Command {
	var month, output string
	var aliases bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write transactions as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			var f store.Filter
			if month != "" {
				m, err := model.ParseMonth(month)
				if err != nil {
					return err
				}
				f.Months = []model.Month{m}
			}
			txns, err := p.store.Transactions(ctx, f)
			if err != nil {
				return err
			}
			if aliases {
				names, err := p.store.Aliases(ctx)
				if err != nil {
					return err
				}
				store.ApplyAliases(txns, names)
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer file.Close()
				w = file
			}
			if err := export.WriteTransactions(w, txns); err != nil {
				return err
			}
			if output != "" && output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d transactions to %s\n", len(txns), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "only this reference month (YYYY-MM)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&aliases, "aliases", false, "replace descriptions with their aliases")

	return cmd
}
