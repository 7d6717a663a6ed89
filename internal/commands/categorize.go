package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/extrato-dev/extrato/internal/categorize"
	"github.com/extrato-dev/extrato/internal/store"
)

func newCategorizeCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Categorize stored transactions with the current rules and keywords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			txns, err := p.store.Transactions(ctx, store.Filter{Uncategorized: !all})
			if err != nil {
				return err
			}
			rules, err := p.store.Rules(ctx)
			if err != nil {
				return err
			}
			n := categorize.New(p.table(), rules).CategorizeBatch(txns)
			if err := p.store.UpdateCategories(ctx, txns); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Categorized %d of %d transactions\n", n, len(txns))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "recategorize every transaction, not only uncategorized ones")
	cmd.AddCommand(newAssignCommand())

	return cmd
}

func newAssignCommand() *cobra.Command {
	var description bool

	cmd := &cobra.Command{
		Use:   "assign <transaction-id|description> <category> [subcategory]",
		Short: "Correct a category and learn a rule from it",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			category := args[1]
			if _, ok := p.table().Lookup(category); !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), warn.Sprintf("warning: %q is not a known category", category))
			}
			var sub string
			if len(args) == 3 {
				sub = args[2]
			}

			trainer := categorize.NewTrainer(p.store)
			var a categorize.Assignment
			if description {
				a, err = trainer.AssignDescription(ctx, args[0], category, sub)
			} else {
				id, perr := strconv.ParseUint(args[0], 10, 64)
				if perr != nil {
					return fmt.Errorf("invalid transaction id %q (use --description to match text)", args[0])
				}
				a, err = trainer.AssignTransaction(ctx, uint(id), category, sub)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rule %q -> %s (used %d times), %d transactions updated\n",
				a.Pattern, category, a.Rule.UsageCount, a.Updated)
			return nil
		},
	}

	cmd.Flags().BoolVar(&description, "description", false, "treat the first argument as a description")

	return cmd
}
