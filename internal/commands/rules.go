package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/extrato-dev/extrato/internal/normalize"
)

func newRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage learned categorization rules",
	}
	cmd.AddCommand(newRulesListCommand(), newRulesAddCommand(), newRulesDeleteCommand())
	return cmd
}

func newRulesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules, most used first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			rules, err := p.store.Rules(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rules) == 0 {
				fmt.Fprintln(out, "No rules")
				return nil
			}
			for _, r := range rules {
				target := r.Category
				if r.Subcategory != "" {
					target += " / " + r.Subcategory
				}
				fmt.Fprintf(out, "%-40s %-35s %5d\n", r.Pattern, target, r.UsageCount)
			}
			return nil
		},
	}
}

func newRulesAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <pattern> <category> [subcategory]",
		Short: "Add a rule, or reaffirm an existing one",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := normalize.Pattern(args[0])
			if pattern == "" {
				return fmt.Errorf("pattern %q is empty after normalization", args[0])
			}
			var sub string
			if len(args) == 3 {
				sub = args[2]
			}

			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			r, err := p.store.UpsertRule(ctx, pattern, args[1], sub)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rule %q -> %s (used %d times)\n", r.Pattern, r.Category, r.UsageCount)
			return nil
		},
	}
}

func newRulesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <pattern>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			pattern := normalize.Pattern(args[0])
			if err := p.store.DeleteRule(ctx, pattern); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted rule %q\n", pattern)
			return nil
		},
	}
}

func newCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories and subcategories in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			out := cmd.OutOrStdout()
			for _, c := range p.table().Categories() {
				fmt.Fprintln(out, heading.Sprint(c.Name))
				if len(c.Subcategories) > 0 {
					fmt.Fprintf(out, "  %s\n", strings.Join(c.Subcategories, ", "))
				}
			}
			return nil
		},
	}
}
