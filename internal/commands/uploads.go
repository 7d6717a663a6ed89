package commands

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

func newUploadsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "List imported files, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			uploads, err := p.store.Uploads(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(uploads) == 0 {
				fmt.Fprintln(out, "No uploads")
				return nil
			}
			for _, u := range uploads {
				fmt.Fprintf(out, "%s %-40s %-8s %s %5d  %s\n",
					u.CreatedAt.Format("2006-01-02 15:04"), u.FileName, u.Layout, u.ReferenceMonth, u.Count, u.Hash[:min(12, len(u.Hash))])
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of uploads (0 for all)")

	return cmd
}

func newAliasesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aliases",
		Short: "Display names for descriptions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			aliases, err := p.store.Aliases(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, orig := range slices.Sorted(maps.Keys(aliases)) {
				fmt.Fprintf(out, "%-40s -> %s\n", orig, aliases[orig])
			}
			return nil
		},
	}, &cobra.Command{
		Use:   "set <description> <alias>",
		Short: "Show description as alias",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			if err := p.store.SetAlias(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], args[1])
			return nil
		},
	}, &cobra.Command{
		Use:   "delete <description>",
		Short: "Remove an alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			if err := p.store.DeleteAlias(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted alias for %s\n", args[0])
			return nil
		},
	})

	return cmd
}
