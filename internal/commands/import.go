package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/extrato-dev/extrato/internal/ingest"
	"github.com/extrato-dev/extrato/internal/intake"
	"github.com/extrato-dev/extrato/internal/model"
)

func newImportCommand() *cobra.Command {
	var month string
	var keep bool

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import CSV or ZIP statements",
		Long: "Import the given files, or every CSV and ZIP in the import directory.\n" +
			"Files taken from the import directory are moved to its processed/ subdirectory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var ref model.Month
			if month != "" {
				m, err := model.ParseMonth(month)
				if err != nil {
					return err
				}
				ref = m
			}

			p, ctx, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()
			return runImport(ctx, cmd.OutOrStdout(), p, args, ref, keep)
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "billing month of card statements (YYYY-MM)")
	cmd.Flags().BoolVar(&keep, "keep", false, "leave files in the import directory")

	return cmd
}

func runImport(ctx context.Context, out io.Writer, p *project, paths []string, ref model.Month, keep bool) error {
	fromDir := len(paths) == 0
	if fromDir {
		files, err := intake.Scan(p.importDir())
		if err != nil {
			return err
		}
		for _, f := range files {
			paths = append(paths, f.Path)
		}
		if len(paths) == 0 {
			fmt.Fprintf(out, "No files in %s\n", p.importDir())
			return nil
		}
	}

	svc := ingest.NewService(p.store, p.table())
	inserted := 0
	var failed []string
	for _, path := range paths {
		files, err := intake.ReadFile(path)
		if err != nil {
			if errors.Is(err, intake.ErrNoCSV) || errors.Is(err, intake.ErrEncrypted) {
				fmt.Fprintf(out, "%s: %v\n", filepath.Base(path), err)
				failed = append(failed, path)
				continue
			}
			return err
		}
		for _, f := range files {
			res, err := svc.Import(ctx, ingest.Input{FileName: f.Name, Text: f.Text, Hash: f.Hash, ReferenceMonth: ref})
			if err != nil {
				return err
			}
			printImport(out, res)
			inserted += res.Inserted
		}
		if fromDir && !keep {
			if err := intake.MarkProcessed(p.importDir(), filepath.Base(path)); err != nil {
				return err
			}
		}
	}

	if inserted > 0 {
		items, err := p.recurringService().Refresh(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d recurring items\n", len(items))
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d file(s) could not be read", len(failed))
	}
	return nil
}

func printImport(out io.Writer, res *ingest.Result) {
	switch res.Status {
	case ingest.StatusImported:
		fmt.Fprintf(out, "%s: %s %s, %d imported, %d duplicates, %d skipped, %d rejected, %d categorized\n",
			res.FileName, res.Layout, res.ReferenceMonth, res.Inserted, res.Duplicates, res.Skipped, len(res.RowErrors), res.Categorized)
	default:
		fmt.Fprintf(out, "%s: %s\n", res.FileName, warn.Sprint(res.Reason))
	}
}
