package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/extrato-dev/extrato/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "extrato",
		Short:   "Bank statement categorization and recurring charge tracking",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("dir", ".", "project directory")

	rootCmd.AddCommand(
		newInitCommand(),
		newImportCommand(),
		newCategorizeCommand(),
		newRulesCommand(),
		newCategoriesCommand(),
		newRecurringCommand(),
		newInstallmentsCommand(),
		newAnomaliesCommand(),
		newSummaryCommand(),
		newExportCommand(),
		newUploadsCommand(),
		newAliasesCommand(),
	)

	return rootCmd
}
