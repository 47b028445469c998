package cli

import (
	"github.com/condatools/condagen/internal/output"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "condagen",
		Short: "Lint, build, and index conda-style package recipes",
		Long: `Condagen turns meta.yaml recipes into .conda artifacts and serves
them from static channel directories.

Typical workflow:
  - condagen lint      check a recipe for problems
  - condagen build     run the build script and package $PREFIX
  - condagen index     generate repodata for a channel directory
  - condagen resolve   pick concrete packages for the requirements`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}

			noColor, _ := cmd.Flags().GetBool("no-color")
			output.Init(noColor)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	// Add subcommands
	rootCmd.AddCommand(NewLintCmd())
	rootCmd.AddCommand(NewRenderCmd())
	rootCmd.AddCommand(NewBuildCmd())
	rootCmd.AddCommand(NewResolveCmd())
	rootCmd.AddCommand(NewVerifyCmd())
	rootCmd.AddCommand(NewLockCmd())
	rootCmd.AddCommand(NewIndexCmd())
	rootCmd.AddCommand(NewWatchCmd())
	rootCmd.AddCommand(NewHistoryCmd())

	return rootCmd
}
