package cli

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/condatools/condagen/internal/models"
	"github.com/condatools/condagen/internal/output"
	"github.com/condatools/condagen/internal/recipe"
	"github.com/condatools/condagen/internal/watcher"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [recipe]",
		Short: "Re-lint a recipe on every change",
		Long: `Watches the recipe file and reruns lint plus a render check whenever
it is saved. Useful while iterating on a recipe in an editor. Stop
with Ctrl-C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := recipePath(args)
			if _, err := os.Stat(path); err != nil {
				return &models.CondagenError{
					Type:    models.ErrInvalidConfig,
					Subject: path,
					Err:     err,
				}
			}

			check := func() {
				rec, err := recipe.Load(path)
				if err != nil {
					logrus.Errorf("FAIL %s: %v", path, err)
					return
				}
				problems := recipe.LintDir(rec, filepath.Dir(path))
				output.PrintProblems(os.Stdout, problems)
				if recipe.HasErrors(problems) {
					logrus.Errorf("FAIL %s", path)
					return
				}
				if _, err := recipe.Render(rec); err != nil {
					logrus.Errorf("FAIL %s: %v", path, err)
					return
				}
				logrus.Infof("OK %s %s", rec.Package.Name, rec.Package.Version)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Lint once up front so the first result does not wait for an edit
			check()
			return watcher.New(path, debounce, check).Run(ctx)
		},
	}

	// Behavior flags
	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "Quiet period before re-linting")

	return cmd
}
