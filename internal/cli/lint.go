package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/condatools/condagen/internal/models"
	"github.com/condatools/condagen/internal/output"
	"github.com/condatools/condagen/internal/recipe"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewLintCmd creates the lint command
func NewLintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint [recipe]",
		Short: "Check a recipe for problems",
		Long: `Parses a recipe and reports structural and semantic problems:
missing required fields, unparseable requirement specs, suspicious
version pins, and drift against an adjacent pyproject.toml.

Exits non-zero when any problem is an error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := recipePath(args)
			rec, err := recipe.Load(path)
			if err != nil {
				return &models.CondagenError{Type: models.ErrRecipeParse, Subject: path, Err: err}
			}

			problems := recipe.LintDir(rec, filepath.Dir(path))
			if len(problems) == 0 {
				logrus.Infof("%s looks good", path)
				return nil
			}

			output.PrintProblems(os.Stdout, problems)
			if recipe.HasErrors(problems) {
				return &models.CondagenError{
					Type:    models.ErrLint,
					Subject: rec.Package.Name,
					Err:     fmt.Errorf("%d problems found", len(problems)),
				}
			}
			return nil
		},
	}

	return cmd
}
