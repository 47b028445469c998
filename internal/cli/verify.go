package cli

import (
	"fmt"
	"os"

	"github.com/condatools/condagen/internal/models"
	"github.com/condatools/condagen/internal/output"
	"github.com/condatools/condagen/internal/resolver"
	"github.com/spf13/cobra"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var prefix string
	var section string

	cmd := &cobra.Command{
		Use:   "verify [recipe]",
		Short: "Check an installed prefix against the requirements",
		Long: `Reads the conda-meta records of an installed environment and checks
every requirement of the recipe against what is actually installed.

Exits non-zero when any requirement is missing or violated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, specs, err := parseSection(recipePath(args), section)
			if err != nil {
				return &models.CondagenError{Type: models.ErrRecipeParse, Err: err}
			}

			installed, err := resolver.ReadPrefix(prefix)
			if err != nil {
				return &models.CondagenError{Type: models.ErrInvalidConfig, Err: err}
			}

			results := resolver.VerifyPrefix(specs, installed)
			table := output.NewTable("SPEC", "STATUS", "INSTALLED")
			violations := 0
			for _, res := range results {
				have := "-"
				if res.Installed != nil {
					have = fmt.Sprintf("%s %s %s", res.Installed.Name, res.Installed.Version, res.Installed.Build)
				}
				if res.Status != resolver.StatusSatisfied {
					violations++
				}
				table.AddRow(res.Spec.String(), res.Status.String(), have)
			}
			table.Render(os.Stdout)

			if violations > 0 {
				return &models.CondagenError{
					Type: models.ErrResolve,
					Err:  fmt.Errorf("%d of %d requirements not satisfied", violations, len(results)),
				}
			}
			return nil
		},
	}

	// Environment flags
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "Root of the installed environment")

	// Selection flags
	cmd.Flags().StringVar(&section, "section", "run", "Requirements section to verify (build, host, run, all)")

	cmd.MarkFlagRequired("prefix")

	return cmd
}
