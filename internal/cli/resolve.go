package cli

import (
	"os"

	"github.com/condatools/condagen/internal/models"
	"github.com/condatools/condagen/internal/output"
	"github.com/condatools/condagen/internal/resolver"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewResolveCmd creates the resolve command
func NewResolveCmd() *cobra.Command {
	var channelName string
	var section string
	var subdir string

	cmd := &cobra.Command{
		Use:   "resolve [recipe]",
		Short: "Pick concrete channel packages for the requirements",
		Long: `Resolves a requirements section of the recipe against a channel,
following transitive dependencies, and prints the chosen packages.
Resolution is greedy, the newest satisfying version always wins.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, specs, err := parseSection(recipePath(args), section)
			if err != nil {
				return &models.CondagenError{Type: models.ErrRecipeParse, Err: err}
			}
			if len(specs) == 0 {
				logrus.Warnf("No %s requirements to resolve", section)
				return nil
			}

			client, err := channelClient(channelName)
			if err != nil {
				return &models.CondagenError{Type: models.ErrInvalidConfig, Err: err}
			}

			logrus.Infof("Resolving %d requirements from %s", len(specs), client.Base())
			picks, err := resolver.New(client, resolveSubdirs(subdir)).Resolve(cmd.Context(), specs)
			if err != nil {
				return &models.CondagenError{Type: models.ErrResolve, Err: err}
			}

			table := output.NewTable("NAME", "VERSION", "BUILD", "SUBDIR", "REQUESTED BY")
			for _, pick := range picks {
				table.AddRow(
					pick.Candidate.Name,
					pick.Candidate.Version,
					pick.Candidate.Build,
					pick.Candidate.Subdir,
					pick.RequestedBy,
				)
			}
			table.Render(os.Stdout)
			return nil
		},
	}

	// Channel flags
	cmd.Flags().StringVarP(&channelName, "channel", "c", "conda-forge", "Channel alias, URL, or local directory")
	cmd.Flags().StringVar(&subdir, "subdir", "", "Target subdir (defaults to this platform)")

	// Selection flags
	cmd.Flags().StringVar(&section, "section", "run", "Requirements section to resolve (build, host, run, all)")

	return cmd
}
