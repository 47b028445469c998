package cli

import (
	"github.com/condatools/condagen/internal/lockfile"
	"github.com/condatools/condagen/internal/models"
	"github.com/condatools/condagen/internal/resolver"
	"github.com/condatools/condagen/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewLockCmd creates the lock command
func NewLockCmd() *cobra.Command {
	var channelName string
	var section string
	var subdir string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "lock [recipe]",
		Short: "Resolve the requirements and write a lockfile",
		Long: `Resolves a requirements section against a channel and pins the
outcome to a lockfile with checksums and package URLs. Locking the
same recipe against the same channel state is reproducible.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, specs, err := parseSection(recipePath(args), section)
			if err != nil {
				return &models.CondagenError{Type: models.ErrRecipeParse, Err: err}
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

			entries := make([]lockfile.Entry, 0, len(picks))
			for _, pick := range picks {
				entries = append(entries, lockfile.Entry{
					Name:        pick.Candidate.Name,
					Version:     pick.Candidate.Version,
					Build:       pick.Candidate.Build,
					BuildNumber: pick.Candidate.BuildNumber,
					Subdir:      pick.Candidate.Subdir,
					Filename:    pick.Candidate.Filename,
					Channel:     pick.Candidate.Channel,
					SHA256:      pick.Candidate.SHA256,
				})
			}

			if err := utils.WriteFile(outputPath, lockfile.Emit(entries), 0644); err != nil {
				return &models.CondagenError{Type: models.ErrFileOp, Subject: outputPath, Err: err}
			}
			logrus.Infof("Locked %d packages to %s", len(entries), outputPath)
			return nil
		},
	}

	// Channel flags
	cmd.Flags().StringVarP(&channelName, "channel", "c", "conda-forge", "Channel alias, URL, or local directory")
	cmd.Flags().StringVar(&subdir, "subdir", "", "Target subdir (defaults to this platform)")

	// Selection flags
	cmd.Flags().StringVar(&section, "section", "run", "Requirements section to lock (build, host, run, all)")

	// Output flags
	cmd.Flags().StringVarP(&outputPath, "output", "o", "condagen.lock", "Lockfile path")

	return cmd
}
