package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/condatools/condagen/internal/config"
	"github.com/condatools/condagen/internal/models"
	"github.com/condatools/condagen/internal/output"
	"github.com/condatools/condagen/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [package]",
		Short: "Show recent builds",
		Long: `Lists recent builds from the local history database, newest first.
With a package name, shows only the latest successful build of that
package.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, err := config.DataDir()
			if err != nil {
				return &models.CondagenError{Type: models.ErrInvalidConfig, Err: err}
			}
			db, err := store.Open(filepath.Join(dataDir, "history.db"))
			if err != nil {
				return err
			}
			defer db.Close()

			var builds []store.BuildRecord
			if len(args) > 0 {
				latest, err := db.LatestSuccess(args[0])
				if err != nil {
					return err
				}
				if latest == nil {
					logrus.Infof("No successful build of %s recorded", args[0])
					return nil
				}
				builds = []store.BuildRecord{*latest}
			} else {
				if builds, err = db.ListBuilds(limit); err != nil {
					return err
				}
			}
			if len(builds) == 0 {
				logrus.Info("No builds recorded yet")
				return nil
			}

			table := output.NewTable("WHEN", "PACKAGE", "VERSION", "BUILD", "STATUS", "DURATION", "ARTIFACT")
			for _, b := range builds {
				artifact := b.ArtifactPath
				if artifact == "" {
					artifact = "-"
				}
				table.AddRow(
					b.StartedAt.Local().Format("2006-01-02 15:04:05"),
					b.Name,
					b.Version,
					b.BuildString,
					b.Status,
					(time.Duration(b.DurationMS) * time.Millisecond).String(),
					artifact,
				)
			}
			table.Render(os.Stdout)
			return nil
		},
	}

	// Output flags
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of builds to show")

	return cmd
}
