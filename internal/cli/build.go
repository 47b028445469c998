package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/condatools/condagen/internal/builder"
	"github.com/condatools/condagen/internal/channel"
	"github.com/condatools/condagen/internal/config"
	"github.com/condatools/condagen/internal/models"
	"github.com/condatools/condagen/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewBuildCmd creates the build command
func NewBuildCmd() *cobra.Command {
	var cfg models.BuildConfig

	cmd := &cobra.Command{
		Use:   "build [recipe]",
		Short: "Build a recipe into a .conda artifact",
		Long: `Runs the full build pipeline: lint the recipe, resolve its build
requirements against a channel, stage the source, run the build
script, and package everything it installed into $PREFIX.

Every attempt is recorded in the local build history, see
'condagen history'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.RecipePath = recipePath(args)

			// Validate configuration
			if err := validateBuildConfig(&cfg); err != nil {
				return err
			}

			var client *channel.Client
			if cfg.Channel != "" {
				var err error
				client, err = channelClient(cfg.Channel)
				if err != nil {
					return &models.CondagenError{Type: models.ErrInvalidConfig, Err: err}
				}
			}

			logrus.Infof("Building %s...", cfg.RecipePath)
			res, err := builder.New(client, newFetcher()).Build(cmd.Context(), &cfg)
			recordBuild(res, err)
			return err
		},
	}

	// Input/Output flags
	cmd.Flags().StringVarP(&cfg.OutputDir, "output-dir", "o", "./dist", "Directory for built artifacts")

	// Environment flags
	cmd.Flags().StringVarP(&cfg.Channel, "channel", "c", "", "Channel for dependency resolution (omit to skip)")
	cmd.Flags().StringVar(&cfg.Subdir, "subdir", "", "Target subdir (defaults to this platform)")
	cmd.Flags().StringVar(&cfg.WorkDir, "work-dir", "", "Scratch directory (defaults to a temp dir)")

	// Behavior flags
	cmd.Flags().BoolVar(&cfg.KeepWork, "keep-work", false, "Keep the work directory after a successful build")
	cmd.Flags().BoolVar(&cfg.RunTests, "test", false, "Run the recipe's test commands after packaging")

	return cmd
}

func validateBuildConfig(cfg *models.BuildConfig) error {
	if cfg.OutputDir == "" {
		return &models.CondagenError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("output directory is required"),
		}
	}
	if _, err := os.Stat(cfg.RecipePath); err != nil {
		return &models.CondagenError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("recipe does not exist: %s", cfg.RecipePath),
		}
	}
	return nil
}

// recordBuild stores the outcome in the history database, best effort
func recordBuild(res *builder.Result, buildErr error) {
	if res == nil {
		return
	}
	dataDir, err := config.DataDir()
	if err != nil {
		logrus.Debugf("No data directory for build history: %v", err)
		return
	}
	db, err := store.Open(filepath.Join(dataDir, "history.db"))
	if err != nil {
		logrus.Debugf("Cannot open build history: %v", err)
		return
	}
	defer db.Close()

	rec := &store.BuildRecord{
		Name:        res.Name,
		Version:     res.Version,
		BuildNumber: res.BuildNumber,
		BuildString: res.BuildString,
		Subdir:      res.Subdir,
		Status:      store.StatusFailed,
		StartedAt:   res.Started,
		DurationMS:  res.Duration.Milliseconds(),
	}
	if buildErr == nil && res.Artifact != nil {
		rec.Status = store.StatusSuccess
		rec.RecipePath = res.Artifact.RecipePath
		rec.ArtifactPath = res.Artifact.Path
		rec.SHA256 = res.Artifact.SHA256Sum
		rec.Size = res.Artifact.Size
	}
	if _, err := db.RecordBuild(rec); err != nil {
		logrus.Debugf("Cannot record build: %v", err)
	}
}
