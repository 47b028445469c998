package cli

import (
	"fmt"

	"github.com/condatools/condagen/internal/channel"
	"github.com/condatools/condagen/internal/models"
	"github.com/condatools/condagen/internal/signer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewIndexCmd creates the index command
func NewIndexCmd() *cobra.Command {
	var config models.IndexConfig

	cmd := &cobra.Command{
		Use:   "index <dir>",
		Short: "Generate channel metadata for a directory of artifacts",
		Long: `Scans a directory for built .conda and .tar.bz2 artifacts, sorts them
into their subdirs, and writes per-subdir repodata.json files plus a
channeldata.json summary. The result can be served as a static
channel by any web server.

With a GPG key the repodata is signed and the public key published
alongside it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.InputDir = args[0]

			// Setup GPG signer if key provided
			var sig signer.Signer
			if config.GPGKeyPath != "" {
				var err error
				sig, err = signer.NewGPGSigner(config.GPGKeyPath, config.GPGPassphrase)
				if err != nil {
					return &models.CondagenError{
						Type: models.ErrSigning,
						Err:  fmt.Errorf("failed to initialize GPG signer: %w", err),
					}
				}
				logrus.Info("GPG signing enabled")
			}

			return channel.NewIndexer(sig).Generate(cmd.Context(), &config)
		},
	}

	// Channel metadata flags
	cmd.Flags().StringVar(&config.BaseURL, "base-url", "", "Public base URL recorded in channeldata.json")

	// GPG signing flags
	cmd.Flags().StringVarP(&config.GPGKeyPath, "gpg-key", "k", "", "Path to GPG private key for signing")
	cmd.Flags().StringVarP(&config.GPGPassphrase, "gpg-passphrase", "p", "", "Passphrase for GPG private key")

	return cmd
}
