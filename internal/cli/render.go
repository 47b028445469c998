package cli

import (
	"os"

	"github.com/condatools/condagen/internal/models"
	"github.com/condatools/condagen/internal/recipe"
	"github.com/condatools/condagen/internal/utils"
	"github.com/spf13/cobra"
)

// NewRenderCmd creates the render command
func NewRenderCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "render [recipe]",
		Short: "Re-render a recipe in canonical form",
		Long: `Parses a recipe, applies the selectors for this platform, and prints
the canonical YAML rendering. Rendering is stable, feeding the output
back in produces identical bytes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := recipePath(args)
			rec, err := recipe.Load(path)
			if err != nil {
				return &models.CondagenError{Type: models.ErrRecipeParse, Subject: path, Err: err}
			}

			data, err := recipe.Render(rec)
			if err != nil {
				return err
			}
			if outputPath == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			return utils.WriteFile(outputPath, data, 0644)
		},
	}

	// Output flags
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}
