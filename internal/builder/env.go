package builder

import (
	"fmt"
	"os"

	"github.com/condatools/condagen/internal/recipe"
)

// buildEnviron returns the environment for the build script, the
// inherited environment plus the conda-build style variables
func buildEnviron(rec *recipe.Recipe, prefix, srcDir, recipeDir, buildString string) []string {
	env := os.Environ()
	return append(env,
		"PREFIX="+prefix,
		"SRC_DIR="+srcDir,
		"RECIPE_DIR="+recipeDir,
		"PKG_NAME="+rec.Package.Name,
		"PKG_VERSION="+rec.Package.Version,
		fmt.Sprintf("PKG_BUILDNUM=%d", rec.Build.Number),
		"PKG_BUILD_STRING="+buildString,
	)
}
