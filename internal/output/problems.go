package output

import (
	"fmt"
	"io"

	"github.com/condatools/condagen/internal/recipe"
	"github.com/fatih/color"
)

var (
	errorLabel   = color.New(color.FgRed, color.Bold).SprintFunc()
	warningLabel = color.New(color.FgYellow).SprintFunc()
)

// PrintProblems writes lint problems with severity coloring
func PrintProblems(w io.Writer, problems []recipe.Problem) {
	for _, p := range problems {
		label := warningLabel(p.Severity.String())
		if p.Severity == recipe.SeverityError {
			label = errorLabel(p.Severity.String())
		}
		fmt.Fprintf(w, "%s: %s: %s\n", label, p.Field, p.Message)
	}
}
