// Package output handles terminal presentation, color, and tables
package output

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Init configures global color output. Color is dropped when asked,
// when NO_COLOR is set, or when stdout is not a terminal.
func Init(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}
