package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/condatools/condagen/internal/utils"
	"github.com/sirupsen/logrus"
)

const logTailLines = 20

// BuildScriptError carries the exit code and log location of a failed
// build script
type BuildScriptError struct {
	ExitCode int
	LogPath  string
	LogTail  string
}

func (e *BuildScriptError) Error() string {
	msg := fmt.Sprintf("build script failed with exit code %d (full log: %s)", e.ExitCode, e.LogPath)
	if e.LogTail != "" {
		msg += "\n" + e.LogTail
	}
	return msg
}

// runScript runs a shell script in dir, teeing its output to the log
// file and to debug logging
func runScript(ctx context.Context, script, dir string, env []string, logPath string) error {
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("cannot create build log: %w", err)
	}
	defer logFile.Close()

	debugWriter := logrus.StandardLogger().WriterLevel(logrus.DebugLevel)
	defer debugWriter.Close()
	output := io.MultiWriter(logFile, debugWriter)

	cmd := exec.CommandContext(ctx, "sh", "-c", script)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = output
	cmd.Stderr = output

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &BuildScriptError{
				ExitCode: exitErr.ExitCode(),
				LogPath:  logPath,
				LogTail:  utils.TailLines(logPath, logTailLines),
			}
		}
		return fmt.Errorf("cannot run build script: %w", err)
	}
	return nil
}
