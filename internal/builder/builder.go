// Package builder runs recipe build scripts and packages their output
// as .conda artifacts
package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/condatools/condagen/internal/channel"
	"github.com/condatools/condagen/internal/fetch"
	"github.com/condatools/condagen/internal/models"
	"github.com/condatools/condagen/internal/recipe"
	"github.com/condatools/condagen/internal/resolver"
	"github.com/condatools/condagen/internal/source"
	"github.com/condatools/condagen/internal/utils"
	"github.com/condatools/condagen/internal/version"
	"github.com/sirupsen/logrus"
)

// Builder drives the build pipeline for one recipe
type Builder struct {
	channel *channel.Client
	fetcher fetch.Client
}

// New creates a builder. ch may be nil to skip dependency resolution.
func New(ch *channel.Client, fetcher fetch.Client) *Builder {
	return &Builder{channel: ch, fetcher: fetcher}
}

// Result describes a finished or failed build
type Result struct {
	Name        string
	Version     string
	BuildNumber int
	BuildString string
	Subdir      string
	Artifact    *models.Artifact
	Started     time.Time
	Duration    time.Duration
	WorkDir     string
	LogPath     string
}

// Build runs the full pipeline: lint, resolve, stage the source, run
// the build script, and package the prefix. The Result is non-nil once
// the recipe parses, even when a later stage fails.
func (b *Builder) Build(ctx context.Context, cfg *models.BuildConfig) (*Result, error) {
	started := time.Now()

	rec, err := recipe.Load(cfg.RecipePath)
	if err != nil {
		return nil, &models.CondagenError{Type: models.ErrRecipeParse, Subject: cfg.RecipePath, Err: err}
	}

	res := &Result{
		Name:        rec.Package.Name,
		Version:     rec.Package.Version,
		BuildNumber: rec.Build.Number,
		Started:     started,
	}
	finish := func(err error) (*Result, error) {
		res.Duration = time.Since(started)
		return res, err
	}

	recipeDir := filepath.Dir(cfg.RecipePath)
	problems := recipe.LintDir(rec, recipeDir)
	for _, p := range problems {
		if p.Severity == recipe.SeverityError {
			logrus.Errorf("Lint: %s", p)
		} else {
			logrus.Warnf("Lint: %s", p)
		}
	}
	if recipe.HasErrors(problems) {
		return finish(&models.CondagenError{
			Type:    models.ErrLint,
			Subject: rec.Package.Name,
			Err:     fmt.Errorf("%d lint errors", countErrors(problems)),
		})
	}

	subdir := cfg.Subdir
	if rec.Build.Noarch != "" {
		subdir = "noarch"
	} else if subdir == "" {
		subdir = channel.CurrentSubdir()
	}
	res.Subdir = subdir

	if err := b.resolveBuildDeps(ctx, rec, subdir); err != nil {
		return finish(err)
	}

	workDir := cfg.WorkDir
	tempWork := workDir == ""
	if tempWork {
		if workDir, err = os.MkdirTemp("", "condagen-build-"); err != nil {
			return finish(&models.CondagenError{Type: models.ErrFileOp, Subject: rec.Package.Name, Err: err})
		}
	}
	res.WorkDir = workDir

	srcDir, err := source.Acquire(ctx, rec, recipeDir, workDir, b.fetcher)
	if err != nil {
		return finish(&models.CondagenError{Type: models.ErrSource, Subject: rec.Package.Name, Err: err})
	}

	prefix := filepath.Join(workDir, "prefix")
	if err := utils.EnsureDir(prefix); err != nil {
		return finish(&models.CondagenError{Type: models.ErrFileOp, Subject: rec.Package.Name, Err: err})
	}
	before, err := utils.WalkFiles(prefix)
	if err != nil {
		return finish(&models.CondagenError{Type: models.ErrFileOp, Subject: rec.Package.Name, Err: err})
	}

	runDepends, err := canonicalDepends(rec.Requirements.Run)
	if err != nil {
		return finish(&models.CondagenError{Type: models.ErrLint, Subject: rec.Package.Name, Err: err})
	}
	res.BuildString = buildString(rec, runDepends)

	env := buildEnviron(rec, prefix, srcDir, recipeDir, res.BuildString)
	res.LogPath = filepath.Join(workDir, "build.log")

	logrus.Infof("Running build script (log: %s)", res.LogPath)
	if err := runScript(ctx, rec.Build.Script, srcDir, env, res.LogPath); err != nil {
		return finish(&models.CondagenError{Type: models.ErrBuild, Subject: rec.Package.Name, Err: err})
	}

	after, err := utils.WalkFiles(prefix)
	if err != nil {
		return finish(&models.CondagenError{Type: models.ErrFileOp, Subject: rec.Package.Name, Err: err})
	}
	newFiles := diffFiles(before, after)
	if len(newFiles) == 0 {
		logrus.Warn("Build script created no files under $PREFIX")
	}

	logrus.Infof("Packaging %d files", len(newFiles))
	artifact, err := packageArtifact(packInput{
		Recipe:      rec,
		RecipePath:  cfg.RecipePath,
		Prefix:      prefix,
		Files:       newFiles,
		BuildString: res.BuildString,
		Subdir:      subdir,
		OutputDir:   cfg.OutputDir,
		Depends:     runDepends,
	})
	if err != nil {
		return finish(&models.CondagenError{Type: models.ErrPackaging, Subject: rec.Package.Name, Err: err})
	}
	res.Artifact = artifact
	logrus.Infof("Built %s", artifact.Path)

	if cfg.RunTests && rec.Test != nil {
		if err := b.runTests(ctx, rec, prefix, workDir, env); err != nil {
			return finish(&models.CondagenError{Type: models.ErrBuild, Subject: rec.Package.Name, Err: err})
		}
	}

	if tempWork && !cfg.KeepWork {
		os.RemoveAll(workDir)
		res.WorkDir = ""
		res.LogPath = ""
	} else {
		logrus.Infof("Work directory kept at %s", workDir)
	}
	return finish(nil)
}

// resolveBuildDeps checks the build and host requirements against the
// channel when one is configured
func (b *Builder) resolveBuildDeps(ctx context.Context, rec *recipe.Recipe, subdir string) error {
	if b.channel == nil {
		logrus.Debug("No channel configured, skipping dependency resolution")
		return nil
	}
	reqs := append(append([]string(nil), rec.Requirements.Build...), rec.Requirements.Host...)
	if len(reqs) == 0 {
		return nil
	}
	specs, err := version.ParseSpecs(reqs)
	if err != nil {
		return &models.CondagenError{Type: models.ErrLint, Subject: rec.Package.Name, Err: err}
	}

	subdirs := []string{subdir, "noarch"}
	if subdir == "noarch" {
		// Noarch recipes still build against platform packages like
		// the interpreter itself
		subdirs = []string{"noarch", channel.CurrentSubdir()}
	}

	logrus.Infof("Resolving %d build requirements...", len(specs))
	picks, err := resolver.New(b.channel, subdirs).Resolve(ctx, specs)
	if err != nil {
		return &models.CondagenError{Type: models.ErrResolve, Subject: rec.Package.Name, Err: err}
	}
	for _, p := range picks {
		logrus.Debugf("  %s %s %s (%s)", p.Candidate.Name, p.Candidate.Version, p.Candidate.Build, p.Candidate.Channel)
	}
	return nil
}

// runTests runs the recipe's import checks and test commands inside
// the built prefix
func (b *Builder) runTests(ctx context.Context, rec *recipe.Recipe, prefix, workDir string, env []string) error {
	var lines []string
	for _, imp := range rec.Test.Imports {
		lines = append(lines, fmt.Sprintf("python -c 'import %s'", imp))
	}
	lines = append(lines, rec.Test.Commands...)
	if len(lines) == 0 {
		return nil
	}

	logPath := filepath.Join(workDir, "test.log")
	logrus.Infof("Running %d test commands (log: %s)", len(lines), logPath)
	return runScript(ctx, strings.Join(lines, "\n"), prefix, env, logPath)
}

// canonicalDepends normalizes requirement strings through the spec
// parser so equivalent forms hash and index identically
func canonicalDepends(deps []string) ([]string, error) {
	specs, err := version.ParseSpecs(deps)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.String()
	}
	return out, nil
}

// diffFiles returns the entries of after that are not in before
func diffFiles(before, after []string) []string {
	seen := make(map[string]bool, len(before))
	for _, f := range before {
		seen[f] = true
	}
	var out []string
	for _, f := range after {
		if !seen[f] {
			out = append(out, f)
		}
	}
	return out
}

func countErrors(problems []recipe.Problem) int {
	n := 0
	for _, p := range problems {
		if p.Severity == recipe.SeverityError {
			n++
		}
	}
	return n
}
