package recipe

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/condatools/condagen/internal/pyproject"
	"github.com/condatools/condagen/internal/version"
	"github.com/github/go-spdx/v2/spdxexp"
)

// Severity classifies lint problems. Errors block a build, warnings do
// not.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns the severity name
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Problem is a single lint finding
type Problem struct {
	Severity Severity
	Field    string
	Message  string
}

// String returns the problem in "severity: field: message" form
func (p Problem) String() string {
	return fmt.Sprintf("%s: %s: %s", p.Severity, p.Field, p.Message)
}

// HasErrors reports whether any problem is an error
func HasErrors(problems []Problem) bool {
	for _, p := range problems {
		if p.Severity == SeverityError {
			return true
		}
	}
	return false
}

var (
	packageNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
	entryPointPattern  = regexp.MustCompile(`^[A-Za-z0-9._-]+\s*=\s*[A-Za-z0-9._]+:[A-Za-z0-9._]+$`)
)

// Lint checks a recipe for structural and semantic problems
func Lint(r *Recipe) []Problem {
	var problems []Problem

	errf := func(field, format string, args ...interface{}) {
		problems = append(problems, Problem{SeverityError, field, fmt.Sprintf(format, args...)})
	}
	warnf := func(field, format string, args ...interface{}) {
		problems = append(problems, Problem{SeverityWarning, field, fmt.Sprintf(format, args...)})
	}

	// package
	switch {
	case r.Package.Name == "":
		errf("package.name", "name is required")
	case !packageNamePattern.MatchString(r.Package.Name):
		errf("package.name", "invalid package name %q", r.Package.Name)
	}
	if r.Package.Version == "" {
		errf("package.version", "version is required")
	} else if _, err := version.Parse(r.Package.Version); err != nil {
		errf("package.version", "%v", err)
	}

	// build
	if r.Build.Number < 0 {
		errf("build.number", "build number must not be negative")
	}
	if strings.TrimSpace(r.Build.Script) == "" {
		errf("build.script", "build script is required")
	}
	switch r.Build.Noarch {
	case "", "python", "generic":
	default:
		errf("build.noarch", "noarch must be python or generic, got %q", r.Build.Noarch)
	}
	for i, ep := range r.Build.EntryPoints {
		if !entryPointPattern.MatchString(ep) {
			errf(fmt.Sprintf("build.entry_points[%d]", i), "invalid entry point %q, expected name = module:function", ep)
		}
	}

	// requirements
	lintDeps(&problems, "requirements.build", r.Requirements.Build)
	lintDeps(&problems, "requirements.host", r.Requirements.Host)
	lintDeps(&problems, "requirements.run", r.Requirements.Run)

	// about
	if r.About.Summary == "" {
		warnf("about.summary", "summary is empty")
	}
	if r.About.Home == "" {
		warnf("about.home", "home is empty")
	} else {
		lintURL(&problems, "about.home", r.About.Home)
	}
	lintURL(&problems, "about.doc_url", r.About.DocURL)
	lintURL(&problems, "about.dev_url", r.About.DevURL)
	if r.About.License == "" {
		warnf("about.license", "license is empty")
	} else if ok, invalid := spdxexp.ValidateLicenses([]string{r.About.License}); !ok {
		warnf("about.license", "not a valid SPDX expression: %s", strings.Join(invalid, ", "))
	}

	// source
	if r.Source != nil {
		if r.Source.URL == "" && r.Source.Path == "" {
			errf("source", "either url or path is required")
		}
		if r.Source.URL != "" && r.Source.SHA256 == "" && r.Source.MD5 == "" {
			warnf("source", "remote source has no checksum")
		}
	}

	return problems
}

// lintDeps validates each dependency spec and flags duplicates
func lintDeps(problems *[]Problem, field string, deps []string) {
	seen := make(map[string]bool)
	for i, dep := range deps {
		depField := fmt.Sprintf("%s[%d]", field, i)
		spec, err := version.ParseSpec(dep)
		if err != nil {
			*problems = append(*problems, Problem{SeverityError, depField, err.Error()})
			continue
		}
		if spec.Constraint != nil {
			if _, err := spec.MinVersion(); err != nil {
				*problems = append(*problems, Problem{SeverityError, depField, err.Error()})
			}
		}
		if seen[spec.Name] {
			*problems = append(*problems, Problem{SeverityWarning, depField, fmt.Sprintf("duplicate dependency %s", spec.Name)})
		}
		seen[spec.Name] = true
	}
}

// lintURL warns when a URL field does not hold an absolute http(s) URL
func lintURL(problems *[]Problem, field, raw string) {
	if raw == "" {
		return
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		*problems = append(*problems, Problem{SeverityWarning, field, fmt.Sprintf("not an http(s) URL: %q", raw)})
	}
}

// LintDir lints a recipe and, when the recipe directory carries a
// pyproject.toml, cross-checks the run requirements against the declared
// project dependencies.
func LintDir(r *Recipe, dir string) []Problem {
	problems := Lint(r)

	folder := ""
	if r.Source != nil {
		folder = r.Source.Folder
	}
	path, ok := pyproject.Find(dir, folder)
	if !ok {
		return problems
	}
	proj, err := pyproject.Load(path)
	if err != nil {
		problems = append(problems, Problem{SeverityWarning, "pyproject", err.Error()})
		return problems
	}
	return append(problems, crossCheckRun(r, proj)...)
}

// crossCheckRun compares run requirements with pyproject dependencies.
// Missing packages and weaker minimum versions are reported as warnings.
func crossCheckRun(r *Recipe, proj *pyproject.Project) []Problem {
	var problems []Problem

	runMin := make(map[string]string)
	for _, dep := range r.Requirements.Run {
		spec, err := version.ParseSpec(dep)
		if err != nil {
			continue
		}
		name := pyproject.NormalizeName(spec.Name)
		runMin[name] = ""
		if spec.Constraint != nil {
			if min, err := spec.MinVersion(); err == nil {
				runMin[name] = min.String()
			}
		}
	}

	for _, req := range proj.Dependencies {
		name := pyproject.NormalizeName(req.Name)
		min, declared := runMin[name]
		if !declared {
			problems = append(problems, Problem{
				SeverityWarning, "requirements.run",
				fmt.Sprintf("pyproject dependency %s is not listed", req.Name),
			})
			continue
		}
		if req.MinVersion == "" || min == "" {
			continue
		}
		projMin, err := version.Parse(req.MinVersion)
		if err != nil {
			continue
		}
		recipeMin, err := version.Parse(min)
		if err != nil {
			continue
		}
		if recipeMin.LessThan(projMin) {
			problems = append(problems, Problem{
				SeverityWarning, "requirements.run",
				fmt.Sprintf("%s minimum %s is older than pyproject minimum %s", req.Name, min, req.MinVersion),
			})
		}
	}

	return problems
}
