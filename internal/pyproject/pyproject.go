package pyproject

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// Filename is the standard Python project metadata file
const Filename = "pyproject.toml"

// Project is the subset of pyproject.toml metadata used for recipe
// cross-checks.
type Project struct {
	Name           string
	RequiresPython string
	Dependencies   []Requirement
}

// Requirement is a single project dependency
type Requirement struct {
	Name       string
	MinVersion string // lowest version accepted by a >= clause, empty if none
	Raw        string
}

type document struct {
	Project struct {
		Name           string   `toml:"name"`
		RequiresPython string   `toml:"requires-python"`
		Dependencies   []string `toml:"dependencies"`
	} `toml:"project"`
}

// Find locates a pyproject.toml next to the recipe or under the source
// folder. It returns the path and whether one was found.
func Find(recipeDir, sourceFolder string) (string, bool) {
	candidates := []string{filepath.Join(recipeDir, Filename)}
	if sourceFolder != "" {
		candidates = append(candidates, filepath.Join(recipeDir, sourceFolder, Filename))
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// Load reads and parses a pyproject.toml file
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	proj := &Project{
		Name:           doc.Project.Name,
		RequiresPython: doc.Project.RequiresPython,
	}
	for _, raw := range doc.Project.Dependencies {
		req, err := ParseRequirement(raw)
		if err != nil {
			logrus.Debugf("Skipping unparseable requirement %q: %v", raw, err)
			continue
		}
		proj.Dependencies = append(proj.Dependencies, req)
	}
	return proj, nil
}

var (
	requirementPattern = regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9._-]*)\s*(\[[^\]]*\])?\s*(.*)$`)
	minVersionPattern  = regexp.MustCompile(`>=\s*([0-9][0-9A-Za-z.]*)`)
	separatorRun       = regexp.MustCompile(`[-_.]+`)
)

// ParseRequirement parses a PEP 508 style requirement string, keeping
// the name and the >= minimum if one is present. Environment markers
// after a semicolon are ignored.
func ParseRequirement(raw string) (Requirement, error) {
	spec := raw
	if i := strings.Index(spec, ";"); i >= 0 {
		spec = spec[:i]
	}
	m := requirementPattern.FindStringSubmatch(spec)
	if m == nil || m[1] == "" {
		return Requirement{}, fmt.Errorf("invalid requirement %q", raw)
	}
	req := Requirement{Name: m[1], Raw: raw}
	if vm := minVersionPattern.FindStringSubmatch(m[3]); vm != nil {
		req.MinVersion = vm[1]
	}
	return req, nil
}

// NormalizeName lowercases a package name and collapses runs of dots,
// dashes, and underscores to a single dash, per PEP 503.
func NormalizeName(name string) string {
	return separatorRun.ReplaceAllString(strings.ToLower(name), "-")
}
