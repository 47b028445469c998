package resolver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/condatools/condagen/internal/version"
)

// InstalledPackage is one conda-meta record from an installed prefix
type InstalledPackage struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Build       string `json:"build"`
	BuildNumber int    `json:"build_number"`
}

// VerifyStatus classifies one spec against a prefix
type VerifyStatus int

const (
	StatusSatisfied VerifyStatus = iota
	StatusViolated
	StatusMissing
)

func (s VerifyStatus) String() string {
	switch s {
	case StatusSatisfied:
		return "satisfied"
	case StatusViolated:
		return "violated"
	case StatusMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// VerifyResult pairs a spec with what the prefix actually holds
type VerifyResult struct {
	Spec      *version.MatchSpec
	Status    VerifyStatus
	Installed *InstalledPackage
}

// ReadPrefix loads the conda-meta records of an installed environment,
// sorted by package name
func ReadPrefix(prefix string) ([]InstalledPackage, error) {
	metaDir := filepath.Join(prefix, "conda-meta")
	entries, err := os.ReadDir(metaDir)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", metaDir, err)
	}

	var installed []InstalledPackage
	for _, entry := range entries {
		// conda-meta also holds the history file, only records are JSON
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(metaDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		var pkg InstalledPackage
		if err := json.Unmarshal(data, &pkg); err != nil {
			return nil, fmt.Errorf("invalid conda-meta record %s: %w", entry.Name(), err)
		}
		if pkg.Name == "" {
			continue
		}
		installed = append(installed, pkg)
	}
	sort.Slice(installed, func(i, j int) bool { return installed[i].Name < installed[j].Name })
	return installed, nil
}

// VerifyPrefix checks every spec against the installed packages
func VerifyPrefix(specs []*version.MatchSpec, installed []InstalledPackage) []VerifyResult {
	byName := make(map[string]*InstalledPackage, len(installed))
	for i := range installed {
		byName[installed[i].Name] = &installed[i]
	}

	results := make([]VerifyResult, 0, len(specs))
	for _, spec := range specs {
		pkg, ok := byName[spec.Name]
		if !ok {
			results = append(results, VerifyResult{Spec: spec, Status: StatusMissing})
			continue
		}
		res := VerifyResult{Spec: spec, Installed: pkg, Status: StatusSatisfied}
		satisfied, err := spec.SatisfiesVersion(pkg.Version)
		if err != nil || !satisfied || !spec.MatchesBuild(pkg.Build) {
			res.Status = StatusViolated
		}
		results = append(results, res)
	}
	return results
}
