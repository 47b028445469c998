package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Parse parses a package version as a semantic version. It tolerates a
// leading "v" and missing minor or patch segments, but rejects epochs
// and four-segment versions.
func Parse(s string) (*semver.Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty version")
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return v, nil
}
