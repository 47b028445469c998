package version

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// MatchSpec is a dependency specification: a package name, an optional
// version constraint, and an optional build string glob. Accepted forms:
//
//	numpy
//	numpy >=1.21.5
//	numpy>=1.21.5
//	pandas >=1.0,<2.0
//	python 3.9.*
//	libfoo >=1.2 *_cpython
//
// A comma between constraints means AND, a pipe means OR.
type MatchSpec struct {
	Name       string
	Constraint *semver.Constraints
	Build      string

	rawConstraint string
}

var (
	specNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
	versionLiteral  = regexp.MustCompile(`\d+(\.\d+)*`)
)

// ParseSpec parses a dependency spec string
func ParseSpec(s string) (*MatchSpec, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("empty dependency spec")
	}

	fields := strings.Fields(trimmed)
	name := fields[0]
	rest := fields[1:]

	// allow the constraint glued to the name, as in "numpy>=1.21.5"
	if i := strings.IndexAny(name, "<>=!~"); i >= 0 {
		if i == 0 {
			return nil, fmt.Errorf("dependency spec %q has no package name", s)
		}
		rest = append([]string{name[i:]}, rest...)
		name = name[:i]
	}

	if !specNamePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid package name %q", name)
	}

	spec := &MatchSpec{Name: name}

	switch len(rest) {
	case 0:
	case 2:
		spec.Build = rest[1]
		fallthrough
	case 1:
		c, err := parseConstraint(rest[0])
		if err != nil {
			return nil, fmt.Errorf("invalid constraint for %s: %w", name, err)
		}
		spec.Constraint = c
		spec.rawConstraint = rest[0]
	default:
		return nil, fmt.Errorf("dependency spec %q has too many fields", s)
	}

	return spec, nil
}

// ParseSpecs parses a list of dependency specs
func ParseSpecs(deps []string) ([]*MatchSpec, error) {
	specs := make([]*MatchSpec, 0, len(deps))
	for _, dep := range deps {
		spec, err := ParseSpec(dep)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// parseConstraint normalizes the single-pipe OR form before handing the
// expression to the constraint engine
func parseConstraint(s string) (*semver.Constraints, error) {
	s = strings.ReplaceAll(s, "||", "|")
	s = strings.ReplaceAll(s, "|", "||")
	return semver.NewConstraint(s)
}

// Satisfies reports whether a version satisfies the spec's constraint. A
// spec without a constraint matches any version.
func (m *MatchSpec) Satisfies(v *semver.Version) bool {
	if m.Constraint == nil {
		return true
	}
	return m.Constraint.Check(v)
}

// SatisfiesVersion parses a version string and checks it against the spec
func (m *MatchSpec) SatisfiesVersion(s string) (bool, error) {
	v, err := Parse(s)
	if err != nil {
		return false, err
	}
	return m.Satisfies(v), nil
}

// MatchesBuild reports whether a build string matches the spec's build glob
func (m *MatchSpec) MatchesBuild(build string) bool {
	if m.Build == "" {
		return true
	}
	ok, err := path.Match(m.Build, build)
	return err == nil && ok
}

// MinVersion returns the lowest version literal named by the constraint
func (m *MatchSpec) MinVersion() (*semver.Version, error) {
	if m.rawConstraint == "" {
		return nil, fmt.Errorf("spec %s has no version constraint", m.Name)
	}
	var min *semver.Version
	for _, token := range versionLiteral.FindAllString(m.rawConstraint, -1) {
		v, err := Parse(token)
		if err != nil {
			return nil, err
		}
		if min == nil || v.LessThan(min) {
			min = v
		}
	}
	if min == nil {
		return nil, fmt.Errorf("no version literal in constraint %q", m.rawConstraint)
	}
	return min, nil
}

// String returns the canonical space-separated spec form
func (m *MatchSpec) String() string {
	parts := []string{m.Name}
	if m.rawConstraint != "" {
		parts = append(parts, m.rawConstraint)
	}
	if m.Build != "" {
		parts = append(parts, m.Build)
	}
	return strings.Join(parts, " ")
}
