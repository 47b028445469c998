// Package resolver picks concrete channel candidates for requirement specs
package resolver

import (
	"context"
	"sort"

	"github.com/condatools/condagen/internal/channel"
	"github.com/condatools/condagen/internal/version"
	"github.com/sirupsen/logrus"
)

// Pick is one resolved requirement
type Pick struct {
	Candidate   channel.Candidate
	RequestedBy string
}

// Resolver resolves requirement specs against one channel
type Resolver struct {
	channel *channel.Client
	subdirs []string
}

// New creates a resolver that searches the given subdirs in order
func New(ch *channel.Client, subdirs []string) *Resolver {
	return &Resolver{channel: ch, subdirs: subdirs}
}

// Resolve picks a candidate for every spec and its transitive
// dependencies. Resolution is greedy, the newest satisfying version
// wins and later conflicts are reported rather than backtracked.
func (r *Resolver) Resolve(ctx context.Context, specs []*version.MatchSpec) ([]Pick, error) {
	resolved := make(map[string]Pick)
	resolving := make(map[string]bool)

	for _, spec := range specs {
		if err := r.resolveOne(ctx, spec, "the recipe", resolved, resolving); err != nil {
			return nil, err
		}
	}

	picks := make([]Pick, 0, len(resolved))
	for _, p := range resolved {
		picks = append(picks, p)
	}
	sort.Slice(picks, func(i, j int) bool {
		return picks[i].Candidate.Name < picks[j].Candidate.Name
	})
	return picks, nil
}

func (r *Resolver) resolveOne(ctx context.Context, spec *version.MatchSpec, requestedBy string, resolved map[string]Pick, resolving map[string]bool) error {
	if prev, ok := resolved[spec.Name]; ok {
		satisfied, err := spec.SatisfiesVersion(prev.Candidate.Version)
		if err != nil || !satisfied {
			return &ConflictError{
				Name:        spec.Name,
				Picked:      prev.Candidate.Version,
				PickedBy:    prev.RequestedBy,
				Spec:        spec.String(),
				RequestedBy: requestedBy,
			}
		}
		return nil
	}
	if resolving[spec.Name] {
		// Dependency cycle, the package is already being picked
		// further up the stack
		return nil
	}
	resolving[spec.Name] = true
	defer delete(resolving, spec.Name)

	candidates, err := r.channel.Lookup(ctx, spec.Name, r.subdirs)
	if err != nil {
		return err
	}

	best := pickBest(spec, candidates)
	if best == nil {
		return &UnsatisfiableError{
			Spec:      spec.String(),
			Channel:   r.channel.Base(),
			Available: availableVersions(candidates, 5),
		}
	}
	logrus.Debugf("Picked %s %s %s for %q", best.Name, best.Version, best.Build, spec)

	resolved[spec.Name] = Pick{Candidate: *best, RequestedBy: requestedBy}

	for _, raw := range best.Depends {
		dep, err := version.ParseSpec(raw)
		if err != nil {
			logrus.Debugf("Skipping unparseable dependency %q of %s: %v", raw, best.Name, err)
			continue
		}
		if err := r.resolveOne(ctx, dep, best.Name, resolved, resolving); err != nil {
			return err
		}
	}
	return nil
}

// pickBest returns the first candidate satisfying spec. Candidates
// arrive sorted newest first.
func pickBest(spec *version.MatchSpec, candidates []channel.Candidate) *channel.Candidate {
	for i := range candidates {
		c := &candidates[i]
		v, err := version.Parse(c.Version)
		if err != nil {
			logrus.Debugf("Skipping %s %s: %v", c.Name, c.Version, err)
			continue
		}
		if !spec.Satisfies(v) || !spec.MatchesBuild(c.Build) {
			continue
		}
		return c
	}
	return nil
}

// availableVersions lists up to max distinct versions for error messages
func availableVersions(candidates []channel.Candidate, max int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range candidates {
		if seen[c.Version] {
			continue
		}
		seen[c.Version] = true
		out = append(out, c.Version)
		if len(out) == max {
			break
		}
	}
	return out
}
