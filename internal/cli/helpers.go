package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/condatools/condagen/internal/channel"
	"github.com/condatools/condagen/internal/config"
	"github.com/condatools/condagen/internal/fetch"
	"github.com/condatools/condagen/internal/recipe"
	"github.com/condatools/condagen/internal/version"
)

// repodataTTL is how long cached repodata stays fresh
const repodataTTL = 24 * time.Hour

// circuitThreshold is how many consecutive failures trip a host's circuit breaker
const circuitThreshold = 5

// recipePath resolves the recipe argument, a directory means its meta.yaml
func recipePath(args []string) string {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, recipe.DefaultFilename)
	}
	return path
}

// newFetcher builds the shared HTTP fetcher
func newFetcher() fetch.Client {
	return fetch.NewCircuitBreakerFetcher(fetch.NewFetcher(), circuitThreshold)
}

// channelClient resolves a channel name and builds a client for it
func channelClient(name string) (*channel.Client, error) {
	base, err := config.ResolveChannel(name, config.LoadChannelAliases())
	if err != nil {
		return nil, err
	}
	cacheDir, err := config.CacheDir()
	if err != nil {
		cacheDir = filepath.Join(os.TempDir(), "condagen-cache")
	}
	return channel.NewClient(base, newFetcher(), cacheDir, repodataTTL), nil
}

// resolveSubdirs returns the subdirs to search, the target platform plus noarch
func resolveSubdirs(subdir string) []string {
	if subdir == "" {
		subdir = channel.CurrentSubdir()
	}
	if subdir == "noarch" {
		return []string{"noarch", channel.CurrentSubdir()}
	}
	return []string{subdir, "noarch"}
}

// sectionDeps picks one requirements section of the recipe, or all of them
func sectionDeps(rec *recipe.Recipe, section string) ([]string, error) {
	switch section {
	case "run":
		return rec.Requirements.Run, nil
	case "build":
		return rec.Requirements.Build, nil
	case "host":
		return rec.Requirements.Host, nil
	case "all":
		var all []string
		all = append(all, rec.Requirements.Build...)
		all = append(all, rec.Requirements.Host...)
		all = append(all, rec.Requirements.Run...)
		return all, nil
	}
	return nil, fmt.Errorf("unknown requirements section %q (want build, host, run, or all)", section)
}

// parseSection loads a recipe and parses one of its requirements sections
func parseSection(path, section string) (*recipe.Recipe, []*version.MatchSpec, error) {
	rec, err := recipe.Load(path)
	if err != nil {
		return nil, nil, err
	}
	deps, err := sectionDeps(rec, section)
	if err != nil {
		return nil, nil, err
	}
	specs, err := version.ParseSpecs(deps)
	if err != nil {
		return nil, nil, err
	}
	return rec, specs, nil
}
