package channel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/condatools/condagen/internal/fetch"
	"github.com/condatools/condagen/internal/utils"
	"github.com/condatools/condagen/internal/version"
	"github.com/sirupsen/logrus"
)

// Client reads package listings from a channel. The channel base is
// either an http(s) URL or a local directory. Remote repodata is cached
// on disk and re-downloaded when older than the TTL.
type Client struct {
	base     string
	fetcher  fetch.Client
	cacheDir string
	ttl      time.Duration

	mu     sync.Mutex
	loaded map[string]*Repodata
}

// NewClient creates a channel client. cacheDir may be empty to disable
// the disk cache.
func NewClient(base string, fetcher fetch.Client, cacheDir string, ttl time.Duration) *Client {
	return &Client{
		base:     strings.TrimRight(base, "/"),
		fetcher:  fetcher,
		cacheDir: cacheDir,
		ttl:      ttl,
		loaded:   make(map[string]*Repodata),
	}
}

// Base returns the channel base URL or directory
func (c *Client) Base() string {
	return c.base
}

func (c *Client) isRemote() bool {
	return strings.HasPrefix(c.base, "http://") || strings.HasPrefix(c.base, "https://")
}

// FetchRepodata returns the package listing for one subdir. Listings
// are memoized for the lifetime of the client, so a resolve pass hits
// each subdir at most once.
func (c *Client) FetchRepodata(ctx context.Context, subdir string) (*Repodata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rd, ok := c.loaded[subdir]; ok {
		return rd, nil
	}

	var (
		rd  *Repodata
		err error
	)
	if c.isRemote() {
		rd, err = c.fetchRemote(ctx, subdir)
	} else {
		rd, err = c.readLocal(subdir)
	}
	if err != nil {
		return nil, err
	}

	c.loaded[subdir] = rd
	return rd, nil
}

// readLocal reads repodata.json from a local channel directory. A
// missing file is an empty subdir, not an error.
func (c *Client) readLocal(subdir string) (*Repodata, error) {
	path := filepath.Join(c.base, subdir, "repodata.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logrus.Debugf("No repodata at %s", path)
		return NewRepodata(subdir), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return ParseRepodata(data)
}

// fetchRemote downloads repodata for a subdir, preferring the
// zstd-compressed form and falling back to plain JSON.
func (c *Client) fetchRemote(ctx context.Context, subdir string) (*Repodata, error) {
	if data, ok := c.readCache(subdir); ok {
		if rd, err := ParseRepodata(data); err == nil {
			return rd, nil
		}
	}

	var raw []byte
	compressed, err := c.fetcher.FetchBytes(ctx, c.base+"/"+subdir+"/repodata.json.zst")
	switch {
	case err == nil:
		raw, err = utils.ZstdDecompress(compressed)
		if err != nil {
			logrus.Debugf("Corrupt repodata.json.zst from %s/%s: %v", c.base, subdir, err)
			raw = nil
		}
	case errors.Is(err, fetch.ErrNotFound):
	default:
		return nil, fmt.Errorf("fetching repodata for %s: %w", subdir, err)
	}

	if raw == nil {
		raw, err = c.fetcher.FetchBytes(ctx, c.base+"/"+subdir+"/repodata.json")
		if errors.Is(err, fetch.ErrNotFound) {
			logrus.Debugf("Channel %s has no %s subdir", c.base, subdir)
			return NewRepodata(subdir), nil
		}
		if err != nil {
			return nil, fmt.Errorf("fetching repodata for %s: %w", subdir, err)
		}
	}

	rd, err := ParseRepodata(raw)
	if err != nil {
		return nil, err
	}
	c.storeCache(subdir, raw)
	return rd, nil
}

func (c *Client) cachePath(subdir string) string {
	key := utils.SHA256Bytes([]byte(c.base))[:16]
	return filepath.Join(c.cacheDir, key, subdir, "repodata.json")
}

func (c *Client) readCache(subdir string) ([]byte, bool) {
	if c.cacheDir == "" {
		return nil, false
	}
	path := c.cachePath(subdir)
	info, err := os.Stat(path)
	if err != nil || time.Since(info.ModTime()) > c.ttl {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	logrus.Debugf("Using cached repodata for %s/%s", c.base, subdir)
	return data, true
}

// storeCache writes repodata to the disk cache, best effort
func (c *Client) storeCache(subdir string, data []byte) {
	if c.cacheDir == "" {
		return
	}
	path := c.cachePath(subdir)
	tmp := path + ".tmp"
	if err := utils.WriteFile(tmp, data, 0644); err != nil {
		logrus.Debugf("Cannot cache repodata: %v", err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		logrus.Debugf("Cannot cache repodata: %v", err)
	}
}

// Candidate is a package available in a channel
type Candidate struct {
	PackageRecord

	Filename string
	Channel  string
}

// Lookup returns all candidates for a package name across the given
// subdirs, newest version first.
func (c *Client) Lookup(ctx context.Context, name string, subdirs []string) ([]Candidate, error) {
	var candidates []Candidate
	for _, subdir := range subdirs {
		rd, err := c.FetchRepodata(ctx, subdir)
		if err != nil {
			return nil, err
		}
		for filename, rec := range rd.AllRecords() {
			if rec.Name != name {
				continue
			}
			candidates = append(candidates, Candidate{
				PackageRecord: rec,
				Filename:      filename,
				Channel:       c.base,
			})
		}
	}
	sortCandidates(candidates)
	return candidates, nil
}

// sortCandidates orders candidates by version descending, then build
// number descending. Unparseable versions sort last.
func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		vi, erri := version.Parse(candidates[i].Version)
		vj, errj := version.Parse(candidates[j].Version)
		switch {
		case erri == nil && errj != nil:
			return true
		case erri != nil && errj == nil:
			return false
		case erri != nil && errj != nil:
			return candidates[i].Version > candidates[j].Version
		}
		if !vi.Equal(vj) {
			return vi.GreaterThan(vj)
		}
		return candidates[i].BuildNumber > candidates[j].BuildNumber
	})
}
