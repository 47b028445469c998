package channel

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
)

// PackageRecord is the per-artifact metadata stored in repodata.json
type PackageRecord struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Build       string   `json:"build"`
	BuildNumber int      `json:"build_number"`
	Depends     []string `json:"depends"`
	License     string   `json:"license,omitempty"`
	MD5         string   `json:"md5,omitempty"`
	SHA256      string   `json:"sha256,omitempty"`
	Size        int64    `json:"size,omitempty"`
	Subdir      string   `json:"subdir"`
	Timestamp   int64    `json:"timestamp,omitempty"`
	Noarch      string   `json:"noarch,omitempty"`
}

// RepodataInfo identifies the subdir a repodata file describes
type RepodataInfo struct {
	Subdir string `json:"subdir"`
}

// Repodata is the package listing for one channel subdir. Modern .conda
// artifacts and legacy .tar.bz2 artifacts are kept in separate maps,
// keyed by filename.
type Repodata struct {
	Info            RepodataInfo             `json:"info"`
	Packages        map[string]PackageRecord `json:"packages"`
	PackagesConda   map[string]PackageRecord `json:"packages.conda"`
	RepodataVersion int                      `json:"repodata_version"`
}

// NewRepodata creates an empty repodata for a subdir
func NewRepodata(subdir string) *Repodata {
	return &Repodata{
		Info:            RepodataInfo{Subdir: subdir},
		Packages:        make(map[string]PackageRecord),
		PackagesConda:   make(map[string]PackageRecord),
		RepodataVersion: 1,
	}
}

// Add stores a record under the map matching the artifact format
func (r *Repodata) Add(filename string, rec PackageRecord) error {
	switch {
	case strings.HasSuffix(filename, ".conda"):
		r.PackagesConda[filename] = rec
	case strings.HasSuffix(filename, ".tar.bz2"):
		r.Packages[filename] = rec
	default:
		return fmt.Errorf("unrecognized artifact filename %q", filename)
	}
	return nil
}

// AllRecords returns every record from both maps keyed by filename
func (r *Repodata) AllRecords() map[string]PackageRecord {
	all := make(map[string]PackageRecord, len(r.Packages)+len(r.PackagesConda))
	for filename, rec := range r.Packages {
		all[filename] = rec
	}
	for filename, rec := range r.PackagesConda {
		all[filename] = rec
	}
	return all
}

// Marshal serializes repodata as indented JSON
func (r *Repodata) Marshal() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ParseRepodata parses a repodata.json document
func ParseRepodata(data []byte) (*Repodata, error) {
	var rd Repodata
	if err := json.Unmarshal(data, &rd); err != nil {
		return nil, fmt.Errorf("invalid repodata: %w", err)
	}
	if rd.Packages == nil {
		rd.Packages = make(map[string]PackageRecord)
	}
	if rd.PackagesConda == nil {
		rd.PackagesConda = make(map[string]PackageRecord)
	}
	return &rd, nil
}

// CurrentSubdir returns the channel subdir for the running platform
func CurrentSubdir() string {
	switch runtime.GOOS + "/" + runtime.GOARCH {
	case "linux/amd64":
		return "linux-64"
	case "linux/arm64":
		return "linux-aarch64"
	case "linux/ppc64le":
		return "linux-ppc64le"
	case "darwin/amd64":
		return "osx-64"
	case "darwin/arm64":
		return "osx-arm64"
	case "windows/amd64":
		return "win-64"
	default:
		return "linux-64"
	}
}
