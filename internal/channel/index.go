package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/condatools/condagen/internal/models"
	"github.com/condatools/condagen/internal/scanner"
	"github.com/condatools/condagen/internal/signer"
	"github.com/condatools/condagen/internal/utils"
	"github.com/condatools/condagen/internal/version"
	"github.com/sirupsen/logrus"
)

// Indexer generates channel metadata from a directory of artifacts
type Indexer struct {
	signer signer.Signer
}

// NewIndexer creates an indexer. sig may be nil for unsigned channels.
func NewIndexer(sig signer.Signer) *Indexer {
	return &Indexer{signer: sig}
}

// Generate scans a directory for built artifacts and writes per-subdir
// repodata.json files plus a channeldata.json summary. Artifacts found
// outside their subdir directory are copied into place.
func (idx *Indexer) Generate(ctx context.Context, cfg *models.IndexConfig) error {
	artifacts, err := scanner.NewFileSystemScanner().Scan(ctx, cfg.InputDir)
	if err != nil {
		return err
	}

	if len(artifacts) == 0 {
		logrus.Warn("No artifacts found, nothing to index")
		return nil
	}

	bySubdir := make(map[string]*Repodata)
	for _, art := range artifacts {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := ReadPackageInfo(art.Path, art.Type)
		if err != nil {
			logrus.Warnf("Skipping %s: %v", art.Path, err)
			continue
		}

		filename := filepath.Base(art.Path)
		wantPrefix := fmt.Sprintf("%s-%s-%s.", rec.Name, rec.Version, rec.Build)
		if !strings.HasPrefix(filename, wantPrefix) {
			logrus.Warnf("Skipping %s: filename does not match metadata %s-%s-%s",
				art.Path, rec.Name, rec.Version, rec.Build)
			continue
		}
		if rec.Subdir == "" {
			logrus.Warnf("Skipping %s: no subdir in metadata", art.Path)
			continue
		}

		sums, err := utils.CalculateChecksums(art.Path)
		if err != nil {
			return fmt.Errorf("cannot checksum %s: %w", art.Path, err)
		}
		rec.MD5 = sums.MD5
		rec.SHA256 = sums.SHA256
		rec.Size = sums.Size

		// Keep the channel layout canonical, artifacts live under
		// their subdir directory
		wantPath := filepath.Join(cfg.InputDir, rec.Subdir, filename)
		if art.Path != wantPath {
			if err := utils.CopyFile(art.Path, wantPath); err != nil {
				return fmt.Errorf("cannot place %s under %s: %w", filename, rec.Subdir, err)
			}
			logrus.Debugf("Copied %s into %s/", filename, rec.Subdir)
		}

		rd, ok := bySubdir[rec.Subdir]
		if !ok {
			rd = NewRepodata(rec.Subdir)
			bySubdir[rec.Subdir] = rd
		}
		if err := rd.Add(filename, *rec); err != nil {
			logrus.Warnf("Skipping %s: %v", art.Path, err)
		}
	}

	if len(bySubdir) == 0 {
		logrus.Warn("No readable artifacts found, nothing to index")
		return nil
	}

	for subdir, rd := range bySubdir {
		if err := idx.writeSubdir(cfg.InputDir, subdir, rd); err != nil {
			return err
		}
		logrus.Infof("Indexed %d packages in %s", len(rd.AllRecords()), subdir)
	}

	if err := idx.writeChannelData(cfg, bySubdir); err != nil {
		return err
	}

	if idx.signer != nil {
		pub, err := idx.signer.GetPublicKey()
		if err != nil {
			return fmt.Errorf("cannot export public key: %w", err)
		}
		if err := utils.WriteFile(filepath.Join(cfg.InputDir, "public-key.asc"), pub, 0644); err != nil {
			return err
		}
		logrus.Infof("Wrote channel public key")
	} else {
		logrus.Warn("No GPG key configured, channel metadata is unsigned")
	}

	return nil
}

// writeSubdir writes repodata.json, its zstd form, and optionally a
// detached signature for one subdir.
func (idx *Indexer) writeSubdir(dir, subdir string, rd *Repodata) error {
	data, err := rd.Marshal()
	if err != nil {
		return fmt.Errorf("cannot marshal repodata for %s: %w", subdir, err)
	}

	base := filepath.Join(dir, subdir, "repodata.json")
	if err := utils.WriteFile(base, data, 0644); err != nil {
		return err
	}

	compressed, err := utils.ZstdCompress(data)
	if err != nil {
		return fmt.Errorf("cannot compress repodata for %s: %w", subdir, err)
	}
	if err := utils.WriteFile(base+".zst", compressed, 0644); err != nil {
		return err
	}

	if idx.signer != nil {
		sig, err := idx.signer.SignDetached(data)
		if err != nil {
			return fmt.Errorf("cannot sign repodata for %s: %w", subdir, err)
		}
		if err := utils.WriteFile(base+".asc", sig, 0644); err != nil {
			return err
		}
	}

	return nil
}

type channelDataPackage struct {
	Version string   `json:"version"`
	Subdirs []string `json:"subdirs"`
}

type channelData struct {
	ChanneldataVersion int                           `json:"channeldata_version"`
	BaseURL            string                        `json:"base_url,omitempty"`
	Packages           map[string]channelDataPackage `json:"packages"`
	Subdirs            []string                      `json:"subdirs"`
}

// writeChannelData summarizes the latest version and subdirs of every
// package into channeldata.json at the channel root.
func (idx *Indexer) writeChannelData(cfg *models.IndexConfig, bySubdir map[string]*Repodata) error {
	cd := channelData{
		ChanneldataVersion: 1,
		BaseURL:            cfg.BaseURL,
		Packages:           make(map[string]channelDataPackage),
	}

	for subdir, rd := range bySubdir {
		cd.Subdirs = append(cd.Subdirs, subdir)
		for _, rec := range rd.AllRecords() {
			entry, ok := cd.Packages[rec.Name]
			if !ok {
				cd.Packages[rec.Name] = channelDataPackage{Version: rec.Version, Subdirs: []string{subdir}}
				continue
			}
			entry.Subdirs = appendUnique(entry.Subdirs, subdir)
			if newer(rec.Version, entry.Version) {
				entry.Version = rec.Version
			}
			cd.Packages[rec.Name] = entry
		}
	}

	sort.Strings(cd.Subdirs)
	for name, entry := range cd.Packages {
		sort.Strings(entry.Subdirs)
		cd.Packages[name] = entry
	}

	data, err := json.MarshalIndent(cd, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal channeldata: %w", err)
	}
	return utils.WriteFile(filepath.Join(cfg.InputDir, "channeldata.json"), data, 0644)
}

// newer reports whether version a is newer than b, comparing
// lexically when either does not parse.
func newer(a, b string) bool {
	va, erra := version.Parse(a)
	vb, errb := version.Parse(b)
	if erra != nil || errb != nil {
		return a > b
	}
	return va.GreaterThan(vb)
}

func appendUnique(list []string, s string) []string {
	for _, have := range list {
		if have == s {
			return list
		}
	}
	return append(list, s)
}
