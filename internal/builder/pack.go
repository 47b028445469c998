package builder

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/condatools/condagen/internal/models"
	"github.com/condatools/condagen/internal/recipe"
	"github.com/condatools/condagen/internal/utils"
)

const condaFormatVersion = 2

// buildString derives the build string for an artifact. Noarch python
// builds use the py_N convention, everything else hashes its
// requirement pins the way conda-build does.
func buildString(rec *recipe.Recipe, hashInputs []string) string {
	switch rec.Build.Noarch {
	case "python":
		return fmt.Sprintf("py_%d", rec.Build.Number)
	case "generic":
		return fmt.Sprintf("%d", rec.Build.Number)
	}
	return fmt.Sprintf("h%s_%d", specHash(hashInputs), rec.Build.Number)
}

// specHash condenses the pinned requirements into a short stable hash
func specHash(inputs []string) string {
	sorted := append([]string(nil), inputs...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "\n")))
	return hex.EncodeToString(sum[:])[:7]
}

type indexJSON struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Build       string   `json:"build"`
	BuildNumber int      `json:"build_number"`
	Depends     []string `json:"depends"`
	License     string   `json:"license,omitempty"`
	Noarch      string   `json:"noarch,omitempty"`
	Subdir      string   `json:"subdir"`
	Timestamp   int64    `json:"timestamp"`
}

type aboutJSON struct {
	Home        string `json:"home,omitempty"`
	License     string `json:"license,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	DocURL      string `json:"doc_url,omitempty"`
	DevURL      string `json:"dev_url,omitempty"`
}

type pathEntry struct {
	Path        string `json:"_path"`
	PathType    string `json:"path_type"`
	SHA256      string `json:"sha256,omitempty"`
	SizeInBytes int64  `json:"size_in_bytes"`
}

type pathsJSON struct {
	Paths        []pathEntry `json:"paths"`
	PathsVersion int         `json:"paths_version"`
}

// packInput gathers everything packageArtifact needs
type packInput struct {
	Recipe      *recipe.Recipe
	RecipePath  string
	Prefix      string
	Files       []string
	BuildString string
	Subdir      string
	OutputDir   string
	Depends     []string
}

// packageArtifact writes a .conda artifact for the prefix files and
// returns its metadata
func packageArtifact(in packInput) (*models.Artifact, error) {
	rec := in.Recipe
	stem := fmt.Sprintf("%s-%s-%s", rec.Package.Name, rec.Package.Version, in.BuildString)
	now := time.Now()

	payload, err := tarFiles(in.Prefix, in.Files)
	if err != nil {
		return nil, fmt.Errorf("cannot archive prefix files: %w", err)
	}
	payloadZst, err := utils.ZstdCompress(payload)
	if err != nil {
		return nil, fmt.Errorf("cannot compress payload: %w", err)
	}

	info, err := infoTarball(in, now)
	if err != nil {
		return nil, fmt.Errorf("cannot build info tarball: %w", err)
	}
	infoZst, err := utils.ZstdCompress(info)
	if err != nil {
		return nil, fmt.Errorf("cannot compress info tarball: %w", err)
	}

	outPath := filepath.Join(in.OutputDir, in.Subdir, stem+".conda")
	if err := writeCondaZip(outPath, stem, payloadZst, infoZst); err != nil {
		return nil, err
	}

	sums, err := utils.CalculateChecksums(outPath)
	if err != nil {
		return nil, err
	}
	return &models.Artifact{
		Name:        rec.Package.Name,
		Version:     rec.Package.Version,
		BuildNumber: rec.Build.Number,
		BuildString: in.BuildString,
		Subdir:      in.Subdir,
		Filename:    stem + ".conda",
		Path:        outPath,
		Size:        sums.Size,
		MD5Sum:      sums.MD5,
		SHA256Sum:   sums.SHA256,
		RecipePath:  in.RecipePath,
		Timestamp:   now.UnixMilli(),
	}, nil
}

// tarFiles archives the given prefix-relative files, preserving modes
// and symlinks
func tarFiles(prefix string, files []string) ([]byte, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, rel := range files {
		full := filepath.Join(prefix, filepath.FromSlash(rel))
		info, err := os.Lstat(full)
		if err != nil {
			return nil, err
		}
		link := ""
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(full); err != nil {
				return nil, err
			}
		}
		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return nil, err
		}
		hdr.Name = rel
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if info.Mode().IsRegular() {
			f, err := os.Open(full)
			if err != nil {
				return nil, err
			}
			_, copyErr := io.Copy(tw, f)
			f.Close()
			if copyErr != nil {
				return nil, copyErr
			}
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// infoTarball renders the info/ metadata tarball conda installers read
func infoTarball(in packInput, now time.Time) ([]byte, error) {
	rec := in.Recipe

	depends := in.Depends
	if depends == nil {
		depends = []string{}
	}
	indexData, err := json.MarshalIndent(indexJSON{
		Name:        rec.Package.Name,
		Version:     rec.Package.Version,
		Build:       in.BuildString,
		BuildNumber: rec.Build.Number,
		Depends:     depends,
		License:     rec.About.License,
		Noarch:      rec.Build.Noarch,
		Subdir:      in.Subdir,
		Timestamp:   now.UnixMilli(),
	}, "", "  ")
	if err != nil {
		return nil, err
	}

	aboutData, err := json.MarshalIndent(aboutJSON{
		Home:        rec.About.Home,
		License:     rec.About.License,
		Summary:     rec.About.Summary,
		Description: rec.About.Description,
		DocURL:      rec.About.DocURL,
		DevURL:      rec.About.DevURL,
	}, "", "  ")
	if err != nil {
		return nil, err
	}

	paths := pathsJSON{PathsVersion: 1, Paths: []pathEntry{}}
	for _, rel := range in.Files {
		full := filepath.Join(in.Prefix, filepath.FromSlash(rel))
		info, err := os.Lstat(full)
		if err != nil {
			return nil, err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			paths.Paths = append(paths.Paths, pathEntry{Path: rel, PathType: "softlink"})
			continue
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, err
		}
		paths.Paths = append(paths.Paths, pathEntry{
			Path:        rel,
			PathType:    "hardlink",
			SHA256:      utils.SHA256Bytes(data),
			SizeInBytes: int64(len(data)),
		})
	}
	pathsData, err := json.MarshalIndent(paths, "", "  ")
	if err != nil {
		return nil, err
	}

	recipeData, err := recipe.Render(rec)
	if err != nil {
		return nil, err
	}

	entries := []struct {
		name string
		data []byte
	}{
		{"info/index.json", indexData},
		{"info/about.json", aboutData},
		{"info/paths.json", pathsData},
		{"info/recipe/meta.yaml", recipeData},
	}
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0644, Size: int64(len(e.data)), ModTime: now, Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if _, err := tw.Write(e.data); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeCondaZip assembles the .conda container, a zip holding the
// format marker and the two zstd tarballs
func writeCondaZip(path, stem string, payloadZst, infoZst []byte) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	meta, err := zw.Create("metadata.json")
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(meta, `{"conda_pkg_format_version": %d}`, condaFormatVersion); err != nil {
		return err
	}

	// The tarballs are already zstd streams, store them uncompressed
	members := []struct {
		name string
		data []byte
	}{
		{"pkg-" + stem + ".tar.zst", payloadZst},
		{"info-" + stem + ".tar.zst", infoZst},
	}
	for _, m := range members {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: m.name, Method: zip.Store})
		if err != nil {
			return err
		}
		if _, err := w.Write(m.data); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return f.Sync()
}
