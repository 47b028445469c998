// Package source stages recipe sources into the build work directory
package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/condatools/condagen/internal/fetch"
	"github.com/condatools/condagen/internal/recipe"
	"github.com/condatools/condagen/internal/utils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

// Acquire makes the recipe's source available on disk and returns the
// directory the build script should run in. Recipes without a source
// section build from the recipe directory itself.
func Acquire(ctx context.Context, rec *recipe.Recipe, recipeDir, workDir string, fetcher fetch.Client) (string, error) {
	if rec.Source == nil {
		return recipeDir, nil
	}

	destDir := filepath.Join(workDir, "src")
	if rec.Source.Folder != "" {
		destDir = filepath.Join(destDir, rec.Source.Folder)
	}

	if rec.Source.Path != "" {
		return acquireLocal(rec.Source, recipeDir, destDir)
	}
	if rec.Source.URL != "" {
		return acquireRemote(ctx, rec.Source, workDir, destDir, fetcher)
	}
	return "", fmt.Errorf("source section has neither url nor path")
}

// acquireLocal stages a source that lives on the local filesystem. A
// directory is copied file by file, an archive is verified and unpacked.
func acquireLocal(src *recipe.SourceSection, recipeDir, destDir string) (string, error) {
	srcPath := src.Path
	if !filepath.IsAbs(srcPath) {
		srcPath = filepath.Join(recipeDir, srcPath)
	}
	info, err := os.Stat(srcPath)
	if err != nil {
		return "", fmt.Errorf("source path %s: %w", src.Path, err)
	}

	if !info.IsDir() {
		if err := verifyChecksums(src, srcPath); err != nil {
			return "", err
		}
		if err := ExtractArchive(srcPath, destDir); err != nil {
			return "", err
		}
		return sourceRoot(destDir), nil
	}

	files, err := utils.WalkFiles(srcPath)
	if err != nil {
		return "", fmt.Errorf("cannot walk source path %s: %w", srcPath, err)
	}
	for _, rel := range files {
		from := filepath.Join(srcPath, filepath.FromSlash(rel))
		to := filepath.Join(destDir, filepath.FromSlash(rel))
		if err := utils.CopyFile(from, to); err != nil {
			return "", fmt.Errorf("cannot copy source file %s: %w", rel, err)
		}
	}
	logrus.Debugf("Copied %d source files from %s", len(files), srcPath)
	return destDir, nil
}

func acquireRemote(ctx context.Context, src *recipe.SourceSection, workDir, destDir string, fetcher fetch.Client) (string, error) {
	archive, err := download(ctx, src.URL, filepath.Join(workDir, "downloads"), fetcher)
	if err != nil {
		return "", err
	}
	if err := verifyChecksums(src, archive); err != nil {
		return "", err
	}
	if err := ExtractArchive(archive, destDir); err != nil {
		return "", err
	}
	return sourceRoot(destDir), nil
}

// download fetches rawURL into dir and returns the archive path
func download(ctx context.Context, rawURL, dir string, fetcher fetch.Client) (string, error) {
	base := remoteFilename(rawURL)
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	target := filepath.Join(dir, base)

	logrus.Infof("Downloading %s", rawURL)
	resp, err := fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	// Download to a temp name so an interrupted transfer never leaves
	// a truncated archive behind
	tmp := target + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("cannot create download file: %w", err)
	}

	var w io.Writer = out
	if isatty.IsTerminal(os.Stdout.Fd()) {
		bar := progressbar.DefaultBytes(resp.ContentLength, base)
		w = io.MultiWriter(out, bar)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("download of %s interrupted: %w", rawURL, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, target); err != nil {
		return "", err
	}
	return target, nil
}

// remoteFilename guesses the archive filename from the URL path
func remoteFilename(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "source-download"
	}
	base := path.Base(parsed.Path)
	if base == "" || base == "." || base == "/" {
		return "source-download"
	}
	return base
}

// verifyChecksums checks the archive against the checksums declared in
// the recipe. A recipe without checksums only warns.
func verifyChecksums(src *recipe.SourceSection, archive string) error {
	if src.SHA256 == "" && src.MD5 == "" {
		logrus.Warnf("No checksum for %s, integrity not verified", filepath.Base(archive))
		return nil
	}
	sums, err := utils.CalculateChecksums(archive)
	if err != nil {
		return fmt.Errorf("cannot checksum %s: %w", archive, err)
	}
	if src.SHA256 != "" && !strings.EqualFold(sums.SHA256, src.SHA256) {
		return fmt.Errorf("sha256 mismatch for %s: expected %s, got %s",
			filepath.Base(archive), src.SHA256, sums.SHA256)
	}
	if src.MD5 != "" && !strings.EqualFold(sums.MD5, src.MD5) {
		return fmt.Errorf("md5 mismatch for %s: expected %s, got %s",
			filepath.Base(archive), src.MD5, sums.MD5)
	}
	return nil
}

// sourceRoot unwraps the single top-level directory most release
// tarballs contain
func sourceRoot(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 || !entries[0].IsDir() {
		return dir
	}
	return filepath.Join(dir, entries[0].Name())
}
