package source

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/condatools/condagen/internal/utils"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// ExtractArchive unpacks a source archive into dest, choosing the
// decompressor from the filename
func ExtractArchive(archive, dest string) error {
	name := strings.ToLower(filepath.Base(archive))

	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		f, err := os.Open(archive)
		if err != nil {
			return err
		}
		defer f.Close()
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("invalid gzip archive %s: %w", name, err)
		}
		defer gz.Close()
		return extractTar(gz, dest)

	case strings.HasSuffix(name, ".tar.bz2"):
		f, err := os.Open(archive)
		if err != nil {
			return err
		}
		defer f.Close()
		return extractTar(bzip2.NewReader(f), dest)

	case strings.HasSuffix(name, ".tar.xz"):
		f, err := os.Open(archive)
		if err != nil {
			return err
		}
		defer f.Close()
		xr, err := xz.NewReader(f)
		if err != nil {
			return fmt.Errorf("invalid xz archive %s: %w", name, err)
		}
		return extractTar(xr, dest)

	case strings.HasSuffix(name, ".tar"):
		f, err := os.Open(archive)
		if err != nil {
			return err
		}
		defer f.Close()
		return extractTar(f, dest)

	case strings.HasSuffix(name, ".zip"):
		return extractZip(archive, dest)
	}

	return fmt.Errorf("unsupported archive format: %s", filepath.Base(archive))
}

// extractTar unpacks a tar stream into dest. Entries that would land
// outside dest are rejected rather than skipped.
func extractTar(r io.Reader, dest string) error {
	if err := utils.EnsureDir(dest); err != nil {
		return err
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("corrupt tar archive: %w", err)
		}
		if hdr.Name == "" || hdr.Name == "." || hdr.Name == "./" {
			continue
		}

		target, err := securePath(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := utils.EnsureDir(filepath.Dir(target)); err != nil {
				return err
			}
			mode := os.FileMode(hdr.Mode) & 0777
			if mode == 0 {
				mode = 0644
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("cannot extract %s: %w", hdr.Name, err)
			}
			if err := out.Close(); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				return fmt.Errorf("archive symlink %s has absolute target %s", hdr.Name, hdr.Linkname)
			}
			resolved := filepath.Join(filepath.Dir(target), hdr.Linkname)
			if !strings.HasPrefix(resolved, filepath.Clean(dest)+string(os.PathSeparator)) {
				return fmt.Errorf("archive entry escapes destination: %s", hdr.Name)
			}
			if err := utils.EnsureDir(filepath.Dir(target)); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		default:
			// Hard links, devices, and the rest have no place in a
			// source tree
			continue
		}
	}
}

// extractZip unpacks a zip archive into dest
func extractZip(archive, dest string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("invalid zip archive %s: %w", filepath.Base(archive), err)
	}
	defer zr.Close()

	if err := utils.EnsureDir(dest); err != nil {
		return err
	}

	for _, f := range zr.File {
		target, err := securePath(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := utils.EnsureDir(filepath.Dir(target)); err != nil {
			return err
		}

		mode := f.Mode().Perm()
		if mode == 0 {
			mode = 0644
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("cannot extract %s: %w", f.Name, err)
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
		if err != nil {
			rc.Close()
			return err
		}
		_, copyErr := io.Copy(out, rc)
		rc.Close()
		if copyErr != nil {
			out.Close()
			return fmt.Errorf("cannot extract %s: %w", f.Name, copyErr)
		}
		if err := out.Close(); err != nil {
			return err
		}
	}
	return nil
}

// securePath joins an archive entry name to dest and rejects names
// that climb out of it
func securePath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	if target != filepath.Clean(dest) && !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes destination: %s", name)
	}
	return target, nil
}
