package channel

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/condatools/condagen/internal/utils"
)

// fakeSigner stands in for a GPG key in indexer tests
type fakeSigner struct{}

func (fakeSigner) SignDetached(data []byte) ([]byte, error) {
	return []byte("-----BEGIN PGP SIGNATURE-----\nfake\n-----END PGP SIGNATURE-----\n"), nil
}

func (fakeSigner) GetPublicKey() ([]byte, error) {
	return []byte("-----BEGIN PGP PUBLIC KEY BLOCK-----\nfake\n-----END PGP PUBLIC KEY BLOCK-----\n"), nil
}

// tarball builds an uncompressed tar archive from a name-to-content map
func tarball(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("Failed to write tar header: %v", err)
		}
		if _, err := tw.Write(content); err != nil {
			t.Fatalf("Failed to write tar content: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Failed to close tar: %v", err)
	}
	return buf.Bytes()
}

// writeCondaFixture assembles a minimal valid .conda artifact for rec
// at dir/filename and returns its path.
func writeCondaFixture(t *testing.T, dir, filename string, rec PackageRecord) string {
	t.Helper()

	stem := strings.TrimSuffix(filename, ".conda")

	indexJSON, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Failed to marshal index.json: %v", err)
	}
	infoTar := tarball(t, map[string][]byte{"info/index.json": indexJSON})
	infoZst, err := utils.ZstdCompress(infoTar)
	if err != nil {
		t.Fatalf("Failed to compress info tar: %v", err)
	}
	pkgTar := tarball(t, map[string][]byte{"site-packages/placeholder.py": []byte("pass\n")})
	pkgZst, err := utils.ZstdCompress(pkgTar)
	if err != nil {
		t.Fatalf("Failed to compress pkg tar: %v", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture dir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	meta, err := zw.Create("metadata.json")
	if err != nil {
		t.Fatalf("Failed to create metadata.json: %v", err)
	}
	if _, err := meta.Write([]byte(`{"conda_pkg_format_version": 2}`)); err != nil {
		t.Fatalf("Failed to write metadata.json: %v", err)
	}
	for name, content := range map[string][]byte{
		"pkg-" + stem + ".tar.zst":  pkgZst,
		"info-" + stem + ".tar.zst": infoZst,
	} {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		if err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
		if _, err := w.Write(content); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return path
}
