package channel

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/condatools/condagen/internal/scanner"
	"github.com/klauspost/compress/zstd"
)

// ReadPackageInfo extracts the index.json metadata embedded in a built
// artifact.
func ReadPackageInfo(path string, artType scanner.ArtifactType) (*PackageRecord, error) {
	switch artType {
	case scanner.TypeConda:
		return readCondaInfo(path)
	case scanner.TypeTarBz2:
		return readTarBz2Info(path)
	default:
		return nil, fmt.Errorf("cannot read metadata from %s artifact", artType)
	}
}

// readCondaInfo reads info/index.json from a .conda artifact. The info
// tarball is a zstd-compressed tar inside the outer zip.
func readCondaInfo(path string) (*PackageRecord, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer zr.Close()

	for _, entry := range zr.File {
		if !strings.HasPrefix(entry.Name, "info-") || !strings.HasSuffix(entry.Name, ".tar.zst") {
			continue
		}
		f, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("cannot open %s in %s: %w", entry.Name, path, err)
		}
		rec, err := indexFromTarZst(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return rec, nil
	}
	return nil, fmt.Errorf("no info tarball in %s", path)
}

// readTarBz2Info reads info/index.json from a legacy .tar.bz2 artifact
func readTarBz2Info(path string) (*PackageRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	rec, err := indexFromTar(tar.NewReader(bzip2.NewReader(f)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

func indexFromTarZst(r io.Reader) (*PackageRecord, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return indexFromTar(tar.NewReader(zr))
}

func indexFromTar(tr *tar.Reader) (*PackageRecord, error) {
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if strings.TrimPrefix(hdr.Name, "./") != "info/index.json" {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		var rec PackageRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("invalid index.json: %w", err)
		}
		return &rec, nil
	}
	return nil, fmt.Errorf("no info/index.json found")
}
