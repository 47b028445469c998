package scanner

import (
	"bytes"
	"os"
	"strings"
)

// Magic bytes for artifact detection
var (
	// .conda packages are zip archives
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

	// legacy .tar.bz2 packages start with the bzip2 signature
	bzip2Magic = []byte{0x42, 0x5A, 0x68}
)

// DetectArtifactType determines the artifact type based on magic bytes
// and file extension. Both must agree, a mislabeled file is unknown.
func DetectArtifactType(path string) (ArtifactType, error) {
	// Open file
	f, err := os.Open(path)
	if err != nil {
		return TypeUnknown, err
	}
	defer f.Close()

	// Read first bytes for magic byte detection
	header := make([]byte, 4)
	n, err := f.Read(header)
	if err != nil && n == 0 {
		return TypeUnknown, err
	}
	header = header[:n]

	name := strings.ToLower(f.Name())

	if strings.HasSuffix(name, ".conda") && bytes.HasPrefix(header, zipMagic) {
		return TypeConda, nil
	}

	if strings.HasSuffix(name, ".tar.bz2") && bytes.HasPrefix(header, bzip2Magic) {
		return TypeTarBz2, nil
	}

	return TypeUnknown, nil
}
