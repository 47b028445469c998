package scanner

import "context"

// ArtifactType represents the package format of a channel artifact
type ArtifactType int

const (
	TypeUnknown ArtifactType = iota
	TypeConda
	TypeTarBz2
)

// String returns the string representation of ArtifactType
func (at ArtifactType) String() string {
	switch at {
	case TypeConda:
		return "conda"
	case TypeTarBz2:
		return "tar.bz2"
	default:
		return "unknown"
	}
}

// ScannedArtifact represents a package file found during scanning
type ScannedArtifact struct {
	Path string
	Type ArtifactType
	Size int64
}

// Scanner interface for detecting and scanning channel artifacts
type Scanner interface {
	// Scan recursively scans a directory for artifacts
	Scan(ctx context.Context, dir string) ([]ScannedArtifact, error)

	// DetectType determines the artifact type of a file
	DetectType(path string) (ArtifactType, error)
}
