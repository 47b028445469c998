package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileSystemScanner implements Scanner interface for filesystem scanning
type FileSystemScanner struct{}

// NewFileSystemScanner creates a new filesystem scanner
func NewFileSystemScanner() *FileSystemScanner {
	return &FileSystemScanner{}
}

// Scan recursively scans a directory for artifacts
func (s *FileSystemScanner) Scan(ctx context.Context, dir string) ([]ScannedArtifact, error) {
	var artifacts []ScannedArtifact

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Skip directories
		if info.IsDir() {
			return nil
		}

		// Try to detect artifact type
		artType, err := s.DetectType(path)
		if err != nil {
			logrus.Warnf("Failed to detect type for %s: %v", path, err)
			return nil
		}

		// Skip unknown types
		if artType == TypeUnknown {
			return nil
		}

		logrus.Debugf("Found %s artifact: %s", artType, path)

		artifacts = append(artifacts, ScannedArtifact{
			Path: path,
			Type: artType,
			Size: info.Size(),
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	logrus.Infof("Found %d artifacts in %s", len(artifacts), dir)
	return artifacts, nil
}

// DetectType determines the artifact type of a file
func (s *FileSystemScanner) DetectType(path string) (ArtifactType, error) {
	return DetectArtifactType(path)
}
