package models

// Artifact represents a built package and its metadata
type Artifact struct {
	// Core metadata
	Name        string
	Version     string
	BuildNumber int
	BuildString string
	Subdir      string

	// File information
	Filename  string
	Path      string
	Size      int64
	MD5Sum    string
	SHA256Sum string

	// Build provenance
	RecipePath string
	Timestamp  int64 // milliseconds since epoch
}
