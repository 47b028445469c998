package models

// BuildConfig contains configuration for the build pipeline
type BuildConfig struct {
	// Input/Output
	RecipePath string
	OutputDir  string

	// Environment
	Channel string // channel alias, URL, or local directory for resolution
	Subdir  string // target platform subdir; noarch recipes override it
	WorkDir string // scratch root; a temp directory when empty

	// Behavior
	KeepWork bool // keep the work directory after a successful build
	RunTests bool // run the recipe's test commands after packaging
}

// IndexConfig contains configuration for channel index generation
type IndexConfig struct {
	InputDir string
	BaseURL  string // public base URL recorded in channeldata.json

	// Signing
	GPGKeyPath    string
	GPGPassphrase string
}
