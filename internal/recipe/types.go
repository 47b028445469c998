package recipe

// Recipe is a parsed conda build recipe (meta.yaml)
type Recipe struct {
	Package      PackageSection      `yaml:"package"`
	Source       *SourceSection      `yaml:"source,omitempty"`
	Build        BuildSection        `yaml:"build"`
	Requirements RequirementsSection `yaml:"requirements"`
	Test         *TestSection        `yaml:"test,omitempty"`
	About        AboutSection        `yaml:"about"`
	Extra        *ExtraSection       `yaml:"extra,omitempty"`
}

// PackageSection identifies the package being built
type PackageSection struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// SourceSection says where the package sources come from, either a
// remote archive or a local path.
type SourceSection struct {
	URL    string `yaml:"url,omitempty"`
	SHA256 string `yaml:"sha256,omitempty"`
	MD5    string `yaml:"md5,omitempty"`
	Folder string `yaml:"folder,omitempty"`
	Path   string `yaml:"path,omitempty"`
}

// BuildSection controls how the package is built
type BuildSection struct {
	Number      int      `yaml:"number"`
	Script      string   `yaml:"script,omitempty"`
	Noarch      string   `yaml:"noarch,omitempty"`
	EntryPoints []string `yaml:"entry_points,omitempty"`
}

// RequirementsSection lists dependency specs per phase
type RequirementsSection struct {
	Build []string `yaml:"build,omitempty"`
	Host  []string `yaml:"host,omitempty"`
	Run   []string `yaml:"run,omitempty"`
}

// TestSection describes post-build smoke tests
type TestSection struct {
	Imports  []string `yaml:"imports,omitempty"`
	Commands []string `yaml:"commands,omitempty"`
	Requires []string `yaml:"requires,omitempty"`
}

// AboutSection carries package metadata for channel listings
type AboutSection struct {
	Home        string `yaml:"home,omitempty"`
	License     string `yaml:"license,omitempty"`
	LicenseFile string `yaml:"license_file,omitempty"`
	Summary     string `yaml:"summary,omitempty"`
	Description string `yaml:"description,omitempty"`
	DocURL      string `yaml:"doc_url,omitempty"`
	DevURL      string `yaml:"dev_url,omitempty"`
}

// ExtraSection holds free-form recipe metadata
type ExtraSection struct {
	RecipeMaintainers []string `yaml:"recipe-maintainers,omitempty"`
}
