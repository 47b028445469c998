package builder

import (
	"archive/zip"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/condatools/condagen/internal/channel"
	"github.com/condatools/condagen/internal/recipe"
	"github.com/condatools/condagen/internal/scanner"
)

func TestBuildString(t *testing.T) {
	noarchPy := &recipe.Recipe{Build: recipe.BuildSection{Number: 0, Noarch: "python"}}
	if got := buildString(noarchPy, nil); got != "py_0" {
		t.Errorf("noarch python build string = %q, want py_0", got)
	}

	noarchPy.Build.Number = 3
	if got := buildString(noarchPy, nil); got != "py_3" {
		t.Errorf("noarch python build string = %q, want py_3", got)
	}

	generic := &recipe.Recipe{Build: recipe.BuildSection{Number: 2, Noarch: "generic"}}
	if got := buildString(generic, nil); got != "2" {
		t.Errorf("noarch generic build string = %q, want 2", got)
	}

	platform := &recipe.Recipe{Build: recipe.BuildSection{Number: 0}}
	a := buildString(platform, []string{"python >=3.7", "numpy >=1.21.5"})
	if !regexp.MustCompile(`^h[0-9a-f]{7}_0$`).MatchString(a) {
		t.Errorf("platform build string = %q", a)
	}

	// Hashing is order independent but input sensitive
	b := buildString(platform, []string{"numpy >=1.21.5", "python >=3.7"})
	if a != b {
		t.Errorf("Reordered inputs changed the hash: %q vs %q", a, b)
	}
	c := buildString(platform, []string{"numpy >=2.0"})
	if a == c {
		t.Error("Different inputs produced the same hash")
	}
}

func TestPackageArtifact(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "builder-test-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "prefix")
	if err := os.MkdirAll(filepath.Join(prefix, "share"), 0755); err != nil {
		t.Fatalf("Failed to create prefix: %v", err)
	}
	if err := os.WriteFile(filepath.Join(prefix, "share", "data.txt"), []byte("payload\n"), 0644); err != nil {
		t.Fatalf("Failed to write prefix file: %v", err)
	}
	if err := os.Symlink("data.txt", filepath.Join(prefix, "share", "link")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	rec := &recipe.Recipe{
		Package: recipe.PackageSection{Name: "demo", Version: "2.0.0"},
		Build:   recipe.BuildSection{Number: 1, Script: "true", Noarch: "python"},
		About:   recipe.AboutSection{Home: "https://example.com", License: "MIT", Summary: "Demo package"},
	}

	outDir := filepath.Join(tmpDir, "dist")
	artifact, err := packageArtifact(packInput{
		Recipe:      rec,
		RecipePath:  filepath.Join(tmpDir, "meta.yaml"),
		Prefix:      prefix,
		Files:       []string{"share/data.txt", "share/link"},
		BuildString: "py_1",
		Subdir:      "noarch",
		OutputDir:   outDir,
		Depends:     []string{"python >=3.7"},
	})
	if err != nil {
		t.Fatalf("packageArtifact failed: %v", err)
	}

	if artifact.Filename != "demo-2.0.0-py_1.conda" {
		t.Errorf("Filename = %q", artifact.Filename)
	}
	wantPath := filepath.Join(outDir, "noarch", "demo-2.0.0-py_1.conda")
	if artifact.Path != wantPath {
		t.Errorf("Path = %q, want %q", artifact.Path, wantPath)
	}
	if artifact.Size == 0 || len(artifact.MD5Sum) != 32 || len(artifact.SHA256Sum) != 64 {
		t.Errorf("Checksums not filled in: %+v", artifact)
	}

	// The container is a zip with the format marker and two stored
	// tarballs
	zr, err := zip.OpenReader(artifact.Path)
	if err != nil {
		t.Fatalf("Artifact is not a zip: %v", err)
	}
	defer zr.Close()
	members := make(map[string]uint16)
	for _, f := range zr.File {
		members[f.Name] = f.Method
	}
	if _, ok := members["metadata.json"]; !ok {
		t.Error("metadata.json missing from container")
	}
	if method, ok := members["pkg-demo-2.0.0-py_1.tar.zst"]; !ok || method != zip.Store {
		t.Errorf("pkg tarball missing or recompressed: %v", members)
	}
	if method, ok := members["info-demo-2.0.0-py_1.tar.zst"]; !ok || method != zip.Store {
		t.Errorf("info tarball missing or recompressed: %v", members)
	}

	// The embedded index.json round trips through the channel reader
	got, err := channel.ReadPackageInfo(artifact.Path, scanner.TypeConda)
	if err != nil {
		t.Fatalf("ReadPackageInfo failed: %v", err)
	}
	if got.Name != "demo" || got.Version != "2.0.0" || got.Build != "py_1" {
		t.Errorf("Embedded index = %+v", got)
	}
	if got.BuildNumber != 1 || got.Subdir != "noarch" || got.Noarch != "python" {
		t.Errorf("Embedded index = %+v", got)
	}
	if len(got.Depends) != 1 || got.Depends[0] != "python >=3.7" {
		t.Errorf("Embedded depends = %v", got.Depends)
	}
	if got.License != "MIT" {
		t.Errorf("Embedded license = %q", got.License)
	}
	if got.Timestamp == 0 {
		t.Error("Embedded timestamp not set")
	}
}
