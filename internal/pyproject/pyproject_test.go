package pyproject

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		raw  string
		name string
		min  string
		ok   bool
	}{
		{"numpy>=1.21.5", "numpy", "1.21.5", true},
		{"numpy >= 1.21.5", "numpy", "1.21.5", true},
		{"pandas>=1.3.5,<3", "pandas", "1.3.5", true},
		{"tqdm", "tqdm", "", true},
		{"scikit-learn>=1.0.2", "scikit-learn", "1.0.2", true},
		{"torch[cuda]>=1.11.0", "torch", "1.11.0", true},
		{"importlib-metadata>=4.0; python_version < '3.8'", "importlib-metadata", "4.0", true},
		{"spectrum==0.8.0", "spectrum", "", true},
		{"", "", "", false},
		{">=1.0", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			req, err := ParseRequirement(tt.raw)
			if tt.ok && err != nil {
				t.Fatalf("ParseRequirement(%q) failed: %v", tt.raw, err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatalf("ParseRequirement(%q) = %+v, want error", tt.raw, req)
				}
				return
			}
			if req.Name != tt.name {
				t.Errorf("Name = %q, want %q", req.Name, tt.name)
			}
			if req.MinVersion != tt.min {
				t.Errorf("MinVersion = %q, want %q", req.MinVersion, tt.min)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"PyTorch-Lightning", "pytorch-lightning"},
		{"scikit_learn", "scikit-learn"},
		{"zope.interface", "zope-interface"},
		{"foo__bar--baz", "foo-bar-baz"},
		{"numpy", "numpy"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "pyproject-test-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	content := `[project]
name = "torcheeg"
requires-python = ">=3.7"
dependencies = [
    "numpy>=1.21.5",
    "tqdm>=4.64.0",
    "scikit-learn>=1.0.2",
]

[build-system]
requires = ["setuptools"]
`
	path := filepath.Join(tmpDir, Filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write pyproject: %v", err)
	}

	proj, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if proj.Name != "torcheeg" {
		t.Errorf("Name = %q, want torcheeg", proj.Name)
	}
	if proj.RequiresPython != ">=3.7" {
		t.Errorf("RequiresPython = %q, want >=3.7", proj.RequiresPython)
	}
	if len(proj.Dependencies) != 3 {
		t.Fatalf("expected 3 dependencies, got %d", len(proj.Dependencies))
	}
	if proj.Dependencies[0].Name != "numpy" || proj.Dependencies[0].MinVersion != "1.21.5" {
		t.Errorf("unexpected first dependency: %+v", proj.Dependencies[0])
	}
}

func TestFind(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "pyproject-test-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	if _, ok := Find(tmpDir, ""); ok {
		t.Error("expected no pyproject in empty directory")
	}

	srcDir := filepath.Join(tmpDir, "src")
	if err := os.MkdirAll(srcDir, 0755); err != nil {
		t.Fatalf("Failed to create src dir: %v", err)
	}
	nested := filepath.Join(srcDir, Filename)
	if err := os.WriteFile(nested, []byte("[project]\nname = \"x\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write pyproject: %v", err)
	}

	if _, ok := Find(tmpDir, ""); ok {
		t.Error("expected no pyproject without a source folder hint")
	}
	path, ok := Find(tmpDir, "src")
	if !ok {
		t.Fatal("expected to find pyproject under source folder")
	}
	if path != nested {
		t.Errorf("Find returned %q, want %q", path, nested)
	}

	top := filepath.Join(tmpDir, Filename)
	if err := os.WriteFile(top, []byte("[project]\nname = \"y\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write pyproject: %v", err)
	}
	path, ok = Find(tmpDir, "src")
	if !ok || path != top {
		t.Errorf("Find returned %q, want %q", path, top)
	}
}
