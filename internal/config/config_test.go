package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMergeAliases(t *testing.T) {
	dst := map[string]string{"conda-forge": "https://conda.anaconda.org/conda-forge"}
	mergeAliases(dst, []byte(`# team channels
internal = https://packages.example.com/conda
mirror=https://mirror.example.com/conda-forge

conda-forge = https://mirror.example.com/conda-forge
not a valid line
`))

	if dst["internal"] != "https://packages.example.com/conda" {
		t.Errorf("internal = %q", dst["internal"])
	}
	if dst["mirror"] != "https://mirror.example.com/conda-forge" {
		t.Errorf("mirror = %q", dst["mirror"])
	}
	// User entries override the built-ins
	if dst["conda-forge"] != "https://mirror.example.com/conda-forge" {
		t.Errorf("conda-forge = %q", dst["conda-forge"])
	}
	if len(dst) != 3 {
		t.Errorf("Aliases = %v", dst)
	}
}

func TestResolveChannel(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config-test-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	aliases := map[string]string{"conda-forge": "https://conda.anaconda.org/conda-forge"}

	tests := []struct {
		name string
		want string
	}{
		{"https://channels.example.com/main", "https://channels.example.com/main"},
		{"conda-forge", "https://conda.anaconda.org/conda-forge"},
		{tmpDir, tmpDir},
	}
	for _, tt := range tests {
		got, err := ResolveChannel(tt.name, aliases)
		if err != nil {
			t.Errorf("ResolveChannel(%q) failed: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveChannel(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	if _, err := ResolveChannel("nosuchchannel", aliases); err == nil {
		t.Error("Expected an error for an unknown channel")
	} else if !strings.Contains(err.Error(), "not an alias, URL, or directory") {
		t.Errorf("Unexpected error: %v", err)
	}

	// A plain file is not a channel directory
	file := filepath.Join(tmpDir, "somefile")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := ResolveChannel(file, aliases); err == nil {
		t.Error("Expected an error for a plain file")
	}
}

func TestDataDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/share")
	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir failed: %v", err)
	}
	if dir != filepath.Join("/custom/share", "condagen") {
		t.Errorf("DataDir = %q", dir)
	}
}
