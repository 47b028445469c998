package recipe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFilename is the conventional recipe file name
const DefaultFilename = "meta.yaml"

// Load reads and parses a recipe file for the current platform
func Load(path string) (*Recipe, error) {
	return LoadFor(path, DefaultTarget())
}

// LoadFor reads and parses a recipe file for the given target
func LoadFor(path string, t Target) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read recipe: %w", err)
	}
	rec, err := Parse(data, t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// Parse parses recipe YAML after applying platform selectors. Unknown
// top-level or nested fields are rejected so typos surface early.
func Parse(data []byte, t Target) (*Recipe, error) {
	filtered, err := applySelectors(data, t)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(filtered))
	dec.KnownFields(true)

	var rec Recipe
	if err := dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty recipe")
		}
		return nil, fmt.Errorf("invalid recipe YAML: %w", err)
	}
	return &rec, nil
}
