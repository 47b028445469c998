package recipe

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Render serializes a recipe back to meta.yaml form. Rendering a parsed
// recipe and parsing the result yields the same recipe, and a second
// render is byte-identical to the first.
func Render(r *Recipe) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("cannot render recipe: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("cannot render recipe: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalYAML renders the about section with a literal block scalar for
// multi-line descriptions, so embedded newlines survive round trips.
func (a AboutSection) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}

	add := func(key, value string, style yaml.Style) {
		if value == "" {
			return
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: value, Style: style},
		)
	}

	descStyle := yaml.Style(0)
	if strings.Contains(a.Description, "\n") {
		descStyle = yaml.LiteralStyle
	}

	add("home", a.Home, 0)
	add("license", a.License, 0)
	add("license_file", a.LicenseFile, 0)
	add("summary", a.Summary, 0)
	add("description", a.Description, descStyle)
	add("doc_url", a.DocURL, 0)
	add("dev_url", a.DevURL, 0)
	return node, nil
}
