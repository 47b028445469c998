// Package lockfile emits and parses pinned dependency lockfiles
package lockfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/package-url/packageurl-go"
)

// Header identifies the lockfile format
const Header = "# condagen lock format: version 1"

// Entry pins one resolved package
type Entry struct {
	Name        string
	Version     string
	Build       string
	BuildNumber int
	Subdir      string
	Filename    string
	Channel     string
	SHA256      string
}

// PURL returns the package-url identifier for the pinned package
func (e *Entry) PURL() string {
	qualifiers := map[string]string{}
	if e.Build != "" {
		qualifiers["build"] = e.Build
	}
	if e.Subdir != "" {
		qualifiers["subdir"] = e.Subdir
	}
	purl := packageurl.NewPackageURL(packageurl.TypeConda, "", e.Name, e.Version,
		packageurl.QualifiersFromMap(qualifiers), "")
	return purl.ToString()
}

// Emit renders entries sorted by name
func Emit(entries []Entry) []byte {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var buf bytes.Buffer
	fmt.Fprintln(&buf, Header)
	for _, e := range sorted {
		sha := e.SHA256
		if sha == "" {
			sha = "-"
		}
		fmt.Fprintf(&buf, "\n%s:\n", e.Name)
		fmt.Fprintf(&buf, "  version: %s\n", e.Version)
		fmt.Fprintf(&buf, "  build: %s\n", e.Build)
		fmt.Fprintf(&buf, "  build_number: %d\n", e.BuildNumber)
		fmt.Fprintf(&buf, "  subdir: %s\n", e.Subdir)
		fmt.Fprintf(&buf, "  filename: %s\n", e.Filename)
		fmt.Fprintf(&buf, "  channel: %s\n", e.Channel)
		fmt.Fprintf(&buf, "  sha256: %s\n", sha)
		fmt.Fprintf(&buf, "  purl: %s\n", e.PURL())
	}
	return buf.Bytes()
}

// Parse reads a lockfile back into entries
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return nil, fmt.Errorf("empty lockfile")
	}
	if strings.TrimSpace(scanner.Text()) != Header {
		return nil, fmt.Errorf("unrecognized lockfile header: %q", scanner.Text())
	}

	var entries []Entry
	var current *Entry
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if !strings.HasPrefix(line, " ") {
			name, ok := strings.CutSuffix(trimmed, ":")
			if !ok || name == "" {
				return nil, fmt.Errorf("line %d: expected a package name, got %q", lineNo, trimmed)
			}
			if current != nil {
				entries = append(entries, *current)
			}
			current = &Entry{Name: name}
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("line %d: field outside a package block", lineNo)
		}

		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: malformed field %q", lineNo, trimmed)
		}
		value = strings.TrimSpace(value)
		switch key {
		case "version":
			current.Version = value
		case "build":
			current.Build = value
		case "build_number":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid build_number %q", lineNo, value)
			}
			current.BuildNumber = n
		case "subdir":
			current.Subdir = value
		case "filename":
			current.Filename = value
		case "channel":
			current.Channel = value
		case "sha256":
			if value != "-" {
				current.SHA256 = value
			}
		case "purl":
			// Derived from the other fields, nothing to restore
		default:
			return nil, fmt.Errorf("line %d: unknown field %q", lineNo, key)
		}
	}
	if current != nil {
		entries = append(entries, *current)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
