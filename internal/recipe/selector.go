package recipe

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"
)

// Target is the platform a recipe is rendered for. Selector keywords in
// the recipe are evaluated against it.
type Target struct {
	Platform string // linux, osx, win
	Arch     string // x86_64, aarch64, arm64, ppc64le
}

// DefaultTarget derives the build target from the running system
func DefaultTarget() Target {
	t := Target{Platform: "linux", Arch: runtime.GOARCH}
	switch runtime.GOOS {
	case "darwin":
		t.Platform = "osx"
	case "windows":
		t.Platform = "win"
	}
	switch runtime.GOARCH {
	case "amd64":
		t.Arch = "x86_64"
	case "arm64":
		if t.Platform != "osx" {
			t.Arch = "aarch64"
		}
	}
	return t
}

var selectorPattern = regexp.MustCompile(`^(.*?)\s*#\s*\[(.+)\]\s*$`)

// applySelectors filters recipe lines by their trailing "# [expr]"
// selector comments. Lines whose selector evaluates false are dropped,
// matching lines keep their content with the selector stripped.
func applySelectors(data []byte, t Target) ([]byte, error) {
	lines := strings.Split(string(data), "\n")
	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		m := selectorPattern.FindStringSubmatch(line)
		if m == nil {
			kept = append(kept, line)
			continue
		}
		ok, err := evalSelector(m[2], t)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if ok {
			kept = append(kept, m[1])
		}
	}
	return []byte(strings.Join(kept, "\n")), nil
}

// evalSelector evaluates a boolean selector expression such as
// "linux and x86_64" or "not (win or osx)".
func evalSelector(expr string, t Target) (bool, error) {
	tokens := tokenizeSelector(expr)
	if len(tokens) == 0 {
		return false, fmt.Errorf("empty selector")
	}
	p := &selectorParser{tokens: tokens, target: t}
	v, err := p.parseOr()
	if err != nil {
		return false, err
	}
	if p.pos != len(p.tokens) {
		return false, fmt.Errorf("unexpected token %q in selector", p.tokens[p.pos])
	}
	return v, nil
}

func tokenizeSelector(expr string) []string {
	expr = strings.ReplaceAll(expr, "(", " ( ")
	expr = strings.ReplaceAll(expr, ")", " ) ")
	return strings.Fields(expr)
}

type selectorParser struct {
	tokens []string
	pos    int
	target Target
}

func (p *selectorParser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *selectorParser) parseOr() (bool, error) {
	v, err := p.parseAnd()
	if err != nil {
		return false, err
	}
	for p.peek() == "or" {
		p.pos++
		rhs, err := p.parseAnd()
		if err != nil {
			return false, err
		}
		v = v || rhs
	}
	return v, nil
}

func (p *selectorParser) parseAnd() (bool, error) {
	v, err := p.parseNot()
	if err != nil {
		return false, err
	}
	for p.peek() == "and" {
		p.pos++
		rhs, err := p.parseNot()
		if err != nil {
			return false, err
		}
		v = v && rhs
	}
	return v, nil
}

func (p *selectorParser) parseNot() (bool, error) {
	if p.peek() == "not" {
		p.pos++
		v, err := p.parseNot()
		if err != nil {
			return false, err
		}
		return !v, nil
	}
	return p.parseAtom()
}

func (p *selectorParser) parseAtom() (bool, error) {
	tok := p.peek()
	if tok == "" {
		return false, fmt.Errorf("selector ended unexpectedly")
	}
	if tok == "(" {
		p.pos++
		v, err := p.parseOr()
		if err != nil {
			return false, err
		}
		if p.peek() != ")" {
			return false, fmt.Errorf("missing closing parenthesis in selector")
		}
		p.pos++
		return v, nil
	}
	p.pos++
	return p.evalKeyword(tok)
}

func (p *selectorParser) evalKeyword(kw string) (bool, error) {
	switch kw {
	case "linux", "osx", "win":
		return p.target.Platform == kw, nil
	case "unix":
		return p.target.Platform == "linux" || p.target.Platform == "osx", nil
	case "x86_64", "aarch64", "arm64", "ppc64le", "s390x":
		return p.target.Arch == kw, nil
	case "x86":
		return p.target.Arch == "x86_64" || p.target.Arch == "x86", nil
	default:
		return false, fmt.Errorf("unknown selector keyword %q", kw)
	}
}
