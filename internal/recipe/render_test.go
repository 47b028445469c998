package recipe

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestRenderRoundTrip(t *testing.T) {
	target := Target{Platform: "linux", Arch: "x86_64"}
	rec, err := Parse(torcheegRecipe, target)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	rendered, err := Render(rec)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	reparsed, err := Parse(rendered, target)
	if err != nil {
		t.Fatalf("Parse of rendered recipe failed: %v", err)
	}
	if !reflect.DeepEqual(rec, reparsed) {
		t.Errorf("round trip changed the recipe:\nbefore: %+v\nafter:  %+v", rec, reparsed)
	}

	again, err := Render(reparsed)
	if err != nil {
		t.Fatalf("second Render failed: %v", err)
	}
	if !bytes.Equal(rendered, again) {
		t.Errorf("re-render is not idempotent:\nfirst:\n%s\nsecond:\n%s", rendered, again)
	}
}

func TestRenderDescriptionLiteralBlock(t *testing.T) {
	rec, err := Parse(torcheegRecipe, Target{Platform: "linux", Arch: "x86_64"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	rendered, err := Render(rec)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(string(rendered), "description: |") {
		t.Errorf("multi-line description not rendered as a literal block:\n%s", rendered)
	}

	reparsed, err := Parse(rendered, Target{Platform: "linux", Arch: "x86_64"})
	if err != nil {
		t.Fatalf("Parse of rendered recipe failed: %v", err)
	}
	if reparsed.About.Description != rec.About.Description {
		t.Errorf("description changed across render:\nbefore: %q\nafter:  %q",
			rec.About.Description, reparsed.About.Description)
	}
	if !strings.Contains(reparsed.About.Description, "\n") {
		t.Error("re-parsed description lost its newlines")
	}
}

func TestRenderSingleLineDescription(t *testing.T) {
	rec := &Recipe{
		Package: PackageSection{Name: "demo", Version: "1.0.0"},
		Build:   BuildSection{Script: "make install"},
		About:   AboutSection{Summary: "demo", Description: "one line only"},
	}
	rendered, err := Render(rec)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(string(rendered), "description: |") {
		t.Errorf("single-line description rendered as a literal block:\n%s", rendered)
	}
	if !strings.Contains(string(rendered), "description: one line only") {
		t.Errorf("description missing from render:\n%s", rendered)
	}
}

func TestRenderSkipsEmptyAboutFields(t *testing.T) {
	rec := &Recipe{
		Package: PackageSection{Name: "demo", Version: "1.0.0"},
		Build:   BuildSection{Script: "make install"},
		About:   AboutSection{License: "MIT"},
	}
	rendered, err := Render(rec)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := string(rendered)
	if strings.Contains(out, "home:") || strings.Contains(out, "summary:") {
		t.Errorf("empty about fields rendered:\n%s", out)
	}
	if !strings.Contains(out, "license: MIT") {
		t.Errorf("license missing from render:\n%s", out)
	}
}
