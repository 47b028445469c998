package channel

import (
	"strings"
	"testing"
)

func TestRepodataAdd(t *testing.T) {
	rd := NewRepodata("linux-64")

	if err := rd.Add("numpy-1.21.5-py39_0.conda", PackageRecord{Name: "numpy"}); err != nil {
		t.Fatalf("Add .conda failed: %v", err)
	}
	if err := rd.Add("numpy-1.20.0-py38_0.tar.bz2", PackageRecord{Name: "numpy"}); err != nil {
		t.Fatalf("Add .tar.bz2 failed: %v", err)
	}
	if err := rd.Add("numpy-1.21.5.whl", PackageRecord{Name: "numpy"}); err == nil {
		t.Error("expected error for unrecognized filename")
	}

	if len(rd.PackagesConda) != 1 || len(rd.Packages) != 1 {
		t.Errorf("records in wrong maps: conda=%d tarbz2=%d", len(rd.PackagesConda), len(rd.Packages))
	}
	if len(rd.AllRecords()) != 2 {
		t.Errorf("AllRecords = %d, want 2", len(rd.AllRecords()))
	}
}

func TestRepodataMarshal(t *testing.T) {
	rd := NewRepodata("noarch")
	if err := rd.Add("torcheeg-1.1.0-py_0.conda", PackageRecord{
		Name:    "torcheeg",
		Version: "1.1.0",
		Build:   "py_0",
		Depends: []string{"numpy >=1.21.5"},
		Subdir:  "noarch",
		Noarch:  "python",
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	data, err := rd.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	out := string(data)
	for _, marker := range []string{
		`"repodata_version": 1`,
		`"packages.conda"`,
		`"torcheeg-1.1.0-py_0.conda"`,
		`"build_number": 0`,
		`"subdir": "noarch"`,
	} {
		if !strings.Contains(out, marker) {
			t.Errorf("marshaled repodata missing %s:\n%s", marker, out)
		}
	}

	parsed, err := ParseRepodata(data)
	if err != nil {
		t.Fatalf("ParseRepodata failed: %v", err)
	}
	rec, ok := parsed.PackagesConda["torcheeg-1.1.0-py_0.conda"]
	if !ok {
		t.Fatal("record lost in round trip")
	}
	if rec.Version != "1.1.0" || rec.Noarch != "python" {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestParseRepodataEmptyMaps(t *testing.T) {
	rd, err := ParseRepodata([]byte(`{"info": {"subdir": "linux-64"}, "repodata_version": 1}`))
	if err != nil {
		t.Fatalf("ParseRepodata failed: %v", err)
	}
	if rd.Packages == nil || rd.PackagesConda == nil {
		t.Error("missing maps not initialized")
	}
	if rd.Info.Subdir != "linux-64" {
		t.Errorf("Subdir = %q", rd.Info.Subdir)
	}

	if _, err := ParseRepodata([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestCurrentSubdir(t *testing.T) {
	subdir := CurrentSubdir()
	if subdir == "" || !strings.Contains(subdir, "-") {
		t.Errorf("CurrentSubdir = %q", subdir)
	}
}
