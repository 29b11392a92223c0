package systemdunit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiscoverMatchesPackagePrefix(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"cargo-deb.service", "cargo-deb.timer", "other.service", "cargo-deb.tmpfile"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("[Unit]\n"), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	units, err := Discover(dir, "cargo-deb")
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d: %+v", len(units), units)
	}
	if units[0].Name != "cargo-deb.service" {
		t.Errorf("expected alphabetical order first entry cargo-deb.service, got %s", units[0].Name)
	}
}

func TestUnitInstallPath(t *testing.T) {
	u := Unit{Name: "cargo-deb.service"}
	if got := u.InstallPath(); got != "lib/systemd/system/cargo-deb.service" {
		t.Errorf("unexpected install path: %s", got)
	}
	tu := Unit{Name: "cargo-deb.tmpfile", IsTmpfile: true}
	if got := tu.InstallPath(); got != "usr/lib/tmpfiles.d/cargo-deb.conf" {
		t.Errorf("unexpected tmpfile install path: %s", got)
	}
}

func TestGenerateSnippetsContainUnitName(t *testing.T) {
	units := []Unit{{Name: "cargo-deb.service"}}
	snippets, err := Generate(units, Options{Enable: true, Start: true})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(snippets.Postinst, "cargo-deb.service") {
		t.Errorf("postinst missing unit name: %s", snippets.Postinst)
	}
	if !strings.Contains(snippets.Postrm, "cargo-deb.service") {
		t.Errorf("postrm missing unit name: %s", snippets.Postrm)
	}
}

func TestGenerateSkipsTmpfiles(t *testing.T) {
	units := []Unit{{Name: "cargo-deb.tmpfile", IsTmpfile: true}}
	snippets, err := Generate(units, Options{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if snippets.Postinst != "" || snippets.Prerm != "" || snippets.Postrm != "" {
		t.Errorf("expected empty snippets for tmpfile-only unit set, got %+v", snippets)
	}
}
