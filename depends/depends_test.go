package depends

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/mmstick/cargo-deb/config"
)

func TestResolveNoAutoSentinelIsNoop(t *testing.T) {
	cfg := &config.PackageConfig{Depends: []string{"libc6"}}
	if err := Resolve(cfg, nil, nil); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(cfg.Depends) != 1 || cfg.Depends[0] != "libc6" {
		t.Errorf("expected Depends unchanged, got %v", cfg.Depends)
	}
}

func TestSharedLibrariesNonELFSkipped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notelf")
	if err := os.WriteFile(path, []byte("not an elf file"), 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	libs, err := sharedLibraries(path)
	if err != nil {
		t.Fatalf("expected no error for non-ELF file, got %v", err)
	}
	if libs != nil {
		t.Errorf("expected nil libs, got %v", libs)
	}
}

func TestIndexOf(t *testing.T) {
	if got := indexOf([]string{"a", "$auto", "b"}, "$auto"); got != 1 {
		t.Errorf("expected index 1, got %d", got)
	}
	if got := indexOf([]string{"a", "b"}, "$auto"); got != -1 {
		t.Errorf("expected -1, got %d", got)
	}
}

func TestIntegrationResolveAgainstSystemBinary(t *testing.T) {
	if _, err := exec.LookPath("dpkg-query"); err != nil {
		t.Skip("dpkg-query not found, skipping integration test")
	}
	self, err := os.Executable()
	if err != nil {
		t.Skipf("cannot locate own binary: %v", err)
	}

	cfg := &config.PackageConfig{Depends: []string{"$auto"}}
	if err := Resolve(cfg, []string{self}, nil); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	for _, d := range cfg.Depends {
		if d == "$auto" {
			t.Errorf("sentinel was not rewritten")
		}
	}
}
