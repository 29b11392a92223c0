package debugsplit

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestSplitIntegration(t *testing.T) {
	if _, err := exec.LookPath("objcopy"); err != nil {
		t.Skip("objcopy not found, skipping integration test")
	}
	self, err := os.Executable()
	if err != nil {
		t.Skipf("cannot locate own binary: %v", err)
	}

	dir := t.TempDir()
	result, err := Split(DefaultTools(), self, dir)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if _, err := os.Stat(result.DebugPath); err != nil {
		t.Errorf("debug file not created: %v", err)
	}
	if _, err := os.Stat(result.StrippedPath); err != nil {
		t.Errorf("stripped file not created: %v", err)
	}
}

func TestStripOnlyIntegration(t *testing.T) {
	if _, err := exec.LookPath("strip"); err != nil {
		t.Skip("strip not found, skipping integration test")
	}
	self, err := os.Executable()
	if err != nil {
		t.Skipf("cannot locate own binary: %v", err)
	}

	dir := t.TempDir()
	stripped, err := StripOnly(DefaultTools(), self, dir)
	if err != nil {
		t.Fatalf("StripOnly failed: %v", err)
	}
	if filepath.Dir(stripped) != dir {
		t.Errorf("expected stripped binary under %s, got %s", dir, stripped)
	}
}
