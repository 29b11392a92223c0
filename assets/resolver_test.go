package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mmstick/cargo-deb/config"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func TestResolveDefaultAssets(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "cargo-deb")
	writeFile(t, bin, "binary content")
	readme := filepath.Join(dir, "README.md")
	writeFile(t, readme, "hello\n")

	r := &Resolver{ProjectRoot: dir}
	cfg := &config.PackageConfig{Name: "cargo-deb"}

	resolved, size, err := r.Resolve(cfg, []string{bin}, readme)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("expected 2 resolved assets, got %d", len(resolved))
	}
	if resolved[0].Dest != "usr/bin/cargo-deb" {
		t.Errorf("expected usr/bin/cargo-deb, got %s", resolved[0].Dest)
	}
	if resolved[0].Mode != 0755 {
		t.Errorf("expected mode 0755, got %o", resolved[0].Mode)
	}
	if resolved[1].Dest != "usr/share/doc/cargo-deb/README" {
		t.Errorf("expected usr/share/doc/cargo-deb/README, got %s", resolved[1].Dest)
	}
	if size <= 0 {
		t.Errorf("expected positive installed size, got %d", size)
	}
}

func TestResolveLiteralIntoDirectory(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "cargo-deb")
	writeFile(t, bin, "binary content")

	r := &Resolver{ProjectRoot: dir}
	cfg := &config.PackageConfig{
		Name: "cargo-deb",
		Assets: []config.AssetSpec{
			{Source: bin, Destination: "usr/bin/", Mode: 0755},
		},
	}

	resolved, _, err := r.Resolve(cfg, nil, "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(resolved) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(resolved))
	}
	if resolved[0].Dest != "usr/bin/cargo-deb" {
		t.Errorf("expected usr/bin/cargo-deb, got %s", resolved[0].Dest)
	}
}

func TestResolveGlobIntoDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "b.txt"), "b")

	r := &Resolver{ProjectRoot: dir}
	cfg := &config.PackageConfig{
		Name: "pkg",
		Assets: []config.AssetSpec{
			{Source: filepath.Join(dir, "*.txt"), Destination: "usr/share/pkg/", Mode: 0644},
		},
	}

	resolved, _, err := r.Resolve(cfg, nil, "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(resolved))
	}
	if resolved[0].Dest != "usr/share/pkg/a.txt" || resolved[1].Dest != "usr/share/pkg/b.txt" {
		t.Errorf("unexpected destinations: %v, %v", resolved[0].Dest, resolved[1].Dest)
	}
}

func TestResolveEmptyGlobFatalUnlessDirDest(t *testing.T) {
	dir := t.TempDir()
	r := &Resolver{ProjectRoot: dir}

	cfg := &config.PackageConfig{
		Name:   "pkg",
		Assets: []config.AssetSpec{{Source: filepath.Join(dir, "*.missing"), Destination: "usr/bin/pkg"}},
	}
	if _, _, err := r.Resolve(cfg, nil, ""); err == nil {
		t.Fatal("expected error for empty glob into non-directory destination")
	}

	cfgDir := &config.PackageConfig{
		Name:   "pkg",
		Assets: []config.AssetSpec{{Source: filepath.Join(dir, "*.missing"), Destination: "usr/share/pkg/"}},
	}
	resolved, _, err := r.Resolve(cfgDir, nil, "")
	if err != nil {
		t.Fatalf("expected no error for empty glob into directory destination, got %v", err)
	}
	if len(resolved) != 0 {
		t.Errorf("expected 0 assets, got %d", len(resolved))
	}
}

func TestResolveDestinationCollision(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "b.txt"), "b")

	r := &Resolver{ProjectRoot: dir}
	cfg := &config.PackageConfig{
		Name: "pkg",
		Assets: []config.AssetSpec{
			{Source: filepath.Join(dir, "a.txt"), Destination: "usr/share/pkg/x"},
			{Source: filepath.Join(dir, "b.txt"), Destination: "usr/share/pkg/x"},
		},
	}
	if _, _, err := r.Resolve(cfg, nil, ""); err == nil {
		t.Fatal("expected collision error")
	}
}

func TestResolveSymlinkPreserve(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	writeFile(t, target, "real content")
	link := filepath.Join(dir, "link")
	if err := os.Symlink("real", link); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	r := &Resolver{ProjectRoot: dir, PreserveSymlinks: true}
	cfg := &config.PackageConfig{
		Name:   "pkg",
		Assets: []config.AssetSpec{{Source: link, Destination: "usr/lib/pkg/link"}},
	}
	resolved, _, err := r.Resolve(cfg, nil, "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(resolved) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(resolved))
	}
	if resolved[0].Kind != SourceSymlink {
		t.Errorf("expected SourceSymlink, got %v", resolved[0].Kind)
	}
	if resolved[0].LinkTarget != "real" {
		t.Errorf("expected link target 'real', got %s", resolved[0].LinkTarget)
	}
}

func TestRoundUpKiB(t *testing.T) {
	cases := []struct {
		n    int64
		want int64
	}{
		{0, 0},
		{1, 1024},
		{1024, 1024},
		{1025, 2048},
	}
	for _, c := range cases {
		if got := roundUpKiB(c.n); got != c.want {
			t.Errorf("roundUpKiB(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}
