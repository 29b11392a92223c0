package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
defines:
  target_dir: target/release
  pkg_name: demo
name: "{{.pkg_name}}"
version: "1.0.0"
architecture: amd64
maintainer: Test User <test@example.com>
depends:
  - "$auto"
assets:
  - source: "{{.target_dir}}/{{.pkg_name}}"
    destination: "usr/bin/{{.pkg_name}}"
    mode: "0755"
    built_artifact: true
systemd:
  enable: true
  start: true
maintainer_scripts_dir: scripts
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pkg.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	return path
}

func TestLoadAndResolve(t *testing.T) {
	path := writeManifest(t, sampleYAML)

	spec, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg, err := spec.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if cfg.Name != "demo" {
		t.Errorf("expected name %q rendered from define, got %q", "demo", cfg.Name)
	}
	if len(cfg.Assets) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(cfg.Assets))
	}
	asset := cfg.Assets[0]
	if asset.Destination != "usr/bin/demo" {
		t.Errorf("expected destination usr/bin/demo, got %s", asset.Destination)
	}
	if asset.Mode != 0755 {
		t.Errorf("expected mode 0755, got %o", asset.Mode)
	}
	if !asset.IsBuiltArtifact {
		t.Errorf("expected asset to be marked as a built artifact")
	}
	if cfg.Systemd == nil || !cfg.Systemd.Enable || !cfg.Systemd.Start {
		t.Errorf("expected systemd enable+start to be carried through, got %+v", cfg.Systemd)
	}
	if len(cfg.Depends) != 1 || cfg.Depends[0] != "$auto" {
		t.Errorf("expected depends to carry the $auto sentinel untouched, got %v", cfg.Depends)
	}
}

func TestResolveRejectsUnknownDefine(t *testing.T) {
	path := writeManifest(t, `
name: "{{.missing}}"
version: "1.0.0"
architecture: amd64
maintainer: Test User <test@example.com>
`)
	spec, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := spec.Resolve(); err == nil {
		t.Errorf("expected Resolve to fail on an undefined template variable")
	}
}

func TestResolveValidatesRequiredFields(t *testing.T) {
	path := writeManifest(t, `
name: ""
version: "1.0.0"
architecture: amd64
`)
	spec, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := spec.Resolve(); err == nil {
		t.Errorf("expected Resolve to fail validation for missing name/maintainer")
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pkg.json")
	content := `{"name":"demo","version":"1.0.0","architecture":"amd64","maintainer":"m"}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}

	spec, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg, err := spec.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cfg.Name != "demo" {
		t.Errorf("expected name demo, got %s", cfg.Name)
	}
}
