package deb

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateControlFile(t *testing.T) {
	p := &Package{
		Metadata: Metadata{
			Package:      "test-pkg",
			Version:      "1.2.3",
			Architecture: "amd64",
			Maintainer:   "Maintainer <m@example.com>",
			Description:  "Short description\n Long description line 1\n Long description line 2",
			Depends:      []string{"libc6", "git"},
		},
	}

	// 2048 bytes -> 2KB installed size
	out := p.generateControlFile(2048)

	expectedLines := []string{
		"Package: test-pkg",
		"Version: 1.2.3",
		"Architecture: amd64",
		"Maintainer: Maintainer <m@example.com>",
		"Installed-Size: 2",
		"Depends: libc6, git",
		"Description: Short description",
		" Long description line 1",
		" Long description line 2",
	}

	for _, line := range expectedLines {
		if !strings.Contains(out, line) {
			t.Errorf("control file missing expected line: %q", line)
		}
	}
}

func TestGenerateControlFileFoldsBlankDescriptionLines(t *testing.T) {
	p := &Package{
		Metadata: Metadata{
			Package: "test-pkg", Version: "1", Architecture: "amd64", Maintainer: "m",
			Description: "Synopsis\n\nSecond paragraph",
		},
	}
	out := p.generateControlFile(0)
	if !strings.Contains(out, "\n .\n") {
		t.Errorf("expected blank description line folded to lone '.', got:\n%s", out)
	}
}

func TestGenerateMd5sums(t *testing.T) {
	p := &Package{Files: []File{}}
	md5Map := map[string]string{
		"usr/bin/b": "hash_b",
		"usr/bin/a": "hash_a",
	}

	out := p.generateMd5sums(md5Map)

	expected := "hash_a  usr/bin/a\nhash_b  usr/bin/b\n"
	if out != expected {
		t.Errorf("expected:\n%q\ngot:\n%q", expected, out)
	}
}

func TestBuildDataArchive(t *testing.T) {
	content := []byte("test content")
	p := &Package{
		Files: []File{
			{DestPath: "/usr/bin/test", Mode: 0755, Body: content},
		},
	}

	var buf bytes.Buffer
	md5Map, size, err := p.buildDataArchive(&buf)
	if err != nil {
		t.Fatalf("buildDataArchive failed: %v", err)
	}

	if size != int64(len(content)) {
		t.Errorf("expected size %d, got %d", len(content), size)
	}

	hash := md5.Sum(content)
	expectedHash := hex.EncodeToString(hash[:])
	if got := md5Map["usr/bin/test"]; got != expectedHash {
		t.Errorf("expected hash %s, got %s", expectedHash, got)
	}
}

func TestStandardFilename(t *testing.T) {
	p := &Package{
		Metadata: Metadata{Package: "foo", Version: "1.0.0", Architecture: "arm64"},
	}
	if got := p.StandardFilename(); got != "foo_1.0.0_arm64.deb" {
		t.Errorf("expected foo_1.0.0_arm64.deb, got %s", got)
	}
}

func TestWriteToThenNewPackageRoundTrip(t *testing.T) {
	pkg := &Package{
		Metadata: Metadata{
			Package: "round-trip", Version: "1.0.0", Architecture: "amd64",
			Maintainer: "Test User <test@example.com>", Depends: []string{"libc6"},
		},
		Files: []File{
			{DestPath: "/usr/bin/hello", Mode: 0755, Body: []byte("#!/bin/sh\necho hello\n")},
			{DestPath: "/etc/hello.conf", Mode: 0644, Body: []byte("key=value\n"), IsConf: true},
		},
	}

	var buf bytes.Buffer
	if _, err := pkg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}

	parsed, err := NewPackage(&buf)
	if err != nil {
		t.Fatalf("NewPackage failed: %v", err)
	}

	if parsed.Metadata.Package != "round-trip" || parsed.Metadata.Version != "1.0.0" {
		t.Errorf("metadata mismatch: %+v", parsed.Metadata)
	}
	if len(parsed.Metadata.Depends) != 1 || parsed.Metadata.Depends[0] != "libc6" {
		t.Errorf("depends mismatch: %v", parsed.Metadata.Depends)
	}
	if len(parsed.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(parsed.Files))
	}

	var sawConf bool
	for _, f := range parsed.Files {
		if f.DestPath == "/etc/hello.conf" {
			sawConf = true
			if !f.IsConf {
				t.Errorf("expected /etc/hello.conf to round-trip as a conffile")
			}
		}
	}
	if !sawConf {
		t.Errorf("conffile missing from round trip")
	}
}

func TestWriteToIsDeterministic(t *testing.T) {
	build := func() []byte {
		pkg := &Package{
			Metadata: Metadata{Package: "det", Version: "1", Architecture: "amd64", Maintainer: "m"},
			Files:    []File{{DestPath: "/usr/bin/det", Mode: 0755, Body: []byte("x")}},
		}
		var buf bytes.Buffer
		if _, err := pkg.WriteTo(&buf); err != nil {
			t.Fatalf("WriteTo failed: %v", err)
		}
		return buf.Bytes()
	}

	a, b := build(), build()
	if !bytes.Equal(a, b) {
		t.Errorf("expected byte-identical output across builds")
	}
}

func TestIntegrationDebGeneration(t *testing.T) {
	if _, err := exec.LookPath("dpkg-deb"); err != nil {
		t.Skip("dpkg-deb not found, skipping integration test")
	}

	tmpDir := t.TempDir()
	debPath := filepath.Join(tmpDir, "test.deb")

	pkg := &Package{
		Metadata: Metadata{
			Package:      "test-integration",
			Version:      "1.0.0",
			Architecture: "amd64",
			Maintainer:   "Test User <test@example.com>",
			Description:  "Test integration package",
		},
		Files: []File{
			{DestPath: "/usr/bin/hello", Mode: 0755, Body: []byte("#!/bin/sh\necho hello\n")},
		},
	}

	f, err := os.Create(debPath)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if _, err := pkg.WriteTo(f); err != nil {
		f.Close()
		t.Fatalf("WriteTo failed: %v", err)
	}
	f.Close()

	out, err := exec.Command("dpkg-deb", "--info", debPath).CombinedOutput()
	if err != nil {
		t.Fatalf("dpkg-deb --info failed: %v\n%s", err, out)
	}
	info := string(out)
	if !strings.Contains(info, "Package: test-integration") {
		t.Errorf("missing Package field in info")
	}

	out, err = exec.Command("dpkg-deb", "--contents", debPath).CombinedOutput()
	if err != nil {
		t.Fatalf("dpkg-deb --contents failed: %v\n%s", err, out)
	}
	contents := string(out)
	if !strings.Contains(contents, "./usr/bin/hello") {
		t.Errorf("missing file in contents: %s", contents)
	}
}
