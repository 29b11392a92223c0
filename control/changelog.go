package control

import (
	"bytes"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/mmstick/cargo-deb/config"
)

// GenerateChangelogGz reads the changelog at path and gzip-compresses it
// for inclusion as usr/share/doc/<package>/changelog.Debian.gz. The writer
// is never given an explicit ModTime, so the gzip header's mtime field is
// the zero value, keeping output byte-identical across builds.
func GenerateChangelogGz(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &config.IoError{Path: path, Err: err}
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(content); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
