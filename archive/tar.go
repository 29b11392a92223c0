package archive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// Entry is a single file or symlink destined for a tar stream. Directory
// entries are synthesized by WriteTar itself; callers never supply them.
type Entry struct {
	// Name is the destination path relative to the archive root, without a
	// leading "/" or "./" (e.g. "usr/bin/cargo-deb").
	Name string
	// Mode holds the 9-bit permission bits (e.g. 0755).
	Mode int64
	// Linkname is the verbatim symlink target. Set only when Typeflag is
	// tar.TypeSymlink.
	Linkname string
	// Typeflag is tar.TypeReg or tar.TypeSymlink.
	Typeflag byte
	// Size is the content length. Ignored for symlinks.
	Size int64
	// Body supplies the file content for regular entries. May be nil for
	// symlinks.
	Body io.Reader
}

// WriteTar emits entries as a deterministic POSIX ustar stream rooted at
// "./": every proper ancestor directory of an entry is written exactly once,
// with mode 0755, before the first file inside it, and sibling entries are
// ordered lexicographically. Long names (>100 bytes) use the GNU LongLink
// extension transparently via tar.FormatGNU. All entries carry owner/group
// 0/root and a fixed modification time (epoch, unless epoch is non-zero).
func WriteTar(w io.Writer, entries []Entry, epoch time.Time) error {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	tw := tar.NewWriter(w)

	writtenDirs := make(map[string]bool)

	writeDir := func(name string) error {
		if name == "" || name == "." || writtenDirs[name] {
			return nil
		}
		writtenDirs[name] = true
		hdr := &tar.Header{
			Format:   tar.FormatGNU,
			Name:     "./" + strings.TrimSuffix(name, "/") + "/",
			Mode:     0755,
			Typeflag: tar.TypeDir,
			ModTime:  epoch,
			Uid:      0,
			Gid:      0,
			Uname:    "root",
			Gname:    "root",
		}
		return tw.WriteHeader(hdr)
	}

	var ensureAncestors func(name string) error
	ensureAncestors = func(name string) error {
		idx := strings.LastIndex(strings.TrimSuffix(name, "/"), "/")
		if idx < 0 {
			return nil
		}
		parent := name[:idx]
		if parent == "" || writtenDirs[parent] {
			return nil
		}
		if err := ensureAncestors(parent); err != nil {
			return err
		}
		return writeDir(parent)
	}

	for _, e := range sorted {
		clean := strings.TrimPrefix(e.Name, "/")
		if err := ensureAncestors(clean); err != nil {
			return fmt.Errorf("writing ancestor dirs for %s: %w", clean, err)
		}

		typeflag := e.Typeflag
		if typeflag == 0 {
			typeflag = tar.TypeReg
		}

		hdr := &tar.Header{
			Format:   tar.FormatGNU,
			Name:     "./" + clean,
			Mode:     e.Mode,
			Typeflag: typeflag,
			ModTime:  epoch,
			Uid:      0,
			Gid:      0,
			Uname:    "root",
			Gname:    "root",
		}

		switch typeflag {
		case tar.TypeSymlink:
			hdr.Linkname = e.Linkname
		default:
			hdr.Size = e.Size
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("writing tar header for %s: %w", clean, err)
		}

		if typeflag != tar.TypeSymlink && e.Body != nil {
			if _, err := io.Copy(tw, e.Body); err != nil {
				return fmt.Errorf("writing tar body for %s: %w", clean, err)
			}
		}
	}

	return tw.Close()
}

// BytesEntry is a convenience constructor for a regular-file Entry backed by
// an in-memory byte slice.
func BytesEntry(name string, mode int64, content []byte) Entry {
	return Entry{
		Name:     name,
		Mode:     mode,
		Typeflag: tar.TypeReg,
		Size:     int64(len(content)),
		Body:     bytes.NewReader(content),
	}
}
