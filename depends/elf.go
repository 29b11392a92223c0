package depends

import (
	"debug/elf"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmstick/cargo-deb/config"
)

// sharedLibraries returns the DT_NEEDED entries of the ELF binary at path,
// as the bare library names recorded in the dynamic section (searchPaths
// and locateLibrary find them on disk). Non-ELF files and statically linked
// binaries (no dynamic section) return a nil slice and no error: they are
// silently skipped by the analyzer, not treated as a failure.
func sharedLibraries(path string) ([]string, error) {
	f, err := elf.Open(path)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "bad magic") || strings.Contains(msg, "cannot read ELF identifier") ||
			errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			// Too short to hold an ELF identifier, or not starting with
			// the ELF magic: not an ELF file.
			return nil, nil
		}
		return nil, &config.DependencyError{Binary: path, Reason: "cannot open as ELF", Err: err}
	}
	defer f.Close()

	needed, err := f.ImportedLibraries()
	if err != nil {
		return nil, &config.DependencyError{Binary: path, Reason: "cannot read imported libraries", Err: err}
	}
	if len(needed) == 0 {
		// Statically linked or no dynamic section: nothing to resolve.
		return nil, nil
	}

	return needed, nil
}

// searchPaths builds the ordered list of directories to search for a
// binary's DT_NEEDED entries: its own rpath/runpath first, then the
// standard multiarch library directories.
func searchPaths(path string) []string {
	f, err := elf.Open(path)
	if err != nil {
		return defaultLibDirs()
	}
	defer f.Close()

	var dirs []string
	if rp, err := f.DynString(elf.DT_RPATH); err == nil {
		dirs = append(dirs, splitColonList(rp)...)
	}
	if rp, err := f.DynString(elf.DT_RUNPATH); err == nil {
		dirs = append(dirs, splitColonList(rp)...)
	}
	return append(dirs, defaultLibDirs()...)
}

func splitColonList(entries []string) []string {
	var out []string
	for _, e := range entries {
		out = append(out, strings.Split(e, ":")...)
	}
	return out
}

func defaultLibDirs() []string {
	return []string{
		"/lib/x86_64-linux-gnu",
		"/usr/lib/x86_64-linux-gnu",
		"/lib",
		"/usr/lib",
	}
}

// locateLibrary finds the on-disk path of a shared library name by
// searching dirs in order. Returns "" if it cannot be found locally; the
// caller then contributes no dependency atom for that library.
func locateLibrary(name string, dirs []string) string {
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
