package depends

import (
	"os/exec"
	"sort"
	"strings"

	"github.com/mmstick/cargo-deb/config"
)

const autoSentinel = "$auto"

// Resolve rewrites the "$auto" sentinel in cfg.Depends (if present) with
// the packages owning binaries' dynamic library dependencies. It leaves
// cfg.Depends untouched when "$auto" is absent.
//
// When $auto was requested, resolution fails if dpkg-query is unavailable,
// if an ELF binary cannot be read, or if dpkg-query fails for a reason other
// than "no package found". A non-ELF file or a binary with no dynamic
// section is skipped silently, and a library that cannot be found on disk
// or that no package owns contributes no atom.
func Resolve(cfg *config.PackageConfig, binaries []string, listener config.Listener) error {
	idx := indexOf(cfg.Depends, autoSentinel)
	if idx < 0 {
		return nil
	}

	if _, err := exec.LookPath("dpkg-query"); err != nil {
		return &config.DependencyError{Reason: "\"$auto\" requested but dpkg-query is not available", Err: err}
	}

	atomSet := make(map[string]bool)
	for _, bin := range binaries {
		libs, err := sharedLibraries(bin)
		if err != nil {
			return err
		}
		if len(libs) == 0 {
			continue
		}
		dirs := searchPaths(bin)

		var atoms []string
		for _, lib := range libs {
			atom, err := resolveAtom(lib, dirs)
			if err != nil {
				return err
			}
			if atom == "" {
				continue
			}
			atoms = append(atoms, atom)
			atomSet[atom] = true
		}
		if listener != nil && len(atoms) > 0 {
			listener(config.EventDependencyResolved{Binary: bin, Atoms: atoms})
		}
	}

	var auto []string
	for atom := range atomSet {
		auto = append(auto, atom)
	}
	sort.Strings(auto)

	rewritten := make([]string, 0, len(cfg.Depends)-1+len(auto))
	rewritten = append(rewritten, cfg.Depends[:idx]...)
	rewritten = append(rewritten, auto...)
	rewritten = append(rewritten, cfg.Depends[idx+1:]...)
	cfg.Depends = rewritten
	return nil
}

// resolveAtom maps a single SONAME to a dependency atom, either
// "pkg (>= version)" when dpkg-query knows the owning package and its
// installed version, or a bare package name when the version is unknown,
// or "" when no local file is found or no package claims the library.
func resolveAtom(lib string, dirs []string) (string, error) {
	path := locateLibrary(lib, dirs)
	if path == "" {
		return "", nil
	}
	pkg, err := owningPackage(path)
	if err != nil {
		return "", err
	}
	if pkg == "" {
		return "", nil
	}
	version, err := installedVersion(pkg)
	if err != nil {
		return "", err
	}
	if version == "" {
		return pkg, nil
	}
	return pkg + " (>= " + version + ")", nil
}

func indexOf(ss []string, target string) int {
	for i, s := range ss {
		if strings.TrimSpace(s) == target {
			return i
		}
	}
	return -1
}
