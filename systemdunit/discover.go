package systemdunit

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// A unit file matches a package when its basename starts with "<pkg>." or
// "<pkg>@" and ends in one of these suffixes, which covers "<pkg>.<suffix>",
// "<pkg>@.<suffix>" (templated units) and "<pkg>.<unit>.<suffix>"; tmpfiles
// fragments are matched separately by a plain "<pkg>" prefix in Discover.
var allowedSuffixes = map[string]bool{
	"service": true, "socket": true, "timer": true,
	"path": true, "target": true, "mount": true, "tmpfile": true,
}

// Unit is one discovered systemd unit file belonging to a package.
type Unit struct {
	// Name is the unit's install-time name, e.g. "cargo-deb.service".
	Name string
	// Path is the unit file's location on disk.
	Path string
	// IsTmpfile marks a systemd-tmpfiles configuration fragment, which is
	// installed under usr/lib/tmpfiles.d/ instead of lib/systemd/system/.
	IsTmpfile bool
}

// Discover finds unit files under dir whose basename matches pkg against
// the naming patterns above, and returns them sorted alphabetically by
// Name. The builder passes config.PackageConfig.SystemdUnitName() as pkg.
func Discover(dir, pkg string) ([]Unit, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var units []Unit
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		suffix := strings.TrimPrefix(filepath.Ext(name), ".")
		if suffix == "tmpfile" {
			if !strings.HasPrefix(name, pkg) {
				continue
			}
			units = append(units, Unit{Name: name, Path: filepath.Join(dir, name), IsTmpfile: true})
			continue
		}
		if !allowedSuffixes[suffix] {
			continue
		}
		if !matchesPackage(name, pkg) {
			continue
		}
		units = append(units, Unit{Name: name, Path: filepath.Join(dir, name)})
	}

	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })
	return units, nil
}

func matchesPackage(name, pkg string) bool {
	if strings.HasPrefix(name, pkg+".") || strings.HasPrefix(name, pkg+"@") {
		return true
	}
	return false
}

// InstallPath returns the destination path within the data archive for a
// discovered unit: regular units go to lib/systemd/system/, tmpfiles
// fragments go to usr/lib/tmpfiles.d/.
func (u Unit) InstallPath() string {
	if u.IsTmpfile {
		name := strings.TrimSuffix(u.Name, ".tmpfile") + ".conf"
		return "usr/lib/tmpfiles.d/" + name
	}
	return "lib/systemd/system/" + u.Name
}
