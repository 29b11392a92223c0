package config

import "fmt"

// Priority is a Debian control Priority field value.
type Priority string

const (
	PriorityRequired  Priority = "required"
	PriorityImportant Priority = "important"
	PriorityStandard  Priority = "standard"
	PriorityOptional  Priority = "optional"
	PriorityExtra     Priority = "extra"
)

// AssetSpec is one user-declared piece of package content, before glob
// expansion and source rewriting. Source may be a literal path or a glob
// pattern; Destination may name a file or, with a trailing slash, a
// directory that the basenames of matched sources are placed under.
type AssetSpec struct {
	Source          string
	Destination     string
	Mode            int64
	IsBuiltArtifact bool
}

// SystemdConfig controls unit discovery and maintainer-script injection for
// a package that installs one or more systemd units.
type SystemdConfig struct {
	// UnitScriptsDir is the directory searched for unit files matching the
	// naming patterns in the systemd integrator.
	UnitScriptsDir string
	// UnitName overrides the package name used to match unit files when
	// set; otherwise the package's own Name is used.
	UnitName string

	Enable               bool
	Start                bool
	RestartAfterUpgrade  bool
	StopOnUpgrade        bool
}

// LicenseFile names the project's license text and how many leading lines
// (typically a boilerplate header) to skip when folding it into the
// generated copyright file.
type LicenseFile struct {
	Path      string
	SkipLines int
}

// PackageConfig is the fully resolved description of one .deb build. It is
// produced by the manifest loader or constructed directly and validated once
// with Validate. The builder changes only Depends, where the dependency
// analyzer replaces a "$auto" entry with the resolved atoms.
type PackageConfig struct {
	Name         string
	Version      string
	Revision     string
	Architecture string
	Maintainer   string
	Homepage     string
	Section      string
	Priority     Priority

	Synopsis string
	Extended string

	Depends    []string
	PreDepends []string
	Recommends []string
	Suggests   []string
	Enhances   []string
	Conflicts  []string
	Breaks     []string
	Replaces   []string
	Provides   []string

	Assets []AssetSpec

	Copyright   string
	LicenseFile *LicenseFile

	MaintainerScriptsDir string
	ConfFiles            []string
	TriggersFile         string
	ChangelogPath        string
	CopyrightAdditions   string

	Systemd *SystemdConfig

	PreserveSymlinks      bool
	SeparateDebugSymbols  bool
	Fast                  bool
	Strip                 bool
	NoBuild               bool

	Variant        string
	ProjectRoot    string
	BuildOutputDir string
	OutputDir      string
}

// FullVersion joins Version and Revision the way dpkg expects: "1.2.3-4",
// or bare "1.2.3" when no revision is set.
func (c *PackageConfig) FullVersion() string {
	if c.Revision == "" {
		return c.Version
	}
	return c.Version + "-" + c.Revision
}

// OutputFilename constructs the final .deb basename:
// <name>_<version>[_<variant>]_<arch>.deb.
func (c *PackageConfig) OutputFilename() string {
	name := c.Name
	if c.Variant != "" {
		return fmt.Sprintf("%s_%s_%s_%s.deb", name, c.FullVersion(), c.Variant, c.Architecture)
	}
	return fmt.Sprintf("%s_%s_%s.deb", name, c.FullVersion(), c.Architecture)
}

// SystemdUnitName returns the package name systemd unit matching should use:
// the Systemd.UnitName override when set, else the package Name, per the
// variant-naming decision recorded in DESIGN.md.
func (c *PackageConfig) SystemdUnitName() string {
	if c.Systemd != nil && c.Systemd.UnitName != "" {
		return c.Systemd.UnitName
	}
	return c.Name
}

// Validate checks the fields that every build depends on and returns the
// first ConfigError found, or nil.
func (c *PackageConfig) Validate() error {
	if c.Name == "" {
		return &ConfigError{Field: "name", Reason: "must not be empty"}
	}
	if c.Version == "" {
		return &ConfigError{Field: "version", Reason: "must not be empty"}
	}
	if c.Architecture == "" {
		return &ConfigError{Field: "architecture", Reason: "must not be empty"}
	}
	if c.Maintainer == "" {
		return &ConfigError{Field: "maintainer", Reason: "must not be empty"}
	}
	if c.Systemd != nil && c.MaintainerScriptsDir == "" {
		// The systemd integrator injects snippets into maintainer scripts;
		// without a scripts directory it has nowhere to merge into, and
		// would silently drop the #DEBHELPER#-style activation logic.
		if c.Systemd.Enable || c.Systemd.Start {
			return &ConfigError{Field: "maintainer_scripts_dir", Reason: "required when systemd.enable or systemd.start is set"}
		}
	}
	return nil
}
