package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mmstick/cargo-deb/config"
	"go.yaml.in/yaml/v3"
)

// Load reads a package description from path, sniffing YAML or JSON from
// its extension, and resolves its defines through the dependency-ordered
// template engine.
func Load(path string) (*PackageSpec, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var spec PackageSpec
	if err := unmarshal(path, content, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	spec.filePath = path
	spec.engine, err = newTemplateEngine(spec.Defines)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize template engine: %w", err)
	}
	return &spec, nil
}

// unmarshal parses JSON or YAML based on file extension.
func unmarshal(path string, data []byte, v interface{}) error {
	ext := strings.ToLower(filepath.Ext(path))
	r := bytes.NewReader(data)
	if ext == ".yaml" || ext == ".yml" {
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		return dec.Decode(v)
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// AssetEntry is a templated asset mapping: Source and Destination may
// reference defines, e.g. "{{.target_dir}}/myapp" -> "usr/bin/myapp".
type AssetEntry struct {
	Source          string `json:"source" yaml:"source"`
	Destination     string `json:"destination" yaml:"destination"`
	Mode            string `json:"mode" yaml:"mode"`
	BuiltArtifact   bool   `json:"built_artifact" yaml:"built_artifact"`
}

// SystemdSpec is the templated counterpart of config.SystemdConfig.
type SystemdSpec struct {
	UnitScriptsDir      string `json:"unit_scripts_dir" yaml:"unit_scripts_dir"`
	UnitName            string `json:"unit_name" yaml:"unit_name"`
	Enable              bool   `json:"enable" yaml:"enable"`
	Start               bool   `json:"start" yaml:"start"`
	RestartAfterUpgrade bool   `json:"restart_after_upgrade" yaml:"restart_after_upgrade"`
	StopOnUpgrade       bool   `json:"stop_on_upgrade" yaml:"stop_on_upgrade"`
}

// PackageSpec is the on-disk, templated description of a package. Resolve
// renders every templated field and produces the frozen config.PackageConfig
// that enters the builder.
type PackageSpec struct {
	Defines map[string]string `json:"defines" yaml:"defines"`

	Name         string `json:"name" yaml:"name"`
	Version      string `json:"version" yaml:"version"`
	Revision     string `json:"revision" yaml:"revision"`
	Architecture string `json:"architecture" yaml:"architecture"`
	Maintainer   string `json:"maintainer" yaml:"maintainer"`
	Homepage     string `json:"homepage" yaml:"homepage"`
	Section      string `json:"section" yaml:"section"`
	Priority     string `json:"priority" yaml:"priority"`
	Synopsis     string `json:"synopsis" yaml:"synopsis"`
	Extended     string `json:"extended" yaml:"extended"`

	Depends    []string `json:"depends" yaml:"depends"`
	PreDepends []string `json:"pre_depends" yaml:"pre_depends"`
	Recommends []string `json:"recommends" yaml:"recommends"`
	Suggests   []string `json:"suggests" yaml:"suggests"`
	Enhances   []string `json:"enhances" yaml:"enhances"`
	Conflicts  []string `json:"conflicts" yaml:"conflicts"`
	Breaks     []string `json:"breaks" yaml:"breaks"`
	Replaces   []string `json:"replaces" yaml:"replaces"`
	Provides   []string `json:"provides" yaml:"provides"`

	Assets []AssetEntry `json:"assets" yaml:"assets"`

	Copyright            string `json:"copyright" yaml:"copyright"`
	LicenseFile          string `json:"license_file" yaml:"license_file"`
	LicenseFileSkipLines int    `json:"license_file_skip_lines" yaml:"license_file_skip_lines"`
	MaintainerScriptsDir string `json:"maintainer_scripts_dir" yaml:"maintainer_scripts_dir"`
	ConfFiles            []string `json:"conf_files" yaml:"conf_files"`
	TriggersFile         string `json:"triggers_file" yaml:"triggers_file"`
	ChangelogPath        string `json:"changelog_path" yaml:"changelog_path"`
	CopyrightAdditions   string `json:"copyright_additions" yaml:"copyright_additions"`

	Systemd *SystemdSpec `json:"systemd" yaml:"systemd"`

	PreserveSymlinks     bool   `json:"preserve_symlinks" yaml:"preserve_symlinks"`
	SeparateDebugSymbols bool   `json:"separate_debug_symbols" yaml:"separate_debug_symbols"`
	Fast                 bool   `json:"fast" yaml:"fast"`
	Strip                bool   `json:"strip" yaml:"strip"`
	NoBuild              bool   `json:"no_build" yaml:"no_build"`
	Variant              string `json:"variant" yaml:"variant"`
	ProjectRoot          string `json:"project_root" yaml:"project_root"`
	BuildOutputDir       string `json:"build_output_dir" yaml:"build_output_dir"`
	OutputDir            string `json:"output_dir" yaml:"output_dir"`

	filePath string
	engine   *templateEngine
}

func (s *PackageSpec) render(name, text string) (string, error) {
	return s.engine.render(name, text)
}

func (s *PackageSpec) renderList(name string, texts []string) ([]string, error) {
	if texts == nil {
		return nil, nil
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		v, err := s.render(fmt.Sprintf("%s[%d]", name, i), t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// resolve is a path relative to the manifest file, unless already absolute.
func (s *PackageSpec) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(s.filePath), path)
}

// Resolve renders every templated field of the spec and assembles the
// frozen package configuration that the builder consumes.
func (s *PackageSpec) Resolve() (*config.PackageConfig, error) {
	var errs []error
	must := func(name, text string) string {
		v, err := s.render(name, text)
		if err != nil {
			errs = append(errs, err)
			return text
		}
		return v
	}
	mustList := func(name string, texts []string) []string {
		v, err := s.renderList(name, texts)
		if err != nil {
			errs = append(errs, err)
			return texts
		}
		return v
	}

	cfg := &config.PackageConfig{
		Name:         must("name", s.Name),
		Version:      must("version", s.Version),
		Revision:     must("revision", s.Revision),
		Architecture: must("architecture", s.Architecture),
		Maintainer:   must("maintainer", s.Maintainer),
		Homepage:     must("homepage", s.Homepage),
		Section:      must("section", s.Section),
		Priority:     config.Priority(must("priority", s.Priority)),
		Synopsis:     must("synopsis", s.Synopsis),
		Extended:     must("extended", s.Extended),

		Depends:    mustList("depends", s.Depends),
		PreDepends: mustList("pre_depends", s.PreDepends),
		Recommends: mustList("recommends", s.Recommends),
		Suggests:   mustList("suggests", s.Suggests),
		Enhances:   mustList("enhances", s.Enhances),
		Conflicts:  mustList("conflicts", s.Conflicts),
		Breaks:     mustList("breaks", s.Breaks),
		Replaces:   mustList("replaces", s.Replaces),
		Provides:   mustList("provides", s.Provides),

		Copyright:            must("copyright", s.Copyright),
		MaintainerScriptsDir: s.resolve(must("maintainer_scripts_dir", s.MaintainerScriptsDir)),
		ConfFiles:            mustList("conf_files", s.ConfFiles),
		TriggersFile:         s.resolve(must("triggers_file", s.TriggersFile)),
		ChangelogPath:        s.resolve(must("changelog_path", s.ChangelogPath)),
		CopyrightAdditions:   must("copyright_additions", s.CopyrightAdditions),

		PreserveSymlinks:     s.PreserveSymlinks,
		SeparateDebugSymbols: s.SeparateDebugSymbols,
		Fast:                 s.Fast,
		Strip:                s.Strip,
		NoBuild:              s.NoBuild,
		Variant:              must("variant", s.Variant),
		ProjectRoot:          s.resolve(must("project_root", s.ProjectRoot)),
		BuildOutputDir:       s.resolve(must("build_output_dir", s.BuildOutputDir)),
		OutputDir:            s.resolve(must("output_dir", s.OutputDir)),
	}

	if s.LicenseFile != "" {
		cfg.LicenseFile = &config.LicenseFile{
			Path:      s.resolve(must("license_file", s.LicenseFile)),
			SkipLines: s.LicenseFileSkipLines,
		}
	}

	for i, a := range s.Assets {
		src := must(fmt.Sprintf("assets[%d].source", i), a.Source)
		dst := must(fmt.Sprintf("assets[%d].destination", i), a.Destination)
		mode := int64(0644)
		if a.Mode != "" {
			modeStr := must(fmt.Sprintf("assets[%d].mode", i), a.Mode)
			m, err := strconv.ParseInt(modeStr, 8, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("asset[%d]: parsing mode %q: %w", i, modeStr, err))
			} else {
				mode = m
			}
		}
		cfg.Assets = append(cfg.Assets, config.AssetSpec{
			Source:          s.resolve(src),
			Destination:     dst,
			Mode:            mode,
			IsBuiltArtifact: a.BuiltArtifact,
		})
	}

	if s.Systemd != nil {
		cfg.Systemd = &config.SystemdConfig{
			UnitScriptsDir:      s.resolve(must("systemd.unit_scripts_dir", s.Systemd.UnitScriptsDir)),
			UnitName:            must("systemd.unit_name", s.Systemd.UnitName),
			Enable:              s.Systemd.Enable,
			Start:               s.Systemd.Start,
			RestartAfterUpgrade: s.Systemd.RestartAfterUpgrade,
			StopOnUpgrade:       s.Systemd.StopOnUpgrade,
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("resolving manifest %s: %w", s.filePath, errs[0])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
