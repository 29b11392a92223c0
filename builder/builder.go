package builder

import (
	"archive/tar"
	"debug/elf"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mmstick/cargo-deb/assets"
	"github.com/mmstick/cargo-deb/config"
	"github.com/mmstick/cargo-deb/control"
	"github.com/mmstick/cargo-deb/deb"
	"github.com/mmstick/cargo-deb/debugsplit"
	"github.com/mmstick/cargo-deb/depends"
	"github.com/mmstick/cargo-deb/systemdunit"
)

// Options is everything the builder needs beyond the frozen PackageConfig:
// the things a manifest loader or compiler invocation would have already
// produced, and which are deliberately out of the core's scope.
type Options struct {
	Config *config.PackageConfig

	// Binaries are the already-compiled ELF artifacts that feed default
	// asset synthesis, dependency analysis, and debug-split.
	Binaries []string
	// Readme is the project readme path used for default asset synthesis.
	Readme string

	// Tools overrides the external objcopy/strip binaries. The zero value
	// resolves to debugsplit.DefaultTools().
	Tools debugsplit.Tools

	Listener config.Listener
}

// Build runs the full assembly pipeline and writes the resulting .deb to
// cfg.OutputDir, returning its final path. The output is written under a
// temporary name first and renamed into place, so a failure never leaves a
// partial file at the final path.
func Build(opts Options) (string, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	listener := opts.Listener
	if listener == nil {
		listener = func(fmt.Stringer) {}
	}
	tools := opts.Tools
	if tools.Objcopy == "" && tools.Strip == "" {
		tools = debugsplit.DefaultTools()
	}

	workDir, err := os.MkdirTemp("", "cargo-deb-build-*")
	if err != nil {
		return "", &config.IoError{Path: workDir, Err: err}
	}
	defer os.RemoveAll(workDir)

	resolver := &assets.Resolver{
		ProjectRoot:      cfg.ProjectRoot,
		BuildOutputDir:   cfg.BuildOutputDir,
		PreserveSymlinks: cfg.PreserveSymlinks,
		Listener:         listener,
	}
	resolved, _, err := resolver.Resolve(cfg, opts.Binaries, opts.Readme)
	if err != nil {
		return "", err
	}

	debugFiles, err := stripBinaries(cfg, resolved, opts.Binaries, tools, workDir, listener)
	if err != nil {
		return "", err
	}

	if err := depends.Resolve(cfg, opts.Binaries, listener); err != nil {
		return "", err
	}

	unitFiles, snippets, err := integrateSystemd(cfg, listener)
	if err != nil {
		return "", err
	}

	confSet := make(map[string]bool, len(cfg.ConfFiles))
	for _, c := range cfg.ConfFiles {
		confSet["/"+strings.TrimPrefix(c, "/")] = true
	}

	files, err := assetsToFiles(resolved, confSet)
	if err != nil {
		return "", err
	}
	files = append(files, debugFiles...)
	files = append(files, unitFiles...)

	docFiles, err := synthesizeDocs(cfg)
	if err != nil {
		return "", err
	}
	files = append(files, docFiles...)

	scripts, err := loadScripts(cfg, snippets)
	if err != nil {
		return "", err
	}

	pkg := &deb.Package{
		Metadata: buildMetadata(cfg),
		Scripts:  scripts,
		Files:    files,
		Fast:     cfg.Fast,
	}

	if cfg.TriggersFile != "" {
		content, err := os.ReadFile(cfg.TriggersFile)
		if err != nil {
			return "", &config.IoError{Path: cfg.TriggersFile, Err: err}
		}
		pkg.ExtraControlFiles = map[string]string{"triggers": string(content)}
	}

	return writePackage(cfg, pkg, listener)
}

func buildMetadata(cfg *config.PackageConfig) deb.Metadata {
	description := cfg.Synopsis
	if cfg.Extended != "" {
		description += "\n" + cfg.Extended
	}
	return deb.Metadata{
		Package:      cfg.Name,
		Version:      cfg.FullVersion(),
		Architecture: cfg.Architecture,
		Maintainer:   cfg.Maintainer,
		Description:  description,
		Section:      cfg.Section,
		Priority:     string(cfg.Priority),
		Homepage:     cfg.Homepage,
		Depends:      cfg.Depends,
		PreDepends:   cfg.PreDepends,
		Recommends:   cfg.Recommends,
		Suggests:     cfg.Suggests,
		Enhances:     cfg.Enhances,
		Conflicts:    cfg.Conflicts,
		Breaks:       cfg.Breaks,
		Replaces:     cfg.Replaces,
		Provides:     cfg.Provides,
	}
}

// stripBinaries runs debug-split or plain strip against every resolved
// asset that originated from opts.Binaries, rewriting its on-disk source to
// the processed copy and returning any sibling debug files to add to the
// archive.
func stripBinaries(cfg *config.PackageConfig, resolved []assets.ResolvedAsset, binaries []string, tools debugsplit.Tools, workDir string, listener config.Listener) ([]deb.File, error) {
	if !cfg.SeparateDebugSymbols && !cfg.Strip {
		return nil, nil
	}

	binSet := make(map[string]bool, len(binaries))
	for _, b := range binaries {
		binSet[b] = true
	}

	var debugFiles []deb.File
	for i := range resolved {
		a := &resolved[i]
		if a.Kind != assets.SourceFile || !binSet[a.SourcePath] {
			continue
		}
		if !isELF(a.SourcePath) {
			continue
		}

		if cfg.SeparateDebugSymbols {
			result, err := debugsplit.Split(tools, a.SourcePath, workDir)
			if err != nil {
				return nil, err
			}
			debugBody, err := os.ReadFile(result.DebugPath)
			if err != nil {
				return nil, &config.IoError{Path: result.DebugPath, Err: err}
			}
			debugFiles = append(debugFiles, deb.File{
				DestPath: "/usr/lib/debug/" + a.Dest + ".debug",
				Mode:     0644,
				Body:     debugBody,
			})
			listener(config.EventDebugSplit{Binary: a.SourcePath, Debug: result.DebugPath})
			a.SourcePath = result.StrippedPath
		} else {
			strippedPath, err := debugsplit.StripOnly(tools, a.SourcePath, workDir)
			if err != nil {
				return nil, err
			}
			a.SourcePath = strippedPath
		}
	}

	sort.Slice(debugFiles, func(i, j int) bool { return debugFiles[i].DestPath < debugFiles[j].DestPath })
	return debugFiles, nil
}

func isELF(path string) bool {
	f, err := elf.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// integrateSystemd discovers unit files and builds the maintainer-script
// snippets they require, returning the units as data-archive files ready to
// append to the package's Files list.
func integrateSystemd(cfg *config.PackageConfig, listener config.Listener) ([]deb.File, systemdunit.Snippets, error) {
	if cfg.Systemd == nil {
		return nil, systemdunit.Snippets{}, nil
	}

	dir := cfg.Systemd.UnitScriptsDir
	if dir == "" {
		dir = cfg.MaintainerScriptsDir
	}

	units, err := systemdunit.Discover(dir, cfg.SystemdUnitName())
	if err != nil {
		return nil, systemdunit.Snippets{}, &config.IoError{Path: dir, Err: err}
	}

	var files []deb.File
	for _, u := range units {
		body, err := os.ReadFile(u.Path)
		if err != nil {
			return nil, systemdunit.Snippets{}, &config.IoError{Path: u.Path, Err: err}
		}
		files = append(files, deb.File{DestPath: "/" + u.InstallPath(), Mode: 0644, Body: body})
		listener(config.EventSystemdUnit{Unit: u.Name, Destination: u.InstallPath()})
	}

	snippets, err := systemdunit.Generate(units, systemdunit.Options{
		Enable:              cfg.Systemd.Enable,
		Start:               cfg.Systemd.Start,
		RestartAfterUpgrade: cfg.Systemd.RestartAfterUpgrade,
		StopOnUpgrade:       cfg.Systemd.StopOnUpgrade,
	})
	if err != nil {
		return nil, systemdunit.Snippets{}, err
	}
	return files, snippets, nil
}

// synthesizeDocs builds the copyright and changelog documentation files
// that accompany every package, independent of the declared asset list.
func synthesizeDocs(cfg *config.PackageConfig) ([]deb.File, error) {
	var files []deb.File

	if cfg.LicenseFile != nil {
		text, err := control.GenerateCopyright(cfg)
		if err != nil {
			return nil, err
		}
		files = append(files, deb.File{
			DestPath: "/usr/share/doc/" + cfg.Name + "/copyright",
			Mode:     0644,
			Body:     []byte(text),
		})
	}

	if cfg.ChangelogPath != "" {
		gz, err := control.GenerateChangelogGz(cfg.ChangelogPath)
		if err != nil {
			return nil, err
		}
		files = append(files, deb.File{
			DestPath: "/usr/share/doc/" + cfg.Name + "/changelog.Debian.gz",
			Mode:     0644,
			Body:     gz,
		})
	}

	return files, nil
}

// scriptNames enumerates the maintainer-script phases in the specificity
// order the control generator merges systemd snippets into.
var scriptNames = []string{"preinst", "postinst", "prerm", "postrm", "config"}

// loadScripts reads any user-supplied maintainer scripts from
// cfg.MaintainerScriptsDir, replacing a "#DEBHELPER#" token with the
// systemd snippet for that phase. A script with no file on disk but a
// non-empty snippet is synthesized with a standard shebang header.
func loadScripts(cfg *config.PackageConfig, snippets systemdunit.Snippets) (deb.Scripts, error) {
	var scripts deb.Scripts
	snippetFor := map[string]string{
		"postinst": snippets.Postinst,
		"prerm":    snippets.Prerm,
		"postrm":   snippets.Postrm,
	}

	for _, name := range scriptNames {
		snippet := snippetFor[name]
		var body string
		if cfg.MaintainerScriptsDir != "" {
			path := filepath.Join(cfg.MaintainerScriptsDir, name)
			content, err := os.ReadFile(path)
			switch {
			case err == nil:
				body = string(content)
			case os.IsNotExist(err):
				body = ""
			default:
				return deb.Scripts{}, &config.IoError{Path: path, Err: err}
			}
		}

		switch {
		case body != "" && strings.Contains(body, "#DEBHELPER#"):
			body = strings.Replace(body, "#DEBHELPER#", snippet, 1)
		case body != "" && snippet != "":
			body += "\n" + snippet
		case body == "" && snippet != "":
			body = "#!/bin/sh\nset -e\n\n" + snippet + "\nexit 0\n"
		}

		switch name {
		case "preinst":
			scripts.PreInst = body
		case "postinst":
			scripts.PostInst = body
		case "prerm":
			scripts.PreRm = body
		case "postrm":
			scripts.PostRm = body
		case "config":
			scripts.Config = body
		}
	}
	return scripts, nil
}

// assetsToFiles reads each resolved asset's content (or symlink target)
// into a deb.File, marking conffiles by their absolute destination.
func assetsToFiles(resolved []assets.ResolvedAsset, confSet map[string]bool) ([]deb.File, error) {
	files := make([]deb.File, 0, len(resolved))
	for _, a := range resolved {
		dest := "/" + a.Dest
		switch a.Kind {
		case assets.SourceSymlink:
			files = append(files, deb.File{
				DestPath: dest,
				Mode:     a.Mode,
				Typeflag: tar.TypeSymlink,
				Linkname: a.LinkTarget,
			})
		case assets.SourceGenerated:
			files = append(files, deb.File{
				DestPath: dest,
				Mode:     a.Mode,
				Body:     a.Inline,
				IsConf:   confSet[dest],
			})
		default:
			body, err := os.ReadFile(a.SourcePath)
			if err != nil {
				return nil, &config.AssetError{Source: a.SourcePath, Destination: a.Dest, Reason: "cannot read resolved asset", Err: err}
			}
			files = append(files, deb.File{
				DestPath: dest,
				Mode:     a.Mode,
				Body:     body,
				IsConf:   confSet[dest],
			})
		}
	}
	return files, nil
}

// writePackage assembles pkg and writes it under a temporary name in
// cfg.OutputDir, renaming it to the final filename only once writing
// succeeds in full.
func writePackage(cfg *config.PackageConfig, pkg *deb.Package, listener config.Listener) (string, error) {
	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", &config.IoError{Path: outputDir, Err: err}
	}

	final := filepath.Join(outputDir, cfg.OutputFilename())
	tmp, err := os.CreateTemp(outputDir, ".cargo-deb-*.tmp")
	if err != nil {
		return "", &config.IoError{Path: outputDir, Err: err}
	}
	tmpPath := tmp.Name()

	size, err := pkg.WriteTo(tmp)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing package: %w", err)
	}

	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return "", &config.IoError{Path: final, Err: err}
	}

	listener(config.EventPackageWritten{Path: final, Size: size})
	return final, nil
}
