package assets

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mmstick/cargo-deb/config"
)

// SourceKind distinguishes how a ResolvedAsset's content should be read.
type SourceKind int

const (
	// SourceFile is read from SourcePath on disk.
	SourceFile SourceKind = iota
	// SourceSymlink is written as a symlink pointing at LinkTarget; its
	// content is never read.
	SourceSymlink
	// SourceGenerated is supplied inline via Inline, with no backing file
	// on disk (used for synthesized copyright/changelog-style content).
	SourceGenerated
)

// ResolvedAsset is one concrete file or symlink that will be written into
// the data archive. Directory sources are rejected during resolution.
type ResolvedAsset struct {
	SourcePath string
	Inline     []byte
	Dest       string
	Mode       int64
	Kind       SourceKind
	LinkTarget string
	Size       int64
}

const kib = 1024

// Resolver expands a PackageConfig's asset declarations against a project
// checkout.
type Resolver struct {
	ProjectRoot      string
	BuildOutputDir   string
	PreserveSymlinks bool
	Listener         config.Listener
}

// Resolve expands cfg.Assets into concrete ResolvedAssets. When cfg.Assets
// is empty, it synthesizes the default layout: each entry in binaries goes
// to usr/bin/<name> mode 0755, and readme (if non-empty) goes to
// usr/share/doc/<package>/README mode 0644. It returns the resolved assets
// sorted by destination and the Installed-Size in KiB.
func (r *Resolver) Resolve(cfg *config.PackageConfig, binaries []string, readme string) ([]ResolvedAsset, int64, error) {
	specs := cfg.Assets
	if len(specs) == 0 {
		specs = r.defaultAssets(cfg, binaries, readme)
	}

	var resolved []ResolvedAsset
	seen := make(map[string]string) // dest -> source, for collision detection

	for _, spec := range specs {
		rewritten := r.rewriteSource(spec.Source)
		expanded, err := r.expand(rewritten, spec)
		if err != nil {
			return nil, 0, err
		}
		for _, a := range expanded {
			if prior, ok := seen[a.Dest]; ok {
				return nil, 0, &config.AssetError{
					Source:      a.SourcePath,
					Destination: a.Dest,
					Reason:      fmt.Sprintf("destination already provided by %q", prior),
				}
			}
			seen[a.Dest] = a.SourcePath
			resolved = append(resolved, a)
		}
	}

	sort.Slice(resolved, func(i, j int) bool { return resolved[i].Dest < resolved[j].Dest })

	var installedSize int64
	for _, a := range resolved {
		installedSize += roundUpKiB(a.Size)
	}

	if r.Listener != nil {
		r.Listener(config.EventAssetsResolved{Count: len(resolved), InstalledSize: installedSize / kib})
	}

	return resolved, installedSize / kib, nil
}

// defaultAssets synthesizes the fallback layout used when a package
// declares no assets at all.
func (r *Resolver) defaultAssets(cfg *config.PackageConfig, binaries []string, readme string) []config.AssetSpec {
	var specs []config.AssetSpec
	for _, bin := range binaries {
		specs = append(specs, config.AssetSpec{
			Source:          bin,
			Destination:     "usr/bin/" + filepath.Base(bin),
			Mode:            0755,
			IsBuiltArtifact: true,
		})
	}
	if readme != "" {
		specs = append(specs, config.AssetSpec{
			Source:      readme,
			Destination: "usr/share/doc/" + cfg.Name + "/README",
			Mode:        0644,
		})
	}
	return specs
}

// rewriteSource substitutes a leading target/release or target/debug
// prefix with the configured build output directory, so manifests can be
// written portably against either profile.
func (r *Resolver) rewriteSource(source string) string {
	for _, prefix := range []string{"target/release/", "target/debug/"} {
		if strings.HasPrefix(source, prefix) && r.BuildOutputDir != "" {
			return filepath.Join(r.BuildOutputDir, strings.TrimPrefix(source, prefix))
		}
	}
	if filepath.IsAbs(source) {
		return source
	}
	return filepath.Join(r.ProjectRoot, source)
}

func isGlobPattern(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

func isDirDest(dest string) bool {
	return strings.HasSuffix(dest, "/")
}

// expand turns one rewritten source (literal path or glob) plus its
// destination spec into zero or more ResolvedAssets.
func (r *Resolver) expand(source string, spec config.AssetSpec) ([]ResolvedAsset, error) {
	if !isGlobPattern(source) {
		if isDirDest(spec.Destination) {
			spec.Destination = spec.Destination + filepath.Base(source)
		}
		return r.resolveOne(source, spec)
	}

	matches, err := filepath.Glob(source)
	if err != nil {
		return nil, &config.AssetError{Source: spec.Source, Reason: "invalid glob: " + err.Error(), Err: err}
	}
	sort.Strings(matches)

	if len(matches) == 0 {
		if isDirDest(spec.Destination) {
			// An empty glob into a directory destination is not fatal: the
			// asset is dropped without an error, and no warning or event
			// is emitted for it.
			return nil, nil
		}
		return nil, &config.AssetError{Source: spec.Source, Reason: "glob matched no files"}
	}

	if !isDirDest(spec.Destination) && len(matches) > 1 {
		return nil, &config.AssetError{
			Source:      spec.Source,
			Destination: spec.Destination,
			Reason:      "glob matched multiple files but destination is not a directory (missing trailing slash)",
		}
	}

	var out []ResolvedAsset
	for _, m := range matches {
		destSpec := spec
		if isDirDest(spec.Destination) {
			destSpec.Destination = spec.Destination + filepath.Base(m)
		}
		resolved, err := r.resolveOne(m, destSpec)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved...)
	}
	return out, nil
}

// resolveOne resolves a single, already-glob-free source path.
func (r *Resolver) resolveOne(source string, spec config.AssetSpec) ([]ResolvedAsset, error) {
	dest := normalizeDestination(spec.Destination)
	if dest == "" {
		dest = normalizeDestination(filepath.Base(source))
	}

	info, err := os.Lstat(source)
	if err != nil {
		return nil, &config.AssetError{Source: source, Destination: dest, Reason: "cannot stat source", Err: err}
	}

	mode := spec.Mode
	if mode == 0 {
		mode = int64(info.Mode().Perm())
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(source)
		if err != nil {
			return nil, &config.AssetError{Source: source, Destination: dest, Reason: "cannot read symlink", Err: err}
		}
		if r.PreserveSymlinks {
			return []ResolvedAsset{{
				SourcePath: source,
				Dest:       dest,
				Mode:       mode,
				Kind:       SourceSymlink,
				LinkTarget: target,
			}}, nil
		}
		// Resolve-and-copy policy: follow the link and embed the real
		// file's content instead of a symlink entry, with the declared
		// mode (or the real file's mode when none is declared).
		resolvedTarget := target
		if !filepath.IsAbs(resolvedTarget) {
			resolvedTarget = filepath.Join(filepath.Dir(source), resolvedTarget)
		}
		return r.resolveOne(resolvedTarget, config.AssetSpec{Destination: dest, Mode: spec.Mode})
	}

	if info.IsDir() {
		return nil, &config.AssetError{Source: source, Destination: dest, Reason: "source is a directory, not a file"}
	}

	return []ResolvedAsset{{
		SourcePath: source,
		Dest:       dest,
		Mode:       mode,
		Kind:       SourceFile,
		Size:       info.Size(),
	}}, nil
}

// normalizeDestination strips any leading "/" (data archive destinations
// are always relative) and cleans the path, which also drops any trailing
// slash (callers resolve trailing-slash directory destinations before
// reaching here).
func normalizeDestination(dest string) string {
	dest = strings.TrimPrefix(dest, "/")
	return path.Clean(dest)
}

func roundUpKiB(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return ((n + kib - 1) / kib) * kib
}
