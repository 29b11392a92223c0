// Command cargo-deb builds a binary .deb package from a package manifest
// plus a list of already-compiled binaries, following a cargo-deb style
// workflow without invoking the Rust toolchain itself.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mmstick/cargo-deb/builder"
	"github.com/mmstick/cargo-deb/config"
	"github.com/mmstick/cargo-deb/deb"
	"github.com/mmstick/cargo-deb/manifest"
)

func main() {
	var (
		manifestPath     string
		outputDir        string
		targetDir        string
		projectRoot      string
		fast             bool
		separateDebug    bool
		preserveSymlinks bool
		variant          string
		bumpRevision     string
		verbose          bool
	)

	flag.StringVar(&manifestPath, "manifest", "cargo-deb.yaml", "path to the package manifest (YAML or JSON)")
	flag.StringVar(&outputDir, "output", "", "override the manifest's output directory")
	flag.StringVar(&targetDir, "target-dir", "", "override the manifest's build output directory")
	flag.StringVar(&projectRoot, "project", "", "override the manifest's project root")
	flag.BoolVar(&fast, "fast", false, "trade compression ratio for build speed")
	flag.BoolVar(&separateDebug, "separate-debug-symbols", false, "split debug symbols into a sibling file")
	flag.BoolVar(&preserveSymlinks, "preserve-symlinks", false, "preserve symlinks instead of resolving them")
	flag.StringVar(&variant, "variant", "", "package variant name")
	flag.StringVar(&bumpRevision, "bump-revision", "", "print the next Debian revision after the given version and exit")
	flag.BoolVar(&verbose, "verbose", false, "print progress events to stderr as they occur")
	flag.Parse()

	if bumpRevision != "" {
		fmt.Println(deb.BumpVersion(bumpRevision))
		return
	}

	spec, err := manifest.Load(manifestPath)
	if err != nil {
		log.Fatalf("loading manifest: %v", err)
	}
	cfg, err := spec.Resolve()
	if err != nil {
		log.Fatalf("resolving manifest: %v", err)
	}

	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if targetDir != "" {
		cfg.BuildOutputDir = targetDir
	}
	if projectRoot != "" {
		cfg.ProjectRoot = projectRoot
	}
	if fast {
		cfg.Fast = true
	}
	if separateDebug {
		cfg.SeparateDebugSymbols = true
	}
	if preserveSymlinks {
		cfg.PreserveSymlinks = true
	}
	if variant != "" {
		cfg.Variant = variant
	}

	var listener config.Listener = func(fmt.Stringer) {}
	if verbose {
		listener = func(e fmt.Stringer) { fmt.Fprintln(os.Stderr, e.String()) }
	}

	path, err := builder.Build(builder.Options{
		Config:   cfg,
		Binaries: flag.Args(),
		Listener: listener,
	})
	if err != nil {
		log.Fatalf("building package: %v", err)
	}
	fmt.Println(path)
}
