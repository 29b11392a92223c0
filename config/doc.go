// Package config holds the validated description of a single package build:
// identity, relations, content, legal metadata, and the systemd and
// debug-split toggles that drive the rest of the pipeline.
//
// Nothing in this package touches the filesystem. Callers build a
// PackageConfig from a manifest (see the manifest package) or by hand in
// tests, call Validate, and hand it to the builder package.
package config
