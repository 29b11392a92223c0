// Package assets expands a PackageConfig's declared content into the
// concrete set of files, symlinks, and modes that will be written into the
// data archive: globs are matched and sorted, source paths under
// target/release or target/debug are rewritten against the build output
// directory, and a default layout is synthesized when no assets are
// declared at all.
package assets
