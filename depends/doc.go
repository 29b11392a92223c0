// Package depends implements the "$auto" dependency analyzer: given a set
// of ELF binaries, it reads their dynamic section to find imported shared
// libraries, maps each library back to the Debian package that owns it,
// and produces a deduplicated, version-constrained dependency list.
package depends
