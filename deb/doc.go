// Package deb builds a single binary .deb package in memory: it assembles
// the control archive from a resolved package description and the already
// built data archive, wraps both in the outer ar container via the
// archive package, and writes the result deterministically to an
// io.Writer.
//
// It also parses a .deb back into a Package, used by the test suite to
// assert round-trip properties.
package deb
