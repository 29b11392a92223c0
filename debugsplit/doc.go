// Package debugsplit extracts debug symbols from ELF binaries into
// separate ".debug" files under usr/lib/debug, and strips the in-archive
// copy, by shelling out to objcopy and strip.
package debugsplit
