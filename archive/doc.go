// Package archive writes the byte-exact tar and ar streams that make up a
// .deb file, and wraps them with the two compression codecs Debian expects:
// gzip for the control archive, xz for the data archive.
//
// Every entry written here is deterministic: timestamps are zeroed, owner
// and group are root/root, and directories are synthesized in lexicographic
// order. Re-running a build against identical inputs must produce a
// byte-identical archive.
package archive
