// Package control synthesizes the data-archive documentation files that
// accompany every package: the Debian copyright file (format 1.0) folded
// from a project's license text, and the gzip-compressed Debian changelog.
package control
