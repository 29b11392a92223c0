// Package builder sequences the core pipeline: asset resolution, debug
// split, dependency resolution, systemd unit integration, control-file
// synthesis, and final archive assembly. It is the only package that wires
// the pipeline stages together; apart from the shared config types and the
// deb package's use of archive, the stages do not import each other.
package builder
