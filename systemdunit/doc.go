// Package systemdunit discovers systemd unit files belonging to a package
// and generates the maintainer-script snippets (dh_installsystemd style)
// that enable, start, and clean up those units across install, upgrade,
// and removal.
package systemdunit
