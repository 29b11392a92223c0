package config

import (
	"encoding/json"
	"fmt"
)

// Listener is a callback that receives progress events during a build. A
// nil Listener is valid and simply means no one is watching.
type Listener func(fmt.Stringer)

func jsonString(v interface{}) string {
	b, _ := json.Marshal(map[string]interface{}{
		fmt.Sprintf("%T", v): v,
	})
	return string(b)
}

// EventAssetsResolved is emitted once the asset resolver has expanded every
// declared source into concrete destinations.
type EventAssetsResolved struct {
	Count         int   `json:"count,omitempty"`
	InstalledSize int64 `json:"installed_size,omitempty"`
}

func (e EventAssetsResolved) String() string { return jsonString(e) }

// EventDependencyResolved is emitted once per binary scanned by the
// dependency analyzer that contributed at least one atom, reporting those
// atoms.
type EventDependencyResolved struct {
	Binary string   `json:"binary,omitempty"`
	Atoms  []string `json:"atoms,omitempty"`
}

func (e EventDependencyResolved) String() string { return jsonString(e) }

// EventSystemdUnit is emitted for each systemd unit file discovered and
// injected into the package.
type EventSystemdUnit struct {
	Unit        string `json:"unit,omitempty"`
	Destination string `json:"destination,omitempty"`
}

func (e EventSystemdUnit) String() string { return jsonString(e) }

// EventDebugSplit is emitted when a binary's debug symbols are extracted
// into a separate file.
type EventDebugSplit struct {
	Binary string `json:"binary,omitempty"`
	Debug  string `json:"debug,omitempty"`
}

func (e EventDebugSplit) String() string { return jsonString(e) }

// EventPackageWritten is emitted once the final .deb has been renamed into
// place.
type EventPackageWritten struct {
	Path string `json:"path,omitempty"`
	Size int64  `json:"size,omitempty"`
}

func (e EventPackageWritten) String() string { return jsonString(e) }
