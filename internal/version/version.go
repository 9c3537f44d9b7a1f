// Package version tracks build metadata for the application.
package version

import (
	"runtime"
	"sync"
)

// Info describes build metadata for the application.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

var (
	info      = Info{Version: "dev", GoVersion: runtime.Version()}
	infoMutex sync.RWMutex
)

// Set updates the version metadata exposed by the application. Empty Version
// and GoVersion fall back to "dev" and the running toolchain.
func Set(v Info) {
	infoMutex.Lock()
	defer infoMutex.Unlock()

	if v.Version == "" {
		v.Version = "dev"
	}
	if v.GoVersion == "" {
		v.GoVersion = runtime.Version()
	}
	info = v
}

// Current returns the currently configured build metadata.
func Current() Info {
	infoMutex.RLock()
	defer infoMutex.RUnlock()
	return info
}
