// Package version reports the dvrwatch build version.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via ldflags during build
//
//nolint:gochecknoglobals // These are intentionally global for ldflags injection
var (
	version = "dev"
	buildID = "dev"
)

// GetVersion returns the current version. Builds without ldflags report the
// module version recorded by the Go toolchain when there is one.
func GetVersion() string {
	if version != "dev" {
		return version
	}

	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return version
}

// GetBuildID returns the current build ID
func GetBuildID() string {
	return buildID
}

// GetFullVersion returns version, build ID and Go runtime, as printed by
// "dvrwatch version".
func GetFullVersion() string {
	return fmt.Sprintf("dvrwatch %s (build: %s, %s)", GetVersion(), buildID, runtime.Version())
}
