// SPDX-License-Identifier: MIT
//
// Package build exposes build information embedded at link time:
//
//	go build -ldflags "-X playbacque/pkg/build.buildVersion=0.3.0 -X playbacque/pkg/build.buildCommit=$(git rev-parse --short HEAD)"
//
// Development builds run with "unknown" in place of missing values.
package build

import "fmt"

// DefaultName is used when the name is not injected.
const DefaultName = "playbacque"

const unknown = "unknown"

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables for build information. These are populated by -ldflags
// during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        DefaultName,
		Description: "Play an audio file on a seamless loop",
		Time:        unknown,
		Commit:      unknown,
		Version:     unknown,
	}
)

// Initialize copies build information from the ldflags variables into the
// build flags, keeping the defaults for any that were not set. It returns an
// error listing the missing values so callers can log it; the flags are
// usable either way.
func Initialize() error {
	var missing []string
	set := func(dst *string, val, name string) {
		if val == "" {
			missing = append(missing, name)
			return
		}
		*dst = val
	}

	set(&buildFlags.Name, buildName, "name")
	set(&buildFlags.Time, buildTime, "time")
	set(&buildFlags.Commit, buildCommit, "commit")
	set(&buildFlags.Version, buildVersion, "version")

	if len(missing) > 0 {
		return fmt.Errorf("development build, missing build %v", missing)
	}
	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// VersionString returns "<name> <version>" as printed by --version.
func VersionString() string {
	return buildFlags.Name + " " + buildFlags.Version
}
