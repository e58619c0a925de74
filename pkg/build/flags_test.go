// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"strings"
	"testing"
)

var (
	origName    string
	origTime    string
	origCommit  string
	origVersion string
	origFlags   ldFlags
)

func TestMain(m *testing.M) {
	origName = buildName
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	origFlags = *buildFlags

	exitCode := m.Run()

	buildName = origName
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	*buildFlags = origFlags

	os.Exit(exitCode)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantName    string
		wantVersion string
		wantErrMsg  string
	}{
		{
			"Development Build",
			"", "", "", "",
			DefaultName, "unknown",
			"missing build [name time commit version]",
		},
		{
			"Missing BuildCommit",
			"testapp", "2025-04-13", "", "v1.0.0",
			"testapp", "v1.0.0",
			"missing build [commit]",
		},
		{
			"Success Case",
			"testapp", "2025-04-13", "abcdef123", "v1.0.0",
			"testapp", "v1.0.0",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			*buildFlags = origFlags

			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			err := Initialize()

			if tt.wantErrMsg == "" && err != nil {
				t.Errorf("Initialize() unexpected error: %v", err)
			}
			if tt.wantErrMsg != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErrMsg)) {
				t.Errorf("Initialize() error = %v, want %q", err, tt.wantErrMsg)
			}

			if buildFlags.Name != tt.wantName {
				t.Errorf("buildFlags.Name = %v, want %v", buildFlags.Name, tt.wantName)
			}
			if buildFlags.Version != tt.wantVersion {
				t.Errorf("buildFlags.Version = %v, want %v", buildFlags.Version, tt.wantVersion)
			}
			if want := tt.wantName + " " + tt.wantVersion; VersionString() != want {
				t.Errorf("VersionString() = %q, want %q", VersionString(), want)
			}
		})
	}
}

func TestGetBuildFlags(t *testing.T) {
	expected := ldFlags{
		Name:    "testapp",
		Time:    "2025-04-13",
		Commit:  "abcdef123",
		Version: "v1.0.0",
	}
	*buildFlags = expected

	flags := GetBuildFlags()

	if *flags != expected {
		t.Errorf("GetBuildFlags() = %+v, want %+v", flags, expected)
	}
}
