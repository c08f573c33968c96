// Package versions provides build information for the usb-ids binary.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const unknownStr = "unknown"

// Build information set with -ldflags
var (
	// Version is the released version of usb-ids
	Version = "dev"
	// Commit is the git commit hash of the build
	//nolint:goconst // placeholder until set by ldflags
	Commit = unknownStr
	// BuildDate is the date when the binary was built
	//nolint:goconst // placeholder until set by ldflags
	BuildDate = unknownStr
)

// VersionInfo is the build information reported by `usb-ids version` and GET /version
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// String formats the version info for terminal output
func (v VersionInfo) String() string {
	return fmt.Sprintf("Version: %s\nCommit: %s\nBuilt: %s\nGo version: %s\nPlatform: %s\n",
		v.Version, v.Commit, v.BuildDate, v.GoVersion, v.Platform)
}

// GetVersionInfo returns the build information of the running binary
func GetVersionInfo() VersionInfo {
	return getVersionInfoWithValues(Version, Commit, BuildDate)
}

// getVersionInfoWithValues fills in VCS details for development builds
func getVersionInfoWithValues(version, commit, buildDate string) VersionInfo {
	if strings.HasPrefix(version, "dev") {
		commit, buildDate = fromVCS(commit, buildDate)
	}
	if version == "dev" {
		version = "build-" + commit[:min(8, len(commit))]
	}

	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: formatBuildDate(buildDate),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// fromVCS replaces unknown values with the revision and time stamped by the Go toolchain
func fromVCS(commit, buildDate string) (string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, buildDate
	}
	for _, setting := range info.Settings {
		switch {
		case setting.Key == "vcs.revision" && commit == unknownStr:
			commit = setting.Value
		case setting.Key == "vcs.time" && buildDate == unknownStr:
			buildDate = setting.Value
		}
	}
	return commit, buildDate
}

// formatBuildDate renders RFC 3339 timestamps in UTC and leaves anything else as is
func formatBuildDate(buildDate string) string {
	t, err := time.Parse(time.RFC3339, buildDate)
	if err != nil {
		return buildDate
	}
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}
