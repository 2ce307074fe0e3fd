package app

import (
	"fmt"
	"runtime/debug"
)

// Version, Commit and BuildTime are set via ldflags:
//
//	go build -ldflags "-X github.com/heartmarshall/study-helper/internal/app.Version=1.0.0" ./cmd/server
//
// Commit and BuildTime fall back to the VCS stamp of `go build` when unset.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildVersion returns the version shown in startup logs, /health and
// `shctl --version`.
func BuildVersion() string {
	commit, built := Commit, BuildTime
	if info, ok := debug.ReadBuildInfo(); ok {
		commit, built = stampFromVCS(info.Settings, commit, built)
	}
	return formatVersion(Version, commit, built)
}

// stampFromVCS fills the values still "unknown" from vcs.* settings. A
// dirty tree marks the commit.
func stampFromVCS(settings []debug.BuildSetting, commit, built string) (string, string) {
	var revision, modified, vcsTime string
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		case "vcs.time":
			vcsTime = s.Value
		}
	}
	if commit == "unknown" && revision != "" {
		commit = revision
		if len(commit) > 12 {
			commit = commit[:12]
		}
		if modified == "true" {
			commit += "-dirty"
		}
	}
	if built == "unknown" && vcsTime != "" {
		built = vcsTime
	}
	return commit, built
}

func formatVersion(version, commit, built string) string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, built)
}
