// Package version reports the build information of the binaries.
// The values are set at build time, e.g.
//
//	go build -ldflags "-X github.com/information-sharing-networks/walletpass/internal/version.version=v1.2.0"
package version

import "runtime/debug"

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

type Info struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
}

// Get returns the build information. When the commit was not set with -ldflags it is taken from the
// VCS information embedded by the go toolchain.
func Get() Info {
	info := Info{Version: version, BuildDate: buildDate, GitCommit: gitCommit}

	if info.GitCommit == "unknown" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				switch s.Key {
				case "vcs.revision":
					info.GitCommit = s.Value
				case "vcs.time":
					if info.BuildDate == "unknown" {
						info.BuildDate = s.Value
					}
				}
			}
		}
	}
	return info
}
