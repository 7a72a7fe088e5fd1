// Package misc keeps build time information about the program.
package misc

import (
	"runtime/debug"
)

const appName = "epubx"

// version and githash could be set with -ldflags "-X epubx/misc.version=..." at
// build time, otherwise they are taken from embedded build information.
var (
	version = ""
	githash = ""
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	if len(version) > 0 {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && len(bi.Main.Version) > 0 && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "dev"
}

func GetGitHash() string {
	if len(githash) > 0 {
		return githash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		var rev, modified string
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				rev = s.Value
			case "vcs.modified":
				if s.Value == "true" {
					modified = "-dirty"
				}
			}
		}
		if len(rev) > 0 {
			return rev + modified
		}
	}
	return "unknown"
}
