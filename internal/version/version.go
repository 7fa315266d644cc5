package version

import (
	"runtime/debug"
	"strings"
	"time"
)

// override is set via -ldflags "-X pkt.systems/replx/internal/version.override=v1.2.3".
var override = ""

const fallback = "v0.0.0-unknown"

// Current resolves the version from the linker override, the module
// build info, or VCS stamps, in that order.
func Current() string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return fallback
	}
	if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
		return v
	}
	if v := vcsVersion(info.Settings); v != "" {
		return v
	}
	return fallback
}

// Module returns the main module path when build info is available.
func Module() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			return path
		}
	}
	return "pkt.systems/replx"
}

// vcsVersion derives a pseudo-version from the VCS build settings of an
// untagged build. Returns empty when the stamps are absent or unusable.
func vcsVersion(settings []debug.BuildSetting) string {
	var rev, stamp string
	var dirty bool
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.time":
			stamp = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" || stamp == "" {
		return ""
	}
	ts, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return ""
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	v := "v0.0.0-" + ts.UTC().Format("20060102150405") + "-" + rev
	if dirty {
		v += "+dirty"
	}
	return v
}
