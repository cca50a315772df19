package api

import (
	"runtime/debug"
	"strings"

	"github.com/samber/lo"
)

// Version is overridden by the module version when installed with go install.
var (
	Version       = "0.1.0"
	VersionCommit = ""
)

func init() {
	if i, ok := debug.ReadBuildInfo(); ok {
		applyBuildInfo(i)
	}
}

func applyBuildInfo(i *debug.BuildInfo) {
	if v := strings.TrimPrefix(i.Main.Version, "v"); v != "" && v != "(devel)" {
		Version = v
	}
	if rev, ok := lo.Find(i.Settings, func(s debug.BuildSetting) bool {
		return s.Key == "vcs.revision"
	}); ok {
		VersionCommit = rev.Value
	}
}

// UserAgent is sent with every request unless configured otherwise. It
// carries the first 7 characters of the commit when known.
func UserAgent() string {
	if VersionCommit == "" {
		return "csswrap/" + Version
	}
	return "csswrap/" + Version + " (" + lo.Substring(VersionCommit, 0, 7) + ")"
}
