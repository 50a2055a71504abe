package buildinfo

import (
	"fmt"
	"runtime/debug"
	"strings"
)

var readBuildInfo = debug.ReadBuildInfo

// Version returns the module version or "dev" when unset.
func Version() string {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return "dev"
	}
	version := info.Main.Version
	if version == "" || version == "(devel)" {
		return "dev"
	}
	return version
}

// Revision returns the VCS revision recorded at build time, shortened to 12
// characters, or "" when unknown.
func Revision() string {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return shorten(setting.Value)
		}
	}
	return ""
}

func shorten(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// Describe returns a one line description of the binary, including the
// version of the hg executable when known.
func Describe(hgVersion string) string {
	parts := []string{"hgblame " + Version()}
	if rev := Revision(); rev != "" {
		parts = append(parts, fmt.Sprintf("(rev %s)", rev))
	}
	if hgVersion != "" {
		parts = append(parts, "mercurial "+hgVersion)
	}
	return strings.Join(parts, " ")
}
