package hg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// parseVersionOutput extracts the version from "hg --version" output.
//
// Common formats:
//   - "Mercurial Distributed SCM (version 6.5.2)"
//   - "Mercurial Distributed SCM (version 5.2.1+hg205.a1b2c3d4)"
//   - "Mercurial Distributed SCM (version 4.8)"
func parseVersionOutput(out string) (Version, bool) {
	s := strings.TrimSpace(out)
	if s == "" {
		return Version{}, false
	}
	if idx := strings.Index(s, "version"); idx >= 0 {
		s = strings.TrimSpace(s[idx+len("version"):])
	}
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return Version{}, false
	}
	s = s[start:]
	// Keep only the leading numeric/dot portion (e.g. "5.2.1" from "5.2.1+hg205").
	end := strings.IndexFunc(s, func(r rune) bool { return !isDigit(r) && r != '.' })
	if end >= 0 {
		s = s[:end]
	}
	s = strings.Trim(s, ".")

	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return Version{}, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return Version{}, false
	}
	patch := 0
	if len(parts) >= 3 {
		if p, err := strconv.Atoi(parts[2]); err == nil {
			patch = p
		}
	}
	return Version{Major: major, Minor: minor, Patch: patch}, true
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Version reports the version of the hg executable. It is informational
// only; nothing in hgblame depends on a minimum version.
func (c *CLI) Version(ctx context.Context) (Version, error) {
	outBytes, err := exec.CommandContext(ctx, c.program(), "--version", "--quiet").CombinedOutput()
	out := strings.TrimSpace(string(outBytes))
	if err != nil {
		if out != "" {
			return Version{}, fmt.Errorf("%s --version: %v: %s", c.program(), err, out)
		}
		return Version{}, fmt.Errorf("%s --version: %w", c.program(), err)
	}
	v, ok := parseVersionOutput(out)
	if !ok {
		return Version{}, fmt.Errorf("unable to parse hg version output: %q", out)
	}
	return v, nil
}
