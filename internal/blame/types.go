package blame

import (
	"fmt"
	"strings"
	"time"
)

// Line is the attribution of a single source line.
type Line struct {
	Date     time.Time
	Revision string
	Author   string
}

// File is a single file to blame.
type File struct {
	ID      string
	AbsPath string
	RelPath string // relative to Input.BaseDir
	Lines   int    // declared line count, including a trailing empty line
}

// Input is the set of files to blame and the directory they were collected from.
type Input struct {
	BaseDir string
	Files   []File
}

// Location is the repository a file belongs to.
type Location struct {
	Root string
	Path string // relative to Root
}

// Command is an invocation of the hg executable.
type Command struct {
	Dir  string
	Args []string
}

func (c Command) String() string {
	return "hg " + strings.Join(c.Args, " ")
}

// SettingConsiderWhitespaces is the settings key backing Config.ConsiderWhitespaces.
const SettingConsiderWhitespaces = "sonar.mercurial.considerWhitespaces"

type Config struct {
	// ConsiderWhitespaces disables "hg blame -w". The zero value ignores
	// whitespace-only changes.
	ConsiderWhitespaces bool
}

func (c Config) String() string {
	return fmt.Sprintf("%s=%t", SettingConsiderWhitespaces, c.ConsiderWhitespaces)
}
