// Package workspace turns paths given on the command line into the files to
// blame, with their declared line counts.
package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/thiagokokada/hgblame/internal/blame"
)

// skipDirs are never descended into.
var skipDirs = []string{blame.RepoMarker, ".git", ".svn"}

// ErrBinary is returned by File for content hg treats as binary and refuses
// to annotate.
var ErrBinary = errors.New("binary file")

type Options struct {
	// Exclude holds gitignore-style patterns matched against paths relative
	// to the base directory.
	Exclude []string
}

// Workspace is a directory tree files are collected from.
type Workspace struct {
	baseDir string
	fs      billy.Filesystem
	exclude gitignore.Matcher
}

// Open returns a Workspace rooted at baseDir.
func Open(baseDir string, opts Options) (*Workspace, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	return newWorkspace(abs, osfs.New(abs), opts), nil
}

func newWorkspace(baseDir string, bfs billy.Filesystem, opts Options) *Workspace {
	patterns := make([]gitignore.Pattern, 0, len(opts.Exclude))
	for _, p := range opts.Exclude {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}
	return &Workspace{
		baseDir: baseDir,
		fs:      bfs,
		exclude: gitignore.NewMatcher(patterns),
	}
}

func (w *Workspace) BaseDir() string {
	return w.baseDir
}

// Collect returns the files found under paths, which are relative to the
// base directory (absolute paths inside it are accepted too). Directories
// are walked recursively. No paths means the whole base directory.
func (w *Workspace) Collect(paths ...string) (blame.Input, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	seen := map[string]struct{}{}
	var files []blame.File
	for _, p := range paths {
		rel, err := w.Relative(p)
		if err != nil {
			return blame.Input{}, err
		}
		err = util.Walk(w.fs, rel, func(name string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			name = filepath.ToSlash(filepath.Clean(name))
			if info.IsDir() {
				if name != "." && (slices.Contains(skipDirs, info.Name()) || w.excluded(name, true)) {
					return filepath.SkipDir
				}
				return nil
			}
			if !info.Mode().IsRegular() || w.excluded(name, false) {
				return nil
			}
			if _, ok := seen[name]; ok {
				return nil
			}
			seen[name] = struct{}{}
			file, err := w.File(name)
			if errors.Is(err, ErrBinary) {
				slog.Debug("skipping binary file", slog.String("file", name))
				return nil
			}
			if err != nil {
				return err
			}
			files = append(files, file)
			return nil
		})
		if err != nil {
			return blame.Input{}, fmt.Errorf("collect %s: %w", p, err)
		}
	}
	slices.SortFunc(files, func(a, b blame.File) int {
		return strings.Compare(a.RelPath, b.RelPath)
	})
	slog.Debug("collected files", slog.String("base_dir", w.baseDir), slog.Int("files", len(files)))
	return blame.Input{BaseDir: w.baseDir, Files: files}, nil
}

// File describes a single file, rel being a slash separated path relative
// to the base directory. Binary files yield an error wrapping ErrBinary.
func (w *Workspace) File(rel string) (blame.File, error) {
	f, err := w.fs.Open(rel)
	if err != nil {
		return blame.File{}, err
	}
	defer f.Close()
	lines, binary, err := scan(f)
	if err != nil {
		return blame.File{}, fmt.Errorf("count lines of %s: %w", rel, err)
	}
	if binary {
		return blame.File{}, fmt.Errorf("%s: %w", rel, ErrBinary)
	}
	return blame.File{
		ID:      rel,
		AbsPath: filepath.Join(w.baseDir, filepath.FromSlash(rel)),
		RelPath: rel,
		Lines:   lines,
	}, nil
}

// Relative converts p to a slash separated path relative to the base
// directory.
func (w *Workspace) Relative(p string) (string, error) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(w.baseDir, p)
		if err != nil {
			return "", err
		}
		p = rel
	}
	p = path.Clean(filepath.ToSlash(p))
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%s is outside of %s", p, w.baseDir)
	}
	return p, nil
}

func (w *Workspace) excluded(rel string, isDir bool) bool {
	return w.exclude.Match(strings.Split(rel, "/"), isDir)
}

// CountLines returns the number of lines of r the way analyzers count them:
// every newline starts a new line, so content ending with a newline has a
// final empty line. Empty content has a single line.
func CountLines(r io.Reader) (int, error) {
	lines, _, err := scan(r)
	return lines, err
}

// scan counts lines and reports whether r holds a NUL byte, the test hg
// itself uses to tell binary content apart.
func scan(r io.Reader) (lines int, binary bool, err error) {
	buf := make([]byte, 32*1024)
	lines = 1
	for {
		n, err := r.Read(buf)
		lines += bytes.Count(buf[:n], []byte{'\n'})
		binary = binary || bytes.IndexByte(buf[:n], 0) >= 0
		if errors.Is(err, io.EOF) {
			return lines, binary, nil
		}
		if err != nil {
			return 0, false, err
		}
	}
}
