// Package watch re-blames files when they or their repository change and
// prints how the attribution moved.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/thiagokokada/hgblame/internal/blame"
	"github.com/thiagokokada/hgblame/internal/debounce"
	"github.com/thiagokokada/hgblame/internal/workspace"
)

const DefaultDelay = 350 * time.Millisecond

// FileBlamer blames a single file.
type FileBlamer interface {
	BlameFile(ctx context.Context, workingDir string, file blame.File) ([]blame.Line, error)
}

// Files resolves a path relative to the base directory into a blame.File
// with an up-to-date line count.
type Files interface {
	BaseDir() string
	File(rel string) (blame.File, error)
	Relative(p string) (string, error)
}

// RenderFunc renders the blame of one file, one string per line.
type RenderFunc func(blame.Result) ([]string, error)

type Watcher struct {
	files  Files
	blamer FileBlamer
	render RenderFunc
	out    io.Writer
	delay  time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
	all     bool
	last    map[string][]string

	// flushMu serializes re-blames triggered by the debouncer.
	flushMu  sync.Mutex
	debounce *debounce.Debouncer
}

func New(files Files, blamer FileBlamer, render RenderFunc, out io.Writer) *Watcher {
	return &Watcher{
		files:   files,
		blamer:  blamer,
		render:  render,
		out:     out,
		delay:   DefaultDelay,
		pending: map[string]struct{}{},
		last:    map[string][]string{},
	}
}

// Track records the current blame of a file as the baseline later changes
// are diffed against.
func (w *Watcher) Track(res blame.Result) error {
	lines, err := w.render(res)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last[res.File.RelPath] = lines
	return nil
}

// Run watches tracked files until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() {
		if err := fsw.Close(); err != nil {
			slog.Error("watcher close", slog.Any("error", err))
		}
	}()
	for _, path := range w.watchPaths() {
		slog.Debug("adding path to FS watcher", slog.String("path", path))
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
	d := debounce.Ensure(&w.debounce, w.delay, func() { w.flush(ctx) })
	defer func() {
		d.Stop()
		// Wait for a re-blame already running so nothing is written to out
		// after Run returns.
		w.flushMu.Lock()
		w.flushMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.handle(ev.Name) {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			d.Trigger()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

// watchPaths returns the directories holding tracked files and the
// repository marker directories of their repositories.
func (w *Watcher) watchPaths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	base := w.files.BaseDir()
	uniquePaths := map[string]struct{}{}
	for rel := range w.last {
		abs := filepath.Join(base, filepath.FromSlash(rel))
		uniquePaths[filepath.Dir(abs)] = struct{}{}
		marker := filepath.Join(blame.Resolve(base, abs).Root, blame.RepoMarker)
		if info, err := os.Stat(marker); err == nil && info.IsDir() {
			uniquePaths[marker] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(uniquePaths))
}

// handle records the change of name and reports whether it matters.
func (w *Watcher) handle(name string) bool {
	if shouldIgnoreWatchPath(name) {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if inRepoMarker(name) {
		// A commit, update or rollback can change the blame of every file.
		w.all = true
		return true
	}
	rel, err := w.files.Relative(name)
	if err != nil {
		return false
	}
	if _, ok := w.last[rel]; !ok {
		return false
	}
	w.pending[rel] = struct{}{}
	return true
}

func (w *Watcher) takePending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	if w.all {
		out = slices.Collect(maps.Keys(w.last))
	} else {
		out = slices.Collect(maps.Keys(w.pending))
	}
	w.all = false
	clear(w.pending)
	slices.Sort(out)
	return out
}

func (w *Watcher) flush(ctx context.Context) {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()
	for _, rel := range w.takePending() {
		if ctx.Err() != nil {
			return
		}
		err := w.reblame(ctx, rel)
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return
		}
		if err != nil {
			slog.Error("re-blame failed", slog.String("file", rel), slog.Any("error", err))
		}
	}
}

func (w *Watcher) reblame(ctx context.Context, rel string) error {
	var cur []string
	file, err := w.files.File(rel)
	switch {
	case errors.Is(err, os.ErrNotExist), errors.Is(err, workspace.ErrBinary):
		// Removed or no longer text; diff against nothing.
	case err != nil:
		return err
	default:
		lines, err := w.blamer.BlameFile(ctx, w.files.BaseDir(), file)
		if err != nil {
			return err
		}
		cur, err = w.render(blame.Result{File: file, Lines: lines})
		if err != nil {
			return err
		}
	}

	w.mu.Lock()
	prev := w.last[rel]
	w.last[rel] = cur
	w.mu.Unlock()

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        withNewlines(prev),
		B:        withNewlines(cur),
		FromFile: "a/" + rel,
		ToFile:   "b/" + rel,
		Context:  1,
	})
	if err != nil {
		return fmt.Errorf("diff %s: %w", rel, err)
	}
	if text == "" {
		slog.Debug("blame unchanged", slog.String("file", rel))
		return nil
	}
	_, err = io.WriteString(w.out, text)
	return err
}

func withNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}

func inRepoMarker(name string) bool {
	for _, part := range strings.Split(filepath.ToSlash(name), "/") {
		if part == blame.RepoMarker {
			return true
		}
	}
	return false
}

func shouldIgnoreWatchPath(name string) bool {
	base := filepath.Base(name)
	if base == "lock" || base == "wlock" {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".swp" || strings.HasSuffix(base, "~")
}
