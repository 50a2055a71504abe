package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/thiagokokada/hgblame/internal/blame"
	"github.com/thiagokokada/hgblame/internal/buildinfo"
	"github.com/thiagokokada/hgblame/internal/hg"
	"github.com/thiagokokada/hgblame/internal/render"
	"github.com/thiagokokada/hgblame/internal/watch"
	"github.com/thiagokokada/hgblame/internal/workspace"
)

// EnvConsiderWhitespaces overrides the default of -consider-whitespaces.
const EnvConsiderWhitespaces = "HGBLAME_CONSIDER_WHITESPACES"

const (
	formatText = "text"
	formatJSON = "json"
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// env holds what run needs from the outside world.
type env struct {
	stdout    io.Writer
	stderr    io.Writer
	getenv    func(string) string
	newRunner func(program string) blame.Runner
}

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, os.Args[1:], env{
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		newRunner: func(program string) blame.Runner {
			return &hg.CLI{Program: program}
		},
	})
}

func run(ctx context.Context, args []string, e env) error {
	fs := flag.NewFlagSet("hgblame", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), `usage: hgblame [flags] [path ...]

Prints the author, changeset and date of every line of the given files or
directories (default: the whole base directory) using "hg blame".

Flags:`)
		fs.PrintDefaults()
	}
	baseDir := fs.String("C", ".", "base directory; paths are relative to it")
	considerWhitespaces := fs.Bool("consider-whitespaces", envBool(e.getenv, EnvConsiderWhitespaces),
		"attribute whitespace-only changes (do not pass -w to hg blame); env "+EnvConsiderWhitespaces)
	var exclude stringList
	fs.Var(&exclude, "exclude", "gitignore-style pattern of files to skip (repeatable)")
	format := fs.String("format", formatText, "output format: text or json")
	color := fs.Bool("color", false, "syntax highlight source lines in text output")
	mode := fs.String("mode", render.ThemeAuto.String(), "color mode for -color: auto, light, or dark")
	jobs := fs.Int("jobs", blame.DefaultParallelism(), "number of files blamed in parallel")
	program := fs.String("hg", hg.DefaultProgram, "hg executable")
	watchMode := fs.Bool("watch", false, "keep running and print blame changes when files or repositories change")
	verbose := fs.Bool("verbose", false, "enable verbose logging")
	showVersion := fs.Bool("version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(e.stderr, &slog.HandlerOptions{Level: level})))

	runner := e.newRunner(*program)
	if *showVersion {
		hgVersion := ""
		if v, ok := runner.(interface {
			Version(context.Context) (hg.Version, error)
		}); ok {
			if got, err := v.Version(ctx); err == nil {
				hgVersion = got.String()
			} else {
				slog.Debug("hg version", slog.Any("error", err))
			}
		}
		fmt.Fprintln(e.stdout, buildinfo.Describe(hgVersion))
		return nil
	}
	if *format != formatText && *format != formatJSON {
		return fmt.Errorf("unknown format %q", *format)
	}
	if *watchMode && *format != formatText {
		return fmt.Errorf("-watch only supports text output")
	}

	ws, err := workspace.Open(*baseDir, workspace.Options{Exclude: exclude})
	if err != nil {
		return err
	}
	input, err := ws.Collect(fs.Args()...)
	if err != nil {
		return err
	}

	cfg := blame.Config{ConsiderWhitespaces: *considerWhitespaces}
	blamer := blame.New(runner, cfg, blame.WithParallelism(*jobs))
	var results blame.Collector
	if err := blamer.Blame(ctx, input, &results); err != nil {
		return err
	}

	text := render.Text{Color: *color, Theme: render.ThemePreferenceFromString(*mode)}
	switch *format {
	case formatJSON:
		err = render.JSON(e.stdout, results.Results())
	default:
		err = text.Render(e.stdout, results.Results())
	}
	if err != nil || !*watchMode {
		return err
	}

	w := watch.New(ws, blamer, render.Text{}.RenderLines, e.stdout)
	for _, res := range results.Results() {
		if err := w.Track(res); err != nil {
			return err
		}
	}
	slog.Info("watching for changes", slog.String("base_dir", ws.BaseDir()), slog.Int("files", len(input.Files)))
	return w.Run(ctx)
}

func envBool(getenv func(string) string, key string) bool {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("ignoring invalid boolean", slog.String("env", key), slog.String("value", raw))
		return false
	}
	return v
}
