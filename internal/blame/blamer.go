package blame

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Runner runs hg. Each line of standard output is passed to stdout as soon
// as it is read; standard error is copied to stderr. A nonzero exit code is
// not an error.
type Runner interface {
	Run(ctx context.Context, cmd Command, stdout func(line string) error, stderr io.Writer) (exitCode int, err error)
}

// DefaultParallelism is the number of files blamed at once unless
// WithParallelism says otherwise.
func DefaultParallelism() int {
	return runtime.NumCPU() + 1
}

type Option func(*Blamer)

// WithLogger sets the logger used for progress and hg diagnostics.
// slog.Default() is used otherwise.
func WithLogger(log *slog.Logger) Option {
	return func(b *Blamer) {
		if log != nil {
			b.log = log
		}
	}
}

func WithParallelism(n int) Option {
	return func(b *Blamer) {
		if n > 0 {
			b.parallelism = n
		}
	}
}

// Blamer blames files in parallel.
type Blamer struct {
	runner      Runner
	cfg         Config
	parallelism int
	log         *slog.Logger
}

func New(runner Runner, cfg Config, opts ...Option) *Blamer {
	b := &Blamer{
		runner:      runner,
		cfg:         cfg,
		parallelism: DefaultParallelism(),
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Blamer) Config() Config {
	return b.cfg
}

// Blame blames every file of input and hands each result to sink.
//
// Files that hg refuses to blame (e.g. not committed yet) are reported with
// whatever was parsed, usually nothing. Any other failure is returned once
// all files have been processed; when several files fail the first failure
// wins. Results already delivered to sink should then be discarded.
func (b *Blamer) Blame(ctx context.Context, input Input, sink Sink) error {
	b.log.Debug("blame start",
		slog.String("working_dir", input.BaseDir),
		slog.Int("files", len(input.Files)),
		slog.Int("parallelism", b.parallelism),
		slog.String("config", b.cfg.String()),
	)
	var g errgroup.Group
	g.SetLimit(b.parallelism)
	for _, file := range input.Files {
		g.Go(func() error {
			return asFault(file.RelPath, b.blameFile(ctx, input.BaseDir, file, sink))
		})
	}
	if err := g.Wait(); err != nil {
		b.log.Debug("blame failed", slog.Any("error", err))
		return err
	}
	b.log.Debug("blame done", slog.Int("files", len(input.Files)))
	return nil
}

// BlameFile blames a single file and returns its lines.
func (b *Blamer) BlameFile(ctx context.Context, workingDir string, file File) ([]Line, error) {
	var lines []Line
	err := b.blameFile(ctx, workingDir, file, SinkFunc(func(_ File, l []Line) {
		lines = l
	}))
	if err != nil {
		return nil, asFault(file.RelPath, err)
	}
	return lines, nil
}

func (b *Blamer) blameFile(ctx context.Context, workingDir string, file File, sink Sink) error {
	loc := Resolve(workingDir, file.AbsPath)
	cmd := BuildCommand(loc, b.cfg)
	parser := NewParser(file.RelPath)
	var stderr bytes.Buffer

	b.log.Debug("executing", slog.String("command", cmd.String()), slog.String("dir", cmd.Dir))
	exitCode, err := b.runner.Run(ctx, cmd, parser.Consume, &stderr)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		// Expected for files that are not committed yet.
		b.log.Debug("hg blame failed",
			slog.String("command", cmd.String()),
			slog.String("dir", cmd.Dir),
			slog.Int("exit_code", exitCode),
			slog.String("stderr", strings.TrimSpace(stderr.String())),
		)
	}
	if parser.Binary() {
		b.log.Debug("hg reports binary file", slog.String("file", file.RelPath))
	}
	sink.BlameResult(file, CorrectLastLine(parser.Lines(), file.Lines))
	return nil
}
