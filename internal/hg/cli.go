package hg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/thiagokokada/hgblame/internal/blame"
)

// DefaultProgram is the executable used when CLI.Program is empty.
const DefaultProgram = "hg"

// maxLineSize bounds a single line of hg output.
const maxLineSize = 16 * 1024 * 1024

// CLI runs commands with the hg executable. It implements blame.Runner.
type CLI struct {
	Program string
	// Env is appended to the current environment of the process.
	Env []string
}

var _ blame.Runner = (*CLI)(nil)

func (c *CLI) program() string {
	if c == nil || c.Program == "" {
		return DefaultProgram
	}
	return c.Program
}

// Run starts cmd in cmd.Dir and feeds stdout to the callback one line at a
// time while the process is still running. The exit code of the process is
// returned; err is only set when the process could not be run or its output
// could not be read. If stdout returns an error, the process is killed and
// that error is returned.
func (c *CLI) Run(ctx context.Context, cmd blame.Command, stdout func(line string) error, stderr io.Writer) (int, error) {
	proc := exec.CommandContext(ctx, c.program(), cmd.Args...)
	proc.Dir = cmd.Dir
	// HGPLAIN disables user configuration that changes output (aliases,
	// localization, custom date formats).
	proc.Env = append(proc.Environ(), "HGPLAIN=1")
	if c != nil {
		proc.Env = append(proc.Env, c.Env...)
	}
	if stderr == nil {
		stderr = io.Discard
	}
	proc.Stderr = stderr
	out, err := proc.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("%s: stdout pipe: %w", cmd, err)
	}
	if err := proc.Start(); err != nil {
		return -1, fmt.Errorf("%s: %w", cmd, err)
	}

	scanErr := scanLines(out, stdout)
	if scanErr != nil {
		_ = proc.Process.Kill()
		// Drain so Wait does not block on a full pipe.
		_, _ = io.Copy(io.Discard, out)
	}
	waitErr := proc.Wait()
	if scanErr != nil {
		return -1, scanErr
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && ctx.Err() == nil {
			return exitErr.ExitCode(), nil
		}
		if ctx.Err() != nil {
			return -1, fmt.Errorf("%s: %w", cmd, ctx.Err())
		}
		return -1, fmt.Errorf("%s: %w", cmd, waitErr)
	}
	return 0, nil
}

func scanLines(r io.Reader, fn func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read hg output: %w", err)
	}
	return nil
}
