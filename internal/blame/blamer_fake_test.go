package blame

import (
	"context"
	"errors"
	"io"
	"sync"
)

type fakeRunner struct {
	mu       sync.Mutex
	commands []Command

	runFunc func(ctx context.Context, cmd Command, stdout func(string) error, stderr io.Writer) (int, error)
}

func (f *fakeRunner) Run(ctx context.Context, cmd Command, stdout func(string) error, stderr io.Writer) (int, error) {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()
	if f.runFunc != nil {
		return f.runFunc(ctx, cmd, stdout, stderr)
	}
	return 0, errors.New("unexpected Run call")
}

func (f *fakeRunner) Commands() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.commands...)
}

// emit returns a run function that writes out to stdout and exits with 0.
func emit(out ...string) func(context.Context, Command, func(string) error, io.Writer) (int, error) {
	return func(_ context.Context, _ Command, stdout func(string) error, _ io.Writer) (int, error) {
		for _, line := range out {
			if err := stdout(line); err != nil {
				return -1, err
			}
		}
		return 0, nil
	}
}
