package blame

import (
	"errors"
	"fmt"
)

// Error is a fault that aborted blaming a file, such as a failure to start hg
// or to read its output.
type Error struct {
	File string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("blame %s: %v", e.File, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ParseError reports hg output that does not look like a blame line.
type ParseError struct {
	File   string
	LineNo int // 1-based line of hg output
	Text   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("blame %s: unable to parse line %d of hg output: %q", e.File, e.LineNo, e.Text)
}

// asFault returns err unchanged when it already is an *Error or *ParseError
// and wraps it in an *Error otherwise.
func asFault(file string, err error) error {
	if err == nil {
		return nil
	}
	var blameErr *Error
	if errors.As(err, &blameErr) {
		return err
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return err
	}
	return &Error{File: file, Err: err}
}
