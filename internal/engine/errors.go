package engine

import (
	"errors"
	"fmt"
)

// OperationError wraps a failed engine or filesystem call: save, close,
// recompute, render, archive.
type OperationError struct {
	Op   string
	Path string
	Err  error
}

func (e *OperationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("engine %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// Wrap returns nil for a nil err, otherwise an *OperationError.
func Wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Op: op, Path: path, Err: err}
}

// IsOperation reports whether err is or wraps an *OperationError.
func IsOperation(err error) bool {
	var oe *OperationError
	return errors.As(err, &oe)
}
