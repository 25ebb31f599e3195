package main

import "fmt"

// exitError carries a process exit code out through cobra's error return.
// silent suppresses the final stderr line for commands that already print
// their own diagnostics, like validate's per-file output.
type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.err != nil:
		return e.err.Error()
	default:
		return fmt.Sprintf("exit %d", e.code)
	}
}

func (e *exitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}
