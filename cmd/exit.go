package cmd

import (
	"errors"
	"fmt"
)

const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitUsage      = 2
	ExitResolution = 3
	ExitCancelled  = 130
)

// exitError carries the process exit code for an error returned by the root command.
type exitError struct {
	code int
	err  error
	// quiet errors have already been reported to the user
	quiet bool
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func usageError(format string, args ...interface{}) error {
	return &exitError{code: ExitUsage, err: fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitFailure
}

func isQuiet(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.quiet
}
