package scan

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyHost        = errors.New("empty host")
	ErrNoTarget         = errors.New("no target address")
	ErrInvalidPortRange = errors.New("invalid port range")
	ErrInvalidTimeout   = errors.New("timeout must be greater than zero")
	ErrCancelled        = errors.New("scan cancelled")
)

// ResolutionError reports that a host name could not be mapped to an address.
// It is distinct from any failure to connect to an address.
type ResolutionError struct {
	Host string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve '%s': %s", e.Host, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// IsResolutionError reports whether err, or anything it wraps, is a *ResolutionError.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}
