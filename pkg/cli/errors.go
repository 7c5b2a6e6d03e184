package cli

import (
	"errors"
	"fmt"
)

// Common CLI errors
var (
	ErrValidationFailed = errors.New("archive validation failed")
	ErrNoArchives       = errors.New("no archives found - record some with: replay record")
)

// ExitError makes the command exit with Code. Err, when set, is printed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }
