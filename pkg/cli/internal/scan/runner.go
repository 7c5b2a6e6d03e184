package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/getmockd/replay/pkg/replay"
)

// RunRequest selects the tests to run.
type RunRequest struct {
	Packages []string
	// Filter is passed to go test -run.
	Filter  string
	Mode    replay.RecordMode
	Verbose bool
	// Count, when positive, is passed as -count.
	Count int
}

// RunResult is the outcome of one go test invocation.
type RunResult struct {
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
}

// Runner executes go test with the record mode forced through the
// environment.
type Runner struct {
	// Go is the go command, "go" when empty.
	Go     string
	Dir    string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Args returns the go test arguments for req.
func (r Runner) Args(req RunRequest) []string {
	args := []string{"test"}
	if req.Verbose {
		args = append(args, "-v")
	}
	if req.Count > 0 {
		args = append(args, fmt.Sprintf("-count=%d", req.Count))
	}
	if req.Filter != "" {
		args = append(args, "-run", req.Filter)
	}
	if len(req.Packages) == 0 {
		return append(args, "./...")
	}
	return append(args, req.Packages...)
}

// Run executes go test and reports its exit status. A non-zero exit is not
// an error; failing to start the process is.
func (r Runner) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if !req.Mode.IsValid() {
		return RunResult{}, fmt.Errorf("%w: %q", replay.ErrInvalidRecordMode, req.Mode)
	}
	goCmd := r.Go
	if goCmd == "" {
		goCmd = "go"
	}
	res := RunResult{Args: append([]string{goCmd}, r.Args(req)...)}

	cmd := exec.CommandContext(ctx, goCmd, res.Args[1:]...)
	cmd.Dir = r.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	env := r.Env
	if env == nil {
		env = os.Environ()
	}
	cmd.Env = append(env[:len(env):len(env)], replay.EnvRecordMode+"="+req.Mode.String())

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	default:
		return res, fmt.Errorf("failed to run %s: %w", goCmd, err)
	}
}
