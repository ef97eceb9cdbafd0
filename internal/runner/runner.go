// Package runner executes a single external process per call, piping
// text to its stdin and capturing stdout, stderr and the exit status.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/bethropolis/phpcbf/internal/logger"
)

// DefaultTimeout bounds a run when the request doesn't specify one.
const DefaultTimeout = 10 * time.Second

var (
	// ErrNotFound means the executable could not be resolved on the host.
	ErrNotFound = errors.New("executable not found")

	// ErrTimeout means the process exceeded its deadline and was killed.
	ErrTimeout = errors.New("process timed out")
)

// ExitError reports a process that ran to completion with a non-zero
// status. The Result returned alongside it still carries any partial
// output for diagnostics.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("process exited with status %d", e.Code)
	}
	return fmt.Sprintf("process exited with status %d: %s", e.Code, e.Stderr)
}

// Request describes one process invocation.
type Request struct {
	Path    string        // executable path or name resolved via PATH
	Args    []string      // command-line arguments
	Input   string        // piped to stdin
	Timeout time.Duration // must be positive; DefaultTimeout when zero
}

// Result holds the captured output of a completed (or partially
// completed) process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run spawns exactly one child process and waits for it. A non-zero
// exit yields an *ExitError; the Result is populated in every case
// where the process produced output.
func Run(ctx context.Context, req Request) (Result, error) {
	var res Result

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	path, err := exec.LookPath(req.Path)
	if err != nil {
		return res, fmt.Errorf("%w: %s", ErrNotFound, req.Path)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path, req.Args...)
	cmd.Stdin = strings.NewReader(req.Input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debugf("runner: executing %s %v (timeout %v)", path, req.Args, timeout)
	runErr := cmd.Run()

	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	if runErr != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return res, fmt.Errorf("%w: %s after %v", ErrTimeout, req.Path, timeout)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("running %s: %w", req.Path, ctxErr)
		}
		var ee *exec.ExitError
		if errors.As(runErr, &ee) {
			res.ExitCode = ee.ExitCode()
			return res, &ExitError{Code: res.ExitCode, Stderr: strings.TrimSpace(res.Stderr)}
		}
		return res, fmt.Errorf("running %s: %w", req.Path, runErr)
	}

	res.ExitCode = 0
	return res, nil
}
