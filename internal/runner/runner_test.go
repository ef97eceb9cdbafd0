package runner

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests use a POSIX shell")
	}
}

func TestRunPipesStdin(t *testing.T) {
	skipWithoutShell(t)

	res, err := Run(context.Background(), Request{
		Path:  "sh",
		Args:  []string{"-c", "cat"},
		Input: "<?php echo 1;\n",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stdout != "<?php echo 1;\n" {
		t.Errorf("Stdout = %q, want the piped input back", res.Stdout)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestRunExecutableNotFound(t *testing.T) {
	_, err := Run(context.Background(), Request{
		Path: "phpcbf-definitely-not-installed-anywhere",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Run() error = %v, want ErrNotFound", err)
	}
}

func TestRunTimeout(t *testing.T) {
	skipWithoutShell(t)

	start := time.Now()
	_, err := Run(context.Background(), Request{
		Path:    "sh",
		Args:    []string{"-c", "sleep 5"},
		Timeout: 100 * time.Millisecond,
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Run() error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Run() took %v, process was not killed at the deadline", elapsed)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	skipWithoutShell(t)

	res, err := Run(context.Background(), Request{
		Path: "sh",
		Args: []string{"-c", "printf partial; printf oops >&2; exit 3"},
	})
	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("Run() error = %v, want *ExitError", err)
	}
	if ee.Code != 3 {
		t.Errorf("ExitError.Code = %d, want 3", ee.Code)
	}
	if ee.Stderr != "oops" {
		t.Errorf("ExitError.Stderr = %q, want %q", ee.Stderr, "oops")
	}
	// Partial output survives for diagnostics.
	if res.Stdout != "partial" {
		t.Errorf("Result.Stdout = %q, want %q", res.Stdout, "partial")
	}
}

func TestRunCancelledContext(t *testing.T) {
	skipWithoutShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Request{
		Path: "sh",
		Args: []string{"-c", "sleep 5"},
	})
	if err == nil {
		t.Fatal("Run() with cancelled context returned nil error")
	}
}
