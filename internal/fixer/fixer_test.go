package fixer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bethropolis/phpcbf/internal/buffer"
	"github.com/bethropolis/phpcbf/internal/config"
	"github.com/bethropolis/phpcbf/internal/event"
	"github.com/bethropolis/phpcbf/internal/host"
	"github.com/bethropolis/phpcbf/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBufferID = "b1"

type harness struct {
	fixer  *Fixer
	host   *host.Headless
	buffer *buffer.Buffer
	events *event.Manager
}

// newHarness builds a fixer over a headless host with one in-memory buffer.
func newHarness(t *testing.T, cfg *config.Config, content string) *harness {
	t.Helper()
	events := event.NewManager()
	h := host.NewHeadless(events)
	h.SetStatusSink(func(string) {})
	h.SetErrorSink(func(string) {})
	buf := buffer.NewFromString(content)
	h.AddBuffer(testBufferID, buf)

	f := New(h, cfg)
	require.NoError(t, f.Initialize())
	return &harness{fixer: f, host: h, buffer: buf, events: events}
}

// newFileHarness is like newHarness but backs the buffer with a real
// file so save events carry a .php path.
func newFileHarness(t *testing.T, cfg *config.Config, content string) *harness {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.php")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	hn := newHarness(t, cfg, "")
	require.NoError(t, hn.buffer.Load(path))
	return hn
}

// stripHeader removes the phpcs_input_file line the pipeline prepends.
func stripHeader(input string) string {
	if !strings.HasPrefix(input, config.InputFileHeader) {
		return input
	}
	if i := strings.IndexByte(input, '\n'); i >= 0 {
		return input[i+1:]
	}
	return input
}

func testConfig() *config.Config {
	cfg := config.NewDefault()
	cfg.ValidateOutput = false // exercised separately in TestBadOutputRejected
	return cfg
}

func TestFixBufferAppliesMinimalEdit(t *testing.T) {
	original := "<?php\n  $a=1;\n"
	formatted := "<?php\n\n$a = 1;\n"

	hn := newHarness(t, testConfig(), original)
	hn.buffer.SetCaret(len(original))
	hn.fixer.run = func(ctx context.Context, req runner.Request) (runner.Result, error) {
		return runner.Result{Stdout: formatted}, nil
	}

	var applied event.FixAppliedData
	hn.events.Subscribe(event.TypeFixApplied, func(e event.Event) bool {
		applied = e.Data.(event.FixAppliedData)
		return false
	})

	require.NoError(t, hn.fixer.FixBuffer(context.Background(), testBufferID))

	assert.Equal(t, formatted, hn.buffer.String())
	assert.True(t, hn.buffer.IsModified())
	// The untouched "<?php\n" prefix stays outside the edit region.
	assert.GreaterOrEqual(t, applied.Edit.Start, len("<?php\n"))
	// Caret was past the edit region: shifted by the length delta.
	assert.Equal(t, len(formatted), hn.buffer.Caret())
}

func TestFixBufferNoChanges(t *testing.T) {
	original := "<?php\n$a = 1;\n"

	hn := newHarness(t, testConfig(), original)
	hn.buffer.SetCaret(3)
	hn.fixer.run = func(ctx context.Context, req runner.Request) (runner.Result, error) {
		return runner.Result{Stdout: stripHeader(req.Input)}, nil
	}

	require.NoError(t, hn.fixer.FixBuffer(context.Background(), testBufferID))

	assert.Equal(t, original, hn.buffer.String())
	assert.False(t, hn.buffer.IsModified(), "a no-op fix must not dirty the buffer")
	assert.Equal(t, 3, hn.buffer.Caret())
}

func TestSecondTriggerRejectedWhileRunning(t *testing.T) {
	hn := newHarness(t, testConfig(), "<?php\n")

	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	hn.fixer.run = func(ctx context.Context, req runner.Request) (runner.Result, error) {
		atomic.AddInt32(&calls, 1)
		once.Do(func() { close(started) })
		<-release
		return runner.Result{Stdout: stripHeader(req.Input)}, nil
	}

	done := make(chan error, 1)
	go func() {
		done <- hn.fixer.FixBuffer(context.Background(), testBufferID)
	}()
	<-started

	err := hn.fixer.FixBuffer(context.Background(), testBufferID)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second trigger must not spawn a process")

	close(release)
	require.NoError(t, <-done)
}

func TestTimeoutLeavesBufferUntouched(t *testing.T) {
	original := "<?php\n  $a=1;\n"

	hn := newHarness(t, testConfig(), original)
	hn.fixer.run = func(ctx context.Context, req runner.Request) (runner.Result, error) {
		return runner.Result{}, fmt.Errorf("%w: phpcbf after 10s", runner.ErrTimeout)
	}

	err := hn.fixer.FixBuffer(context.Background(), testBufferID)
	assert.ErrorIs(t, err, runner.ErrTimeout)
	assert.Equal(t, original, hn.buffer.String(), "buffer must be byte-for-byte unchanged")
	assert.False(t, hn.buffer.IsModified())
}

func TestStaleSnapshotRejected(t *testing.T) {
	original := "<?php\n$a=1;\n"

	hn := newHarness(t, testConfig(), original)
	hn.fixer.run = func(ctx context.Context, req runner.Request) (runner.Result, error) {
		// The user types while the formatter is running.
		require.NoError(t, hn.host.UserEdit(testBufferID, 0, 0, "// edit\n"))
		return runner.Result{Stdout: "<?php\n$a = 1;\n"}, nil
	}

	err := hn.fixer.FixBuffer(context.Background(), testBufferID)
	assert.ErrorIs(t, err, ErrBufferChanged)
	assert.Equal(t, "// edit\n"+original, hn.buffer.String(), "stale formatter result must not be applied")
}

func TestBadOutputRejected(t *testing.T) {
	original := "<?php\n$a = 1;\n"

	cfg := config.NewDefault() // validate_output on
	hn := newHarness(t, cfg, original)
	hn.fixer.run = func(ctx context.Context, req runner.Request) (runner.Result, error) {
		return runner.Result{Stdout: "<?php\nif (\n"}, nil
	}

	err := hn.fixer.FixBuffer(context.Background(), testBufferID)
	assert.ErrorIs(t, err, ErrBadOutput)
	assert.Equal(t, original, hn.buffer.String())
}

func TestPartialFixReportsRemaining(t *testing.T) {
	original := "<?php\n  $a=1;\n"
	formatted := "<?php\n$a = 1;\n"

	hn := newHarness(t, testConfig(), original)
	hn.fixer.run = func(ctx context.Context, req runner.Request) (runner.Result, error) {
		res := runner.Result{
			Stdout:   formatted,
			Stderr:   "PHPCBF FAILED TO FIX 2 SNIFF VIOLATIONS",
			ExitCode: 2,
		}
		return res, &runner.ExitError{Code: 2, Stderr: res.Stderr}
	}

	var applied event.FixAppliedData
	hn.events.Subscribe(event.TypeFixApplied, func(e event.Event) bool {
		applied = e.Data.(event.FixAppliedData)
		return false
	})

	require.NoError(t, hn.fixer.FixBuffer(context.Background(), testBufferID))
	assert.Equal(t, formatted, hn.buffer.String())
	assert.Equal(t, 2, applied.Remaining)
}

func TestOscillationGuardSuppressesAutoFix(t *testing.T) {
	cfg := testConfig()
	cfg.FixOnSave = true

	hn := newFileHarness(t, cfg, "<?php\n\tx();\n")

	var calls int32
	hn.fixer.run = func(ctx context.Context, req runner.Request) (runner.Result, error) {
		atomic.AddInt32(&calls, 1)
		input := stripHeader(req.Input)
		// Flip the indentation every run, like a formatter fighting the
		// editor's tab settings.
		var out string
		if strings.Contains(input, "\t") {
			out = strings.ReplaceAll(input, "\t", "    ")
		} else {
			out = strings.ReplaceAll(input, "    ", "\t")
		}
		return runner.Result{Stdout: out}, nil
	}

	// First two saves each produce a small oscillating edit.
	require.NoError(t, hn.host.Save(testBufferID))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.NoError(t, hn.host.Save(testBufferID))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	// Guard is armed: the third save must not trigger a run.
	require.NoError(t, hn.host.Save(testBufferID))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "third automatic trigger should be suppressed")

	// Manual triggers are never suppressed.
	require.NoError(t, hn.fixer.FixBuffer(context.Background(), testBufferID))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	// A user edit disarms the guard and saves trigger again.
	end := hn.buffer.Len()
	require.NoError(t, hn.host.UserEdit(testBufferID, end, end, "// touched\n"))
	require.NoError(t, hn.host.Save(testBufferID))
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestSaveTriggerIgnoresNonPHPFiles(t *testing.T) {
	cfg := testConfig()
	cfg.FixOnSave = true

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\n"), 0644))

	hn := newHarness(t, cfg, "")
	require.NoError(t, hn.buffer.Load(path))

	var calls int32
	hn.fixer.run = func(ctx context.Context, req runner.Request) (runner.Result, error) {
		atomic.AddInt32(&calls, 1)
		return runner.Result{Stdout: stripHeader(req.Input)}, nil
	}

	require.NoError(t, hn.host.Save(testBufferID))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestBuildCommand(t *testing.T) {
	cfg := config.NewDefault()
	cfg.PHPCBFPath = "${folder}/vendor/bin/phpcbf"
	cfg.AdditionalArgs = []string{"--no-colors"}
	cfg.Folder = "/home/u/proj"

	exe, args := buildCommand(cfg, "PSR2")
	assert.Equal(t, "/home/u/proj/vendor/bin/phpcbf", exe)
	assert.Equal(t, []string{"--standard=PSR2", "-", "--no-colors"}, args)

	// With a PHP interpreter wrapper the phpcbf path becomes argv[1].
	cfg.PHPPath = "/usr/bin/php"
	exe, args = buildCommand(cfg, "${folder}/ruleset.xml")
	assert.Equal(t, "/usr/bin/php", exe)
	assert.Equal(t, []string{
		"/home/u/proj/vendor/bin/phpcbf",
		"--standard=/home/u/proj/ruleset.xml",
		"-",
		"--no-colors",
	}, args)
}

func TestParseRemaining(t *testing.T) {
	assert.Equal(t, 2, parseRemaining("PHPCBF FAILED TO FIX 2 SNIFF VIOLATIONS"))
	assert.Equal(t, 11, parseRemaining("11 violations remain"))
	assert.Equal(t, 0, parseRemaining("all good"))
}
