// Package fixer wires the whole fix operation together: it resolves the
// coding standard for the buffer's file, pipes the buffer through
// phpcbf, and patches the minimal differing region back into the
// buffer. It owns the per-buffer Idle/Running state machine that keeps
// fix runs strictly serialized, and the guard that stops fix-on-save
// from re-triggering forever when the editor's indentation settings
// fight the project's standard.
package fixer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bethropolis/phpcbf/internal/config"
	"github.com/bethropolis/phpcbf/internal/event"
	"github.com/bethropolis/phpcbf/internal/host"
	"github.com/bethropolis/phpcbf/internal/logger"
	"github.com/bethropolis/phpcbf/internal/patch"
	"github.com/bethropolis/phpcbf/internal/runner"
)

var (
	// ErrAlreadyRunning means a fix is in flight for the buffer; the
	// trigger is rejected, not queued.
	ErrAlreadyRunning = errors.New("a fix is already running for this buffer")

	// ErrBufferChanged means the buffer was edited while the formatter
	// ran; the stale result is discarded and the buffer left untouched.
	ErrBufferChanged = errors.New("buffer changed while the formatter was running")

	// ErrBadOutput means the formatter produced output that no longer
	// parses as PHP; it is never applied.
	ErrBadOutput = errors.New("formatter output is not valid php")
)

// runFunc matches runner.Run; swapped out in tests.
type runFunc func(ctx context.Context, req runner.Request) (runner.Result, error)

// Fixer exposes the fix operation as a manual trigger (FixBuffer) and an
// automatic one (the buffer-saved event, when fix_on_save is enabled).
type Fixer struct {
	api host.API
	cfg *config.Config
	run runFunc

	mu      sync.Mutex
	running map[string]bool      // buffer id -> Running state
	guards  map[string]*loopGuard
}

// New creates a Fixer bound to a host and a base configuration. The
// configuration is re-resolved per file on every run (project overlays),
// never mutated.
func New(api host.API, cfg *config.Config) *Fixer {
	return &Fixer{
		api:     api,
		cfg:     cfg,
		run:     runner.Run,
		running: make(map[string]bool),
		guards:  make(map[string]*loopGuard),
	}
}

// Name returns the fixer's identifier for the host.
func (f *Fixer) Name() string {
	return "phpcbf"
}

// Initialize subscribes the fixer to the host's event bus: saves drive
// the automatic trigger, modifications disarm the loop guard.
func (f *Fixer) Initialize() error {
	f.api.Events().Subscribe(event.TypeBufferSaved, f.handleBufferSaved)
	f.api.Events().Subscribe(event.TypeBufferModified, f.handleBufferModified)
	logger.Debugf("%s: initialized (fix_on_save=%v)", f.Name(), f.cfg.FixOnSave)
	return nil
}

// Shutdown releases nothing today; present for lifecycle symmetry.
func (f *Fixer) Shutdown() error {
	return nil
}

// FixBuffer runs one fix for the buffer, triggered explicitly by the
// user. Failures are surfaced prominently via the host's error surface.
func (f *Fixer) FixBuffer(ctx context.Context, bufferID string) error {
	if err := f.begin(bufferID); err != nil {
		f.api.SetStatusMessage("phpcbf: already running")
		return err
	}
	defer f.end(bufferID)

	if err := f.fix(ctx, bufferID, false); err != nil {
		f.api.ShowError("phpcbf: %v", err)
		return err
	}
	return nil
}

// handleBufferSaved is the automatic trigger. Failures only reach the
// status line; a save must never be interrupted by a dialog.
func (f *Fixer) handleBufferSaved(e event.Event) bool {
	data, ok := e.Data.(event.BufferSavedData)
	if !ok {
		return false
	}
	if !isPHPFile(data.FilePath) {
		return false
	}

	cfg := f.cfg.ForFile(data.FilePath)
	if !cfg.FixOnSave {
		return false
	}
	if f.guardArmed(data.BufferID) {
		logger.Debugf("%s: auto-fix suppressed for '%s' (oscillation guard armed)", f.Name(), data.BufferID)
		return false
	}
	if err := f.begin(data.BufferID); err != nil {
		logger.Debugf("%s: save trigger ignored, fix already running for '%s'", f.Name(), data.BufferID)
		return false
	}
	defer f.end(data.BufferID)

	if err := f.fix(context.Background(), data.BufferID, true); err != nil {
		f.api.SetStatusMessage("phpcbf: %v", err)
	}
	return false
}

// handleBufferModified disarms the oscillation guard when the user (not
// the fixer itself) edits the buffer.
func (f *Fixer) handleBufferModified(e event.Event) bool {
	data, ok := e.Data.(event.BufferModifiedData)
	if ok && data.Origin == event.OriginUser {
		f.resetGuard(data.BufferID)
	}
	return false
}

// fix executes the shared pipeline for one buffer and applies the
// resulting edit. Callers hold the Running state for bufferID.
func (f *Fixer) fix(ctx context.Context, bufferID string, auto bool) error {
	raw, err := f.api.BufferBytes(bufferID)
	if err != nil {
		return err
	}
	snapshot := string(raw)

	path, err := f.api.BufferPath(bufferID)
	if err != nil {
		return err
	}

	cfg := f.cfg.ForFile(path)
	f.api.Events().Dispatch(event.TypeFixStarted, event.FixStartedData{BufferID: bufferID, Auto: auto})

	outcome, err := f.runPipeline(ctx, snapshot, path, &cfg)
	if err != nil {
		f.api.Events().Dispatch(event.TypeFixFailed, event.FixFailedData{BufferID: bufferID, Auto: auto, Err: err})
		return err
	}

	if !outcome.Changed {
		if auto {
			// A clean round-trip means any oscillation is over.
			f.resetGuard(bufferID)
		}
		f.api.SetStatusMessage("phpcbf: no changes needed")
		return nil
	}

	// The formatter may have run for a while; refuse to patch a buffer
	// that no longer matches the snapshot the formatter saw.
	current, err := f.api.BufferBytes(bufferID)
	if err != nil {
		return err
	}
	if string(current) != snapshot {
		f.api.Events().Dispatch(event.TypeFixFailed, event.FixFailedData{BufferID: bufferID, Auto: auto, Err: ErrBufferChanged})
		return ErrBufferChanged
	}

	caret, err := f.api.Caret(bufferID)
	if err != nil {
		return err
	}
	newCaret := patch.MapCaret(outcome.Edit, caret)

	if err := f.api.ReplaceRange(bufferID, outcome.Edit.Start, outcome.Edit.End, outcome.Edit.Text, newCaret); err != nil {
		f.api.Events().Dispatch(event.TypeFixFailed, event.FixFailedData{BufferID: bufferID, Auto: auto, Err: err})
		return err
	}
	if auto {
		f.recordAuto(bufferID, outcome.Edit, cfg.LoopGuardBytes)
	}

	f.api.Events().Dispatch(event.TypeFixApplied, event.FixAppliedData{
		BufferID:  bufferID,
		Edit:      outcome.Edit,
		Remaining: outcome.Remaining,
	})
	if outcome.Remaining > 0 {
		f.api.SetStatusMessage("phpcbf: buffer fixed, %d violation(s) remain", outcome.Remaining)
	} else {
		f.api.SetStatusMessage("phpcbf: buffer fixed")
	}
	return nil
}

// begin transitions a buffer from Idle to Running.
func (f *Fixer) begin(bufferID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running[bufferID] {
		return ErrAlreadyRunning
	}
	f.running[bufferID] = true
	return nil
}

// end transitions a buffer back to Idle.
func (f *Fixer) end(bufferID string) {
	f.mu.Lock()
	delete(f.running, bufferID)
	f.mu.Unlock()
}

// isPHPFile mirrors the save filter of the original plugin: a .php
// extension and not a dotfile.
func isPHPFile(path string) bool {
	if path == "" {
		return false
	}
	base := filepath.Base(path)
	return strings.HasSuffix(base, ".php") && !strings.HasPrefix(base, ".")
}
