// internal/fixer/guard.go
package fixer

import "github.com/bethropolis/phpcbf/internal/patch"

// loopGuard detects formatting oscillation for one buffer. The known
// pathological case: the editor's indentation setting (tabs vs spaces)
// disagrees with the project's standard, so every save round-trip
// produces a non-empty diff and fix-on-save re-triggers indefinitely.
//
// Two consecutive automatic runs whose edits are non-empty and within
// the configured byte threshold of each other's size arm the guard;
// while armed, automatic triggers are suppressed for that buffer.
// Any edit the user makes disarms it, as does a clean (no-change) run.
type loopGuard struct {
	seen     bool
	lastSpan int
	lastText int
	armed    bool
}

// record notes an automatic run's applied edit and arms the guard when
// it oscillates against the previous one.
func (g *loopGuard) record(e patch.Edit, threshold int) {
	span, text := e.SpanLen(), len(e.Text)
	if g.seen && absDiff(span, g.lastSpan) <= threshold && absDiff(text, g.lastText) <= threshold {
		g.armed = true
	}
	g.seen = true
	g.lastSpan = span
	g.lastText = text
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// guardArmed reports whether automatic triggers are suppressed for the buffer.
func (f *Fixer) guardArmed(bufferID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.guards[bufferID]
	return ok && g.armed
}

// recordAuto feeds an automatic run's edit into the buffer's guard.
func (f *Fixer) recordAuto(bufferID string, e patch.Edit, threshold int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.guards[bufferID]
	if !ok {
		g = &loopGuard{}
		f.guards[bufferID] = g
	}
	g.record(e, threshold)
}

// resetGuard disarms and clears the buffer's guard history.
func (f *Fixer) resetGuard(bufferID string) {
	f.mu.Lock()
	delete(f.guards, bufferID)
	f.mu.Unlock()
}
