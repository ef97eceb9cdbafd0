// internal/host/headless.go
package host

import (
	"fmt"
	"sync"

	"github.com/bethropolis/phpcbf/internal/buffer"
	"github.com/bethropolis/phpcbf/internal/event"
	"github.com/bethropolis/phpcbf/internal/logger"
)

// Ensure Headless implements the API interface.
var _ API = (*Headless)(nil)

// Headless is an in-process host with no UI: buffers live in memory and
// messages go to configurable sinks (the logger by default). It backs
// the CLI and the tests.
type Headless struct {
	mu      sync.Mutex
	buffers map[string]*buffer.Buffer
	events  *event.Manager

	statusSink func(msg string)
	errorSink  func(msg string)
}

// NewHeadless creates a headless host around an event manager.
func NewHeadless(events *event.Manager) *Headless {
	return &Headless{
		buffers: make(map[string]*buffer.Buffer),
		events:  events,
		statusSink: func(msg string) {
			logger.Infof("%s", msg)
		},
		errorSink: func(msg string) {
			logger.Errorf("%s", msg)
		},
	}
}

// SetStatusSink redirects status messages (e.g. to the CLI's stderr).
func (h *Headless) SetStatusSink(sink func(msg string)) {
	h.statusSink = sink
}

// SetErrorSink redirects error messages.
func (h *Headless) SetErrorSink(sink func(msg string)) {
	h.errorSink = sink
}

// AddBuffer registers a buffer under an identifier.
func (h *Headless) AddBuffer(bufferID string, buf *buffer.Buffer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buffers[bufferID] = buf
}

// Buffer returns a registered buffer, or nil.
func (h *Headless) Buffer(bufferID string) *buffer.Buffer {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buffers[bufferID]
}

func (h *Headless) lookup(bufferID string) (*buffer.Buffer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	buf, ok := h.buffers[bufferID]
	if !ok {
		return nil, fmt.Errorf("unknown buffer '%s'", bufferID)
	}
	return buf, nil
}

func (h *Headless) BufferBytes(bufferID string) ([]byte, error) {
	buf, err := h.lookup(bufferID)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *Headless) BufferPath(bufferID string) (string, error) {
	buf, err := h.lookup(bufferID)
	if err != nil {
		return "", err
	}
	return buf.FilePath(), nil
}

func (h *Headless) Caret(bufferID string) (int, error) {
	buf, err := h.lookup(bufferID)
	if err != nil {
		return 0, err
	}
	return buf.Caret(), nil
}

// ReplaceRange applies the fixer's edit and caret move, then announces
// the modification with OriginFixer so the fixer's own edits are
// distinguishable from the user's.
func (h *Headless) ReplaceRange(bufferID string, start, end int, text string, caret int) error {
	buf, err := h.lookup(bufferID)
	if err != nil {
		return err
	}
	if err := buf.Replace(start, end, text); err != nil {
		return err
	}
	buf.SetCaret(caret)
	h.events.Dispatch(event.TypeBufferModified, event.BufferModifiedData{
		BufferID: bufferID,
		Origin:   event.OriginFixer,
	})
	return nil
}

// UserEdit mutates a buffer on behalf of the host's user and announces
// it with OriginUser. Tests use it to simulate typing.
func (h *Headless) UserEdit(bufferID string, start, end int, text string) error {
	buf, err := h.lookup(bufferID)
	if err != nil {
		return err
	}
	if err := buf.Replace(start, end, text); err != nil {
		return err
	}
	h.events.Dispatch(event.TypeBufferModified, event.BufferModifiedData{
		BufferID: bufferID,
		Origin:   event.OriginUser,
	})
	return nil
}

// Save writes a buffer to disk and fires the save event, which is what
// triggers automatic fixing when fix_on_save is enabled.
func (h *Headless) Save(bufferID string) error {
	buf, err := h.lookup(bufferID)
	if err != nil {
		return err
	}
	if err := buf.Save(""); err != nil {
		return err
	}
	h.events.Dispatch(event.TypeBufferSaved, event.BufferSavedData{
		BufferID: bufferID,
		FilePath: buf.FilePath(),
	})
	return nil
}

func (h *Headless) SetStatusMessage(format string, args ...interface{}) {
	h.statusSink(fmt.Sprintf(format, args...))
}

func (h *Headless) ShowError(format string, args ...interface{}) {
	h.errorSink(fmt.Sprintf(format, args...))
}

func (h *Headless) Events() *event.Manager {
	return h.events
}
