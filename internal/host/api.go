// internal/host/api.go
package host

import "github.com/bethropolis/phpcbf/internal/event"

// API defines the methods the fixer can use to interact with the editor
// hosting the buffers. This acts as a controlled interface: the fixer
// never touches the host's internals directly, and buffer mutation goes
// through a single method the host can serialize onto whatever thread
// owns the buffer.
type API interface {
	// --- Buffer access ---
	BufferBytes(bufferID string) ([]byte, error)
	BufferPath(bufferID string) (string, error)
	Caret(bufferID string) (int, error)

	// ReplaceRange substitutes content[start:end) with text and moves the
	// caret to the given offset, as one operation. It is the only way the
	// fixer modifies a buffer.
	ReplaceRange(bufferID string, start, end int, text string, caret int) error

	// --- Reporting ---
	// SetStatusMessage shows a transient, non-intrusive message.
	SetStatusMessage(format string, args ...interface{})
	// ShowError surfaces a failure prominently (a dialog in a real
	// editor). Used for manually triggered fixes only.
	ShowError(format string, args ...interface{})

	// --- Event bus ---
	Events() *event.Manager
}
