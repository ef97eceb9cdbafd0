// internal/buffer/buffer.go
package buffer

import (
	"errors"
	"fmt"
	"os"
)

// Buffer is an offset-addressed in-memory text buffer with a caret.
// The patcher works in byte offsets, so the buffer stores a flat byte
// slice rather than a line slice.
type Buffer struct {
	content  []byte
	filePath string
	caret    int // byte offset, kept within [0, len(content)]
	modified bool
}

// New creates an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// NewFromString creates a Buffer holding the given content.
func NewFromString(content string) *Buffer {
	return &Buffer{content: []byte(content)}
}

// Load reads a file into the buffer, replacing existing content.
// A missing file yields an empty buffer bound to that path.
func (b *Buffer) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			b.content = nil
			b.filePath = filePath
			b.caret = 0
			b.modified = false
			return nil
		}
		return fmt.Errorf("failed to read file '%s': %w", filePath, err)
	}
	b.content = data
	b.filePath = filePath
	b.caret = 0
	b.modified = false
	return nil
}

// Save writes the buffer content to filePath, or to the stored path
// when filePath is empty. Resets the modified flag on success.
func (b *Buffer) Save(filePath string) error {
	path := b.filePath
	if filePath != "" {
		path = filePath
	}
	if path == "" {
		return errors.New("no file path specified for saving")
	}
	if err := os.WriteFile(path, b.content, 0644); err != nil {
		return fmt.Errorf("failed to write file '%s': %w", path, err)
	}
	b.filePath = path
	b.modified = false
	return nil
}

// Bytes returns a copy of the buffer content.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, len(b.content))
	copy(out, b.content)
	return out
}

// String returns the buffer content as a string.
func (b *Buffer) String() string {
	return string(b.content)
}

// Len returns the content length in bytes.
func (b *Buffer) Len() int {
	return len(b.content)
}

// FilePath returns the path the buffer was loaded from, if any.
func (b *Buffer) FilePath() string {
	return b.filePath
}

// IsModified reports whether the buffer has unsaved changes.
func (b *Buffer) IsModified() bool {
	return b.modified
}

// Caret returns the current caret byte offset.
func (b *Buffer) Caret() int {
	return b.caret
}

// SetCaret moves the caret, clamping it to the buffer bounds.
func (b *Buffer) SetCaret(offset int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(b.content) {
		offset = len(b.content)
	}
	b.caret = offset
}

// Replace substitutes content[start:end] with text and marks the buffer
// modified. The caret is clamped afterwards; callers that care about
// caret placement set it explicitly (see patch.MapCaret).
func (b *Buffer) Replace(start, end int, text string) error {
	if start < 0 || end < start || end > len(b.content) {
		return fmt.Errorf("replace range [%d,%d) out of bounds (len %d)", start, end, len(b.content))
	}
	updated := make([]byte, 0, len(b.content)-(end-start)+len(text))
	updated = append(updated, b.content[:start]...)
	updated = append(updated, text...)
	updated = append(updated, b.content[end:]...)
	b.content = updated
	b.modified = true
	b.SetCaret(b.caret)
	return nil
}
