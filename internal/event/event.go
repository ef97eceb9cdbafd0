// internal/event/event.go
package event

import "github.com/bethropolis/phpcbf/internal/patch"

// Type identifies the kind of event.
type Type int

// Define specific event types.
const (
	TypeUnknown Type = iota

	// Host buffer lifecycle
	TypeBufferModified // Fired when buffer content changes
	TypeBufferSaved    // Fired after a buffer is written to disk

	// Fix lifecycle
	TypeFixStarted // Fired when a fix run begins
	TypeFixApplied // Fired after an edit has been applied to the buffer
	TypeFixFailed  // Fired when a fix run ends in an error
)

// Origin describes who caused a buffer modification.
type Origin int

const (
	OriginUser  Origin = iota // typed/programmatic edit by the host user
	OriginFixer               // edit applied by the fixer itself
)

// Event is the structure passed through the event bus.
type Event struct {
	Type Type
	Data interface{}
}

// BufferModifiedData contains info about a buffer change.
type BufferModifiedData struct {
	BufferID string
	Origin   Origin
}

// BufferSavedData contains info about the saved buffer.
type BufferSavedData struct {
	BufferID string
	FilePath string
}

// FixStartedData marks the beginning of a fix run.
type FixStartedData struct {
	BufferID string
	Auto     bool // true when triggered by a save event
}

// FixAppliedData carries the edit that was applied.
type FixAppliedData struct {
	BufferID  string
	Edit      patch.Edit
	Remaining int // violations the formatter reported but could not fix
}

// FixFailedData carries the failure of a fix run.
type FixFailedData struct {
	BufferID string
	Auto     bool
	Err      error
}
