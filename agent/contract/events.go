package contract

// EventType enumerates the outbound streaming protocol. The presentation
// layer depends on exactly these four values.
type EventType string

const (
	EventStatus   EventType = "status"
	EventQuestion EventType = "question"
	EventText     EventType = "text"
	EventDone     EventType = "done"
)

// StreamEvent is one element of a turn's ordered event stream. `text`
// content is incremental and concatenates into the final answer; exactly one
// `done` terminates the stream.
type StreamEvent struct {
	Type    EventType `json:"type"`
	Content string    `json:"content"`
}

// EmitFunc delivers one event to the caller. It returns ErrStreamClosed once
// the caller has disconnected; the orchestrator then starts no further steps
// and emits nothing more.
type EmitFunc func(StreamEvent) error

// NopEmit discards events. Used when no caller is listening (tests, CLI).
func NopEmit(StreamEvent) error { return nil }
