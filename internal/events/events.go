// Package events carries the per-build progress protocol between the
// pipeline and its transports.
package events

import "github.com/ramonehamilton/commander-forge/internal/deck"

// Event types emitted over a build stream.
const (
	// TypeConnected is sent once when the stream opens, and once more
	// if provider selection fell back to a different model.
	TypeConnected = "connected"

	// TypeStageStarted marks the beginning of a pipeline stage.
	TypeStageStarted = "stageStarted"

	// TypeProgress reports intra-stage progress, 0-100.
	TypeProgress = "progress"

	// TypeStageFinished marks the end of a pipeline stage.
	TypeStageFinished = "stageFinished"

	// TypeComplete is the success terminal, carrying the finished deck.
	TypeComplete = "complete"

	// TypeError is the failure terminal, carrying a message.
	TypeError = "error"
)

// Event is one record on a build stream. Exactly one terminal event
// (complete or error) ends every stream; nothing follows it.
type Event struct {
	Type    string          `json:"type"`
	Stage   string          `json:"stage,omitempty"`
	Message string          `json:"message,omitempty"`
	Percent int             `json:"percent,omitempty"`
	Data    any             `json:"data,omitempty"`
	Result  *deck.FinalDeck `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Terminal reports whether the event ends its stream.
func (e Event) Terminal() bool {
	return e.Type == TypeComplete || e.Type == TypeError
}

// Connected builds the stream-opened event.
func Connected(message string) Event {
	return Event{Type: TypeConnected, Message: message}
}

// StageStarted builds a stage-opened event.
func StageStarted(stage, message string) Event {
	return Event{Type: TypeStageStarted, Stage: stage, Message: message}
}

// Progress builds an intra-stage progress event.
func Progress(stage string, percent int, message string) Event {
	return Event{Type: TypeProgress, Stage: stage, Percent: percent, Message: message}
}

// StageFinished builds a stage-closed event. Data carries the stage's
// structured result for callers that render per-stage output.
func StageFinished(stage, message string, data any) Event {
	return Event{Type: TypeStageFinished, Stage: stage, Message: message, Data: data}
}

// Complete builds the success terminal.
func Complete(result *deck.FinalDeck) Event {
	return Event{Type: TypeComplete, Result: result}
}

// Failure builds the error terminal.
func Failure(message string) Event {
	return Event{Type: TypeError, Error: message}
}
