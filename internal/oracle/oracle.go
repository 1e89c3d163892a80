// Package oracle defines the LLM contract the build pipeline depends on,
// and the provider implementations behind it.
package oracle

import "context"

// Message roles understood by all providers.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one prompt message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Oracle is the two-method contract the pipeline depends on. Providers
// are interchangeable; choosing one is a configuration concern, never a
// pipeline concern.
type Oracle interface {
	// Complete sends the prompt messages and returns the raw model text.
	Complete(ctx context.Context, messages []Message) (string, error)

	// IsAvailable reports whether the provider can currently serve
	// completions. A false result is advisory: callers may still issue
	// calls and rely on per-call failure handling.
	IsAvailable(ctx context.Context) bool
}
