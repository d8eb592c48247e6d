// Package realtime wraps the bidirectional streaming session with the
// conversational AI model. The orchestrator consumes the Client interface;
// the websocket implementation lives in ws.go.
package realtime

import (
	"context"
	"encoding/json"

	"recruitai/interview-orchestrator/internal/models"
)

// EventKind discriminates the session events the orchestrator reacts to.
type EventKind string

const (
	// EventConversationUpdated carries an incremental transcript update
	// for one conversation item, optionally with an audio delta.
	EventConversationUpdated EventKind = "conversation.updated"
	// EventConversationInterrupted signals the user spoke over playback.
	EventConversationInterrupted EventKind = "conversation.interrupted"
	// EventError carries a transport or model error. Non-fatal: the
	// session continues.
	EventError EventKind = "error"
)

// Event is one typed occurrence on the session stream.
type Event struct {
	Kind       EventKind
	ItemID     string
	Role       models.Role
	Text       string
	AudioDelta []byte
	Err        error
}

// Tool describes a function the model may invoke.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ToolHandler processes one tool invocation. The returned value is sent
// back to the model as the tool output.
type ToolHandler func(ctx context.Context, args json.RawMessage) (interface{}, error)

// SessionConfig is pushed to the model via UpdateSession.
type SessionConfig struct {
	Instructions string
	Voice        string
}

// Client is the session contract. Tools must be registered before Connect;
// the greeting must not be sent before Connect returns.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect() error
	UpdateSession(ctx context.Context, cfg SessionConfig) error
	SendUserMessage(ctx context.Context, text string) error
	AppendInputAudio(data []byte) error
	AddTool(tool Tool, handler ToolHandler) error
	Events() <-chan Event
}

// Factory builds a fresh client for one session. Construction fails when
// the realtime credentials are missing.
type Factory func() (Client, error)
