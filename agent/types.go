package agent

import (
	"time"

	"github.com/tbxark/viewagent/render"
	"github.com/tbxark/viewagent/types"
)

// State is the turn state of a conversation.
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingAgent State = "awaiting_agent"
	StateInterpreting  State = "interpreting"
	StateRendering     State = "rendering"
)

const (
	ErrorNotice     = "I encountered an error. Please try again."
	CancelledNotice = "The request was cancelled."
)

// TurnResult describes one completed turn. Err is set when the agent call
// failed or the chosen view could not be rendered; the conversation is
// consistent either way.
type TurnResult struct {
	User       types.Message        `json:"user"`
	Reply      types.Message        `json:"reply"`
	Descriptor *types.ViewDescriptor `json:"descriptor,omitempty"`
	Rendered   render.RenderedView  `json:"-"`
	Fallback   bool                 `json:"fallback"`
	Context    types.UserContext    `json:"context"`
	Err        error                `json:"-"`
}

const SnapshotVersion = "1.0"

// Snapshot is the serializable state of one conversation.
type Snapshot struct {
	Version   string            `json:"version"`
	SessionID string            `json:"session_id"`
	Context   types.UserContext `json:"context"`
	Log       []types.Message   `json:"log"`
	Timestamp time.Time         `json:"timestamp"`
}
