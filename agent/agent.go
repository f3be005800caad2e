package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
)

var _ adk.Agent = (*ViewAgent)(nil)

// ViewAgent exposes a Manager as an eino ADK agent. The session is taken
// from WithSessionKey on the run context; each run submits the last user
// message and emits the assistant reply of that turn.
type ViewAgent struct {
	name        string
	description string
	manager     *Manager
}

func NewViewAgent(name, description string, manager *Manager) *ViewAgent {
	return &ViewAgent{
		name:        name,
		description: description,
		manager:     manager,
	}
}

func (a *ViewAgent) Name(ctx context.Context) string {
	return a.name
}

func (a *ViewAgent) Description(ctx context.Context) string {
	return a.description
}

func (a *ViewAgent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			e := recover()
			if e != nil {
				gen.Send(&adk.AgentEvent{
					Err: fmt.Errorf("recover from panic: %v", e),
				})
			}
			gen.Close()
		}()
		if input == nil || len(input.Messages) == 0 {
			gen.Send(&adk.AgentEvent{
				Err: errors.New("no messages in input"),
			})
			return
		}
		text, ok := LastUserInput(input.Messages)
		if !ok {
			gen.Send(&adk.AgentEvent{
				Err: errors.New("no user message in input"),
			})
			return
		}
		sessionID := sessionKeyOrDefault(ctx)
		if _, err := a.manager.Open(ctx, sessionID); err != nil {
			gen.Send(&adk.AgentEvent{
				Err: fmt.Errorf("open session failed: %w", err),
			})
			return
		}
		res, err := a.manager.Submit(ctx, sessionID, text)
		if err != nil {
			gen.Send(&adk.AgentEvent{
				Err: fmt.Errorf("submit turn failed: %w", err),
			})
			return
		}
		msg, err := ToSchemaMessage(res.Reply)
		if err != nil {
			gen.Send(&adk.AgentEvent{
				Err: err,
			})
			return
		}
		gen.Send(&adk.AgentEvent{
			Output: &adk.AgentOutput{
				MessageOutput: &adk.MessageVariant{
					IsStreaming: false,
					Message:     msg,
					Role:        schema.Assistant,
				},
			},
		})
	}()
	return iter
}
