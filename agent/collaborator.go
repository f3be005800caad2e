package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/viewagent/structured"
	"github.com/tbxark/viewagent/types"
)

// Collaborator is the external agent: it receives the decision prompt and
// returns its raw reply.
type Collaborator interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

type CollaboratorFunc func(ctx context.Context, prompt string) (string, error)

func (f CollaboratorFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ChatModelCollaborator sends the prompt as a single user message and returns
// the message content.
type ChatModelCollaborator struct {
	chatModel model.BaseChatModel
	opts      []model.Option
}

func NewChatModelCollaborator(chatModel model.BaseChatModel, opts ...model.Option) *ChatModelCollaborator {
	return &ChatModelCollaborator{chatModel: chatModel, opts: opts}
}

func (c *ChatModelCollaborator) Invoke(ctx context.Context, prompt string) (string, error) {
	resp, err := c.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)}, c.opts...)
	if err != nil {
		return "", fmt.Errorf("call model failed: %w", err)
	}
	if resp == nil {
		return "", errors.New("call model failed: empty response")
	}
	return resp.Content, nil
}

const (
	selectViewToolName        = "select_view"
	selectViewToolDescription = "Select the one UI view to show the user next, with its props and any newly learned user context."
)

// ViewSelection is the argument schema of the select_view tool. Its JSON form
// is what the interpreter expects from a plain text reply.
type ViewSelection struct {
	Component     string               `json:"component" jsonschema:"required,description=The view type to render"`
	Props         map[string]any       `json:"props" jsonschema:"required,description=Props of the view following its response format"`
	ContextUpdate *types.ContextUpdate `json:"contextUpdate,omitempty" jsonschema:"description=Newly learned facts about the user"`
}

// ToolCallingCollaborator forces the model to answer through the select_view
// tool and returns the raw tool arguments.
type ToolCallingCollaborator struct {
	chain *structured.Chain[string, ViewSelection]
}

func NewToolCallingCollaborator(chatModel model.ToolCallingChatModel) (*ToolCallingCollaborator, error) {
	chain, err := structured.NewChain[string, ViewSelection](
		chatModel,
		buildSelectViewPrompt,
		selectViewToolName,
		selectViewToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolCallingCollaborator{chain: chain}, nil
}

func (c *ToolCallingCollaborator) Invoke(ctx context.Context, prompt string) (string, error) {
	return c.chain.InvokeRaw(ctx, prompt)
}

func buildSelectViewPrompt(ctx context.Context, prompt string) ([]*schema.Message, error) {
	system := fmt.Sprintf("Answer by calling the '%s' tool exactly once. Its arguments are the JSON object described below.", selectViewToolName)
	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(prompt),
	}, nil
}

// FailbackCollaborator tries each collaborator in order and returns the first
// successful reply. It stops early once ctx is done.
type FailbackCollaborator struct {
	collaborators []Collaborator
}

func NewFailbackCollaborator(collaborators ...Collaborator) *FailbackCollaborator {
	return &FailbackCollaborator{collaborators: collaborators}
}

func (f *FailbackCollaborator) Invoke(ctx context.Context, prompt string) (string, error) {
	lastErr := errors.New("no collaborator configured")
	for _, c := range f.collaborators {
		reply, err := c.Invoke(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

// classifyError maps a failed agent call onto ErrTimeout, context.Canceled or
// ErrTransport.
func classifyError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, types.ErrTimeout), errors.Is(err, types.ErrTransport):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", types.ErrTimeout, err)
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("agent call cancelled: %w", context.Canceled)
	default:
		return fmt.Errorf("%w: %w", types.ErrTransport, err)
	}
}
