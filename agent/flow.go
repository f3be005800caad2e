package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/google/uuid"
	"github.com/tbxark/viewagent/config"
	"github.com/tbxark/viewagent/interpret"
	"github.com/tbxark/viewagent/prompt"
	"github.com/tbxark/viewagent/render"
	"github.com/tbxark/viewagent/types"
	"github.com/tbxark/viewagent/views"
)

// Pipeline holds the stateless parts of a turn. One Pipeline can serve any
// number of conversations.
type Pipeline struct {
	registry     *views.Registry
	builder      PromptBuilder
	interpreter  ResponseInterpreter
	renderer     ViewRenderer
	collaborator Collaborator
	timeout      time.Duration
	now          func() time.Time
	newID        func() string
}

type PipelineOption func(*Pipeline)

// WithRegistry replaces the default view registry. The default prompt
// builder and interpreter are built on top of it.
func WithRegistry(reg *views.Registry) PipelineOption {
	return func(p *Pipeline) {
		p.registry = reg
	}
}

func WithPromptBuilder(b PromptBuilder) PipelineOption {
	return func(p *Pipeline) {
		p.builder = b
	}
}

func WithInterpreter(i ResponseInterpreter) PipelineOption {
	return func(p *Pipeline) {
		p.interpreter = i
	}
}

// WithRenderer replaces the dispatcher built from the render registry.
func WithRenderer(r ViewRenderer) PipelineOption {
	return func(p *Pipeline) {
		p.renderer = r
	}
}

func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		p.now = now
	}
}

func WithIDGenerator(newID func() string) PipelineOption {
	return func(p *Pipeline) {
		p.newID = newID
	}
}

func NewPipeline(
	collaborator Collaborator,
	renderers render.Registry,
	opts config.Options,
	extra ...PipelineOption,
) (*Pipeline, error) {
	if collaborator == nil {
		return nil, errors.New("collaborator is required")
	}
	if opts.AgentTimeoutMs <= 0 {
		return nil, fmt.Errorf("agent timeout must be positive, got %dms", opts.AgentTimeoutMs)
	}
	p := &Pipeline{
		registry:     views.DefaultRegistry(),
		collaborator: collaborator,
		timeout:      opts.AgentTimeout(),
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range extra {
		opt(p)
	}
	fallback := types.ViewTypeID(opts.FallbackViewType)
	if _, err := p.registry.Lookup(fallback); err != nil {
		return nil, fmt.Errorf("fallback view: %w", err)
	}
	if p.builder == nil {
		p.builder = prompt.NewBuilder(p.registry,
			prompt.WithHistoryTurns(opts.HistoryTurns),
			prompt.WithFallbackViewType(fallback),
		)
	}
	if p.interpreter == nil {
		p.interpreter = interpret.New(p.registry,
			interpret.WithStrictUnknownProps(opts.StrictUnknownProps),
			interpret.WithFallbackViewType(fallback),
		)
	}
	if p.renderer == nil {
		p.renderer = render.NewDispatcher(renderers)
	}
	return p, nil
}

// NewToolBasedPipeline prefers the forced select_view tool call and falls
// back to a plain completion when the model does not produce one.
func NewToolBasedPipeline(
	chatModel model.ToolCallingChatModel,
	renderers render.Registry,
	opts config.Options,
	extra ...PipelineOption,
) (*Pipeline, error) {
	toolCollaborator, err := NewToolCallingCollaborator(chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool-based collaborator: %w", err)
	}
	return NewPipeline(
		NewFailbackCollaborator(toolCollaborator, NewChatModelCollaborator(chatModel)),
		renderers,
		opts,
		extra...,
	)
}

func (p *Pipeline) Registry() *views.Registry {
	return p.registry
}

// invoke calls the collaborator under the agent timeout. It returns as soon
// as ctx is done even if the collaborator ignores cancellation.
func (p *Pipeline) invoke(ctx context.Context, promptText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- reply{err: fmt.Errorf("recover from panic: %v", r)}
			}
		}()
		text, err := p.collaborator.Invoke(ctx, promptText)
		ch <- reply{text: text, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return "", classifyError(ctx, r.err)
		}
		return r.text, nil
	case <-ctx.Done():
		return "", classifyError(ctx, ctx.Err())
	}
}

func (p *Pipeline) message(role types.Role, kind types.MessageKind, text string, view *types.ViewDescriptor) types.Message {
	return types.Message{
		ID:        p.newID(),
		Role:      role,
		Kind:      kind,
		Text:      text,
		View:      view,
		CreatedAt: p.now(),
	}
}
