package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cloudwego/eino/callbacks"
	"github.com/tbxark/viewagent/contextstore"
	"github.com/tbxark/viewagent/render"
	"github.com/tbxark/viewagent/types"
	"github.com/tbxark/viewagent/views"
)

// Conversation is one session: its log, its UserContext and the turn state
// machine. Turns are serialized; a Submit while another is in flight is
// rejected with ErrTurnInProgress.
type Conversation struct {
	id   string
	p    *Pipeline
	busy atomic.Bool

	mu    sync.RWMutex
	state State
	log   []types.Message
	store *contextstore.Store
}

// NewConversation starts a session whose log holds the welcome view.
func (p *Pipeline) NewConversation(sessionID string) *Conversation {
	if sessionID == "" {
		sessionID = p.newID()
	}
	c := &Conversation{
		id:    sessionID,
		p:     p,
		state: StateIdle,
		store: contextstore.New(),
	}
	c.log = []types.Message{c.welcome()}
	return c
}

// RestoreConversation rebuilds a session from a snapshot.
func (p *Pipeline) RestoreConversation(snap Snapshot) (*Conversation, error) {
	if snap.SessionID == "" {
		snap.SessionID = p.newID()
	}
	c := &Conversation{
		id:    snap.SessionID,
		p:     p,
		state: StateIdle,
		store: contextstore.New(),
	}
	if err := c.ImportState(snap); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Conversation) welcome() types.Message {
	desc := types.ViewDescriptor{Type: types.WelcomeCard, Props: map[string]any{"userName": "there"}}
	msg := c.p.message(types.RoleAssistant, types.KindView, "", &desc)
	if view, err := c.p.renderer.Render(desc); err == nil {
		msg.Rendered = view
	}
	return msg
}

func (c *Conversation) ID() string {
	return c.id
}

func (c *Conversation) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Conversation) Messages() []types.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return types.CloneMessages(c.log)
}

func (c *Conversation) Context() types.UserContext {
	return c.store.Snapshot()
}

// Busy reports whether a turn is in flight.
func (c *Conversation) Busy() bool {
	return c.busy.Load()
}

// Submit runs one turn for text. Agent failures, fallbacks and render errors
// are reported through TurnResult; only ErrEmptyInput and ErrTurnInProgress
// are returned as errors.
func (c *Conversation) Submit(ctx context.Context, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, types.ErrEmptyInput
	}
	if !c.busy.CompareAndSwap(false, true) {
		return nil, types.ErrTurnInProgress
	}
	defer c.busy.Store(false)
	defer c.setState(StateIdle)

	ctx = callbacks.EnsureRunInfo(ctx, "ViewAgent", "Conversation")
	ctx = callbacks.OnStart(ctx, map[string]any{
		"session_id": c.id,
		"input":      text,
	})
	res := c.runTurn(ctx, text)
	if res.Err != nil {
		callbacks.OnError(ctx, res.Err)
	} else {
		callbacks.OnEnd(ctx, map[string]any{
			"session_id": c.id,
			"view":       res.Descriptor,
			"fallback":   res.Fallback,
		})
	}
	return res, nil
}

func (c *Conversation) runTurn(ctx context.Context, text string) *TurnResult {
	history := c.Messages()
	uc := c.store.Snapshot()

	user := c.p.message(types.RoleUser, types.KindText, text, nil)
	c.appendMessage(user)
	res := &TurnResult{User: user.Clone()}

	c.setState(StateAwaitingAgent)
	promptText, err := c.p.builder.Build(uc, history, text)
	if err != nil {
		return c.fail(res, fmt.Errorf("build prompt: %w", err))
	}
	slog.Debug("Requesting view selection", "session_id", c.id, "prompt_len", len(promptText))
	raw, err := c.p.invoke(ctx, promptText)
	if err != nil {
		return c.fail(res, err)
	}
	slog.Debug("Received agent reply", "session_id", c.id, "reply", raw)

	c.setState(StateInterpreting)
	interpreted := c.p.interpreter.Interpret(raw)
	if interpreted.Fallback {
		slog.Debug("Using fallback view", "session_id", c.id, "cause", interpreted.Err)
	}
	desc := interpreted.Descriptor
	res.Descriptor = &desc
	res.Fallback = interpreted.Fallback

	c.setState(StateRendering)
	var reply types.Message
	view, err := c.p.renderer.Render(desc)
	if err != nil {
		slog.Debug("Render failed", "session_id", c.id, "type", desc.Type, "error", err)
		reply = c.p.message(types.RoleAssistant, types.KindError, render.Notice(desc.Type), nil)
		res.Err = err
	} else {
		stored := desc.Clone()
		reply = c.p.message(types.RoleAssistant, types.KindView, "", &stored)
		reply.Rendered = view
		res.Rendered = view
	}

	// applied at most once per turn, and only for an accepted view
	if !interpreted.Fallback && interpreted.Update != nil {
		if _, mErr := c.store.Merge(*interpreted.Update); mErr != nil {
			slog.Warn("Discarding context update", "session_id", c.id, "error", mErr)
		}
	}
	c.appendMessage(reply)
	res.Reply = reply.Clone()
	res.Context = c.store.Snapshot()
	return res
}

func (c *Conversation) fail(res *TurnResult, err error) *TurnResult {
	notice := ErrorNotice
	if errors.Is(err, context.Canceled) {
		notice = CancelledNotice
	}
	slog.Debug("Agent call failed", "session_id", c.id, "error", err)
	reply := c.p.message(types.RoleAssistant, types.KindError, notice, nil)
	c.appendMessage(reply)
	res.Reply = reply.Clone()
	res.Err = err
	res.Context = c.store.Snapshot()
	return res
}

func (c *Conversation) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Conversation) appendMessage(m types.Message) {
	c.mu.Lock()
	c.log = append(c.log, m)
	c.mu.Unlock()
}

// Reset clears the context and the log and shows the welcome view again.
func (c *Conversation) Reset() error {
	if !c.busy.CompareAndSwap(false, true) {
		return types.ErrTurnInProgress
	}
	defer c.busy.Store(false)
	c.store.Reset()
	welcome := c.welcome()
	c.mu.Lock()
	c.log = []types.Message{welcome}
	c.state = StateIdle
	c.mu.Unlock()
	return nil
}

// ExportState returns a snapshot of the conversation. Render handles are not
// included.
func (c *Conversation) ExportState() Snapshot {
	log := c.Messages()
	for i := range log {
		log[i].Rendered = nil
	}
	return Snapshot{
		Version:   SnapshotVersion,
		SessionID: c.id,
		Context:   c.store.Snapshot(),
		Log:       log,
		Timestamp: c.p.now(),
	}
}

// CheckSnapshot reports whether snap can be imported into session id.
func (p *Pipeline) CheckSnapshot(id string, snap Snapshot) error {
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %q", types.ErrInvalidSnapshot, snap.Version)
	}
	if snap.SessionID != "" && snap.SessionID != id {
		return fmt.Errorf("%w: belongs to session %s, not %s", types.ErrInvalidSnapshot, snap.SessionID, id)
	}
	for _, m := range snap.Log {
		if m.Kind != types.KindView || m.View == nil {
			continue
		}
		if err := p.registry.Validate(*m.View, views.AllowUnknownProps()); err != nil {
			return fmt.Errorf("%w: message %s: %w", types.ErrInvalidSnapshot, m.ID, err)
		}
	}
	return nil
}

// ImportState replaces the conversation state with snap. View messages are
// rendered again on a best-effort basis.
func (c *Conversation) ImportState(snap Snapshot) error {
	if err := c.p.CheckSnapshot(c.id, snap); err != nil {
		return err
	}
	if !c.busy.CompareAndSwap(false, true) {
		return types.ErrTurnInProgress
	}
	defer c.busy.Store(false)

	log := types.CloneMessages(snap.Log)
	for i := range log {
		if log[i].Kind != types.KindView || log[i].View == nil {
			continue
		}
		if view, err := c.p.renderer.Render(*log[i].View); err == nil {
			log[i].Rendered = view
		}
	}
	c.store.Restore(snap.Context)
	c.mu.Lock()
	c.log = log
	c.state = StateIdle
	c.mu.Unlock()
	return nil
}
