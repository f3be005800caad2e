package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/tbxark/viewagent/types"
)

const snapshotNamespace = "viewagent:session"

// Manager owns the conversations of many sessions. Sessions share nothing
// but the Pipeline, so turns of different sessions run in parallel.
type Manager struct {
	pipeline  *Pipeline
	snapshots *Store[Snapshot]

	mu       sync.Mutex
	sessions map[string]*Conversation
}

type ManagerOption func(*Manager)

// WithSnapshotCache persists a snapshot after every turn and reloads
// sessions that are not in memory.
func WithSnapshotCache(cache Cache[Snapshot]) ManagerOption {
	return func(m *Manager) {
		store := NewStore(cache, snapshotNamespace, SessionKeyFromContext)
		m.snapshots = &store
	}
}

func NewManager(p *Pipeline, opts ...ManagerOption) *Manager {
	m := &Manager{
		pipeline: p,
		sessions: map[string]*Conversation{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Create(ctx context.Context) (*Conversation, error) {
	conv := m.pipeline.NewConversation("")
	m.mu.Lock()
	m.sessions[conv.ID()] = conv
	m.mu.Unlock()
	if err := m.persist(ctx, conv); err != nil {
		return nil, err
	}
	slog.Debug("Session created", "session_id", conv.ID())
	return conv, nil
}

// Get returns the live conversation for id, restoring it from the snapshot
// cache when needed.
func (m *Manager) Get(ctx context.Context, id string) (*Conversation, error) {
	m.mu.Lock()
	conv, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		return conv, nil
	}
	if m.snapshots == nil || id == "" {
		return nil, fmt.Errorf("%w: %s", types.ErrSessionNotFound, id)
	}
	snap, found, err := m.snapshots.Get(WithSessionKey(ctx, id))
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", types.ErrSessionNotFound, id)
	}
	restored, err := m.pipeline.RestoreConversation(snap)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", id, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id]; ok {
		return existing, nil
	}
	m.sessions[id] = restored
	slog.Debug("Session restored", "session_id", id, "messages", len(snap.Log))
	return restored, nil
}

// Open returns session id, starting a new conversation under that id when
// it does not exist.
func (m *Manager) Open(ctx context.Context, id string) (*Conversation, error) {
	conv, err := m.Get(ctx, id)
	if err == nil || !errors.Is(err, types.ErrSessionNotFound) {
		return conv, err
	}
	fresh := m.pipeline.NewConversation(id)
	m.mu.Lock()
	if existing, ok := m.sessions[fresh.ID()]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.sessions[fresh.ID()] = fresh
	m.mu.Unlock()
	if err := m.persist(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// Submit runs a turn on session id and persists the result.
func (m *Manager) Submit(ctx context.Context, id, text string) (*TurnResult, error) {
	conv, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := conv.Submit(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := m.persist(context.WithoutCancel(ctx), conv); err != nil {
		slog.Warn("Failed to persist session", "session_id", id, "error", err)
	}
	return res, nil
}

// Import replaces session id with snap and persists it. The session is
// created when it does not exist; an invalid snapshot creates nothing.
func (m *Manager) Import(ctx context.Context, id string, snap Snapshot) (*Conversation, error) {
	if err := m.pipeline.CheckSnapshot(id, snap); err != nil {
		return nil, err
	}
	conv, err := m.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := conv.ImportState(snap); err != nil {
		return nil, err
	}
	if err := m.persist(ctx, conv); err != nil {
		return nil, err
	}
	slog.Debug("Session imported", "session_id", id, "messages", len(snap.Log))
	return conv, nil
}

func (m *Manager) Reset(ctx context.Context, id string) error {
	conv, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := conv.Reset(); err != nil {
		return err
	}
	return m.persist(ctx, conv)
}

func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	_, live := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if m.snapshots == nil {
		if !live {
			return fmt.Errorf("%w: %s", types.ErrSessionNotFound, id)
		}
		return nil
	}
	return m.snapshots.Del(WithSessionKey(ctx, id))
}

// Sessions lists the live session IDs, sorted.
func (m *Manager) Sessions() []string {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	sort.Strings(ids)
	return ids
}

func (m *Manager) Pipeline() *Pipeline {
	return m.pipeline
}

func (m *Manager) live(conv *Conversation) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[conv.ID()] == conv
}

// persist saves conv unless it was removed meanwhile. A Remove that lands
// during the write is honored by deleting the snapshot again.
func (m *Manager) persist(ctx context.Context, conv *Conversation) error {
	if m.snapshots == nil || !m.live(conv) {
		return nil
	}
	ctx = WithSessionKey(ctx, conv.ID())
	if err := m.snapshots.Set(ctx, conv.ExportState()); err != nil {
		return fmt.Errorf("save session %s: %w", conv.ID(), err)
	}
	if !m.live(conv) {
		return m.snapshots.Del(ctx)
	}
	return nil
}
