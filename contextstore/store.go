package contextstore

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tbxark/viewagent/types"
)

// Store holds the UserContext of one session.
type Store struct {
	mu  sync.RWMutex
	ctx types.UserContext
}

func New() *Store {
	return &Store{ctx: types.NewUserContext()}
}

// Merge folds update into the held context and returns the result.
// careerStage is last-write-wins, list fields are appended without
// duplicates, and preferences are applied as an RFC 7386 merge patch.
// The held context is left unchanged on error.
func (s *Store) Merge(update types.ContextUpdate) (types.UserContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := Apply(s.ctx, update)
	if err != nil {
		return s.ctx.Clone(), err
	}
	s.ctx = next
	return next.Clone(), nil
}

func (s *Store) Snapshot() types.UserContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx.Clone()
}

func (s *Store) Reset() {
	s.mu.Lock()
	s.ctx = types.NewUserContext()
	s.mu.Unlock()
}

func (s *Store) Restore(uc types.UserContext) {
	s.mu.Lock()
	s.ctx = uc.Clone()
	s.mu.Unlock()
}

// Apply is the pure form of Merge.
func Apply(current types.UserContext, update types.ContextUpdate) (types.UserContext, error) {
	next := current.Clone()
	if update.CareerStage != nil {
		stage := *update.CareerStage
		next.CareerStage = &stage
	}
	next.Goals = appendUnique(next.Goals, update.Goals...)
	next.Skills = appendUnique(next.Skills, update.Skills...)
	next.Experience = appendUnique(next.Experience, update.Experience...)
	if len(update.Preferences) > 0 {
		prefs, err := mergePreferences(next.Preferences, update.Preferences)
		if err != nil {
			return current, err
		}
		next.Preferences = prefs
	}
	return next, nil
}

func appendUnique(list []string, values ...string) []string {
	seen := make(map[string]struct{}, len(list))
	for _, v := range list {
		seen[v] = struct{}{}
	}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		list = append(list, v)
	}
	return list
}

func mergePreferences(current, patch map[string]any) (map[string]any, error) {
	if current == nil {
		current = map[string]any{}
	}
	doc, err := sonic.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("marshal preferences: %w", err)
	}
	patchDoc, err := sonic.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("marshal preferences patch: %w", err)
	}
	merged, err := jsonpatch.MergePatch(doc, patchDoc)
	if err != nil {
		return nil, fmt.Errorf("merge preferences: %w", err)
	}
	out := map[string]any{}
	if err := sonic.Unmarshal(merged, &out); err != nil {
		return nil, fmt.Errorf("unmarshal preferences: %w", err)
	}
	return out, nil
}
