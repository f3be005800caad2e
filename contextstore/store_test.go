package contextstore

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tbxark/viewagent/types"
)

func strPtr(s string) *string { return &s }

func TestMergeRules(t *testing.T) {
	s := New()
	got, err := s.Merge(types.ContextUpdate{
		CareerStage: strPtr("student"),
		Goals:       []string{"first job", "first job"},
		Skills:      []string{"go", ""},
		Preferences: map[string]any{"remote": true, "location": map[string]any{"city": "Berlin"}},
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	got, err = s.Merge(types.ContextUpdate{
		CareerStage: strPtr("graduate"),
		Goals:       []string{"first job", "learn rust"},
		Skills:      []string{"sql"},
		Preferences: map[string]any{"remote": nil, "location": map[string]any{"country": "DE"}},
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	want := types.UserContext{
		CareerStage: strPtr("graduate"),
		Goals:       []string{"first job", "learn rust"},
		Skills:      []string{"go", "sql"},
		Experience:  []string{},
		Preferences: map[string]any{"location": map[string]any{"city": "Berlin", "country": "DE"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeIdempotent(t *testing.T) {
	updates := []types.ContextUpdate{
		{Goals: []string{"a", "b"}},
		{CareerStage: strPtr("mid")},
		{Preferences: map[string]any{"salary": 100.0, "tags": []any{"x"}}},
		{Skills: []string{"k8s"}, Experience: []string{"3y backend"}, Preferences: map[string]any{"salary": nil}},
	}
	for i, u := range updates {
		s := New()
		once, err := s.Merge(u)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		twice, err := s.Merge(u)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("case %d: merge not idempotent (-once +twice):\n%s", i, diff)
		}
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := New()
	if _, err := s.Merge(types.ContextUpdate{Goals: []string{"a"}, Preferences: map[string]any{"k": "v"}}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	snap := s.Snapshot()
	snap.Goals[0] = "mutated"
	snap.Preferences["k"] = "mutated"
	again := s.Snapshot()
	if again.Goals[0] != "a" || again.Preferences["k"] != "v" {
		t.Fatalf("snapshot aliases store state: %+v", again)
	}
}

func TestResetAndRestore(t *testing.T) {
	s := New()
	if _, err := s.Merge(types.ContextUpdate{Skills: []string{"go"}}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	saved := s.Snapshot()
	s.Reset()
	if diff := cmp.Diff(types.NewUserContext(), s.Snapshot()); diff != "" {
		t.Fatalf("reset mismatch:\n%s", diff)
	}
	s.Restore(saved)
	if diff := cmp.Diff(saved, s.Snapshot()); diff != "" {
		t.Fatalf("restore mismatch:\n%s", diff)
	}
}
