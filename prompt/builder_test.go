package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/tbxark/viewagent/types"
	"github.com/tbxark/viewagent/views"
)

func sampleContext() types.UserContext {
	stage := "student"
	uc := types.NewUserContext()
	uc.CareerStage = &stage
	uc.Goals = []string{"first job"}
	uc.Preferences = map[string]any{"zeta": 1.0, "alpha": "x", "mid": map[string]any{"b": 1.0, "a": 2.0}}
	return uc
}

func sampleHistory() []types.Message {
	now := time.Unix(0, 0)
	return []types.Message{
		{Role: types.RoleAssistant, Kind: types.KindView, View: &types.ViewDescriptor{Type: types.WelcomeCard}, CreatedAt: now},
		{Role: types.RoleUser, Kind: types.KindText, Text: "I am a CS grad", CreatedAt: now},
		{Role: types.RoleAssistant, Kind: types.KindView, View: &types.ViewDescriptor{Type: types.InfoGatheringForm}, CreatedAt: now},
		{Role: types.RoleUser, Kind: types.KindText, Text: "backend\nengineering", CreatedAt: now},
		{Role: types.RoleAssistant, Kind: types.KindError, Text: "I encountered an error. Please try again.", CreatedAt: now},
	}
}

func TestBuildDeterministic(t *testing.T) {
	b := NewBuilder(views.DefaultRegistry())
	first, err := b.Build(sampleContext(), sampleHistory(), "help me")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := b.Build(sampleContext(), sampleHistory(), "help me")
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if again != first {
			t.Fatalf("prompt differs on run %d", i)
		}
	}
}

func TestBuildSections(t *testing.T) {
	reg := views.DefaultRegistry()
	out, err := NewBuilder(reg).Build(sampleContext(), sampleHistory(), "help me pick a job")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, schema := range reg.Schemas() {
		if !strings.Contains(out, schema.Shape()) {
			t.Errorf("prompt missing response format for %s", schema.TypeID)
		}
	}
	wants := []string{
		`"careerStage": "student"`,
		"user: I am a CS grad",
		"assistant: [view InfoGatheringForm]",
		"user: backend engineering",
		"assistant: (error) I encountered an error. Please try again.",
		"prefer InfoGatheringForm",
		"exactly one view",
		"# User's message:\nhelp me pick a job",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	alpha := strings.Index(out, `"alpha"`)
	mid := strings.Index(out, `"mid"`)
	zeta := strings.Index(out, `"zeta"`)
	if !(alpha < mid && mid < zeta) {
		t.Errorf("preferences keys not sorted: alpha=%d mid=%d zeta=%d", alpha, mid, zeta)
	}
}

func TestKeepLastTurns(t *testing.T) {
	history := sampleHistory()
	tests := []struct {
		n    int
		want int
	}{
		{n: 0, want: 0},
		{n: 1, want: 2},
		{n: 2, want: 4},
		{n: 10, want: 5},
	}
	for _, tt := range tests {
		if got := KeepLastTurns(history, tt.n); len(got) != tt.want {
			t.Errorf("KeepLastTurns(%d) kept %d messages, want %d", tt.n, len(got), tt.want)
		}
	}
}

func TestBuildHistoryDisabled(t *testing.T) {
	out, err := NewBuilder(views.DefaultRegistry(), WithHistoryTurns(0)).Build(types.NewUserContext(), sampleHistory(), "hi")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if strings.Contains(out, "# Recent conversation:") {
		t.Fatal("history section should be omitted")
	}
}
