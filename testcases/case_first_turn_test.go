package testcases

import (
	"context"
	"testing"

	"github.com/tbxark/viewagent/types"
)

// A vague opener should be answered with a view that gathers information.
func TestVagueOpenerGathersInformation(t *testing.T) {
	t.Parallel()
	conv := NewTestPipeline(t, false).NewConversation("vague")

	res, err := conv.Submit(context.Background(), "I'm not sure what to do with my career")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Err != nil {
		t.Fatalf("turn failed: %v", res.Err)
	}
	if res.Fallback {
		t.Errorf("agent reply was not accepted, fallback used")
	}
	switch res.Descriptor.Type {
	case types.InfoGatheringForm, types.CareerAssessment:
	default:
		t.Errorf("expected a form or an assessment, got %s", res.Descriptor.Type)
	}
	t.Logf("rendered:\n%v", res.Rendered)
}
