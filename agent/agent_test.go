package agent

import (
	"context"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/viewagent/types"
)

func drain(t *testing.T, iter *adk.AsyncIterator[*adk.AgentEvent]) []*adk.AgentEvent {
	t.Helper()
	var events []*adk.AgentEvent
	for {
		event, ok := iter.Next()
		if !ok {
			return events
		}
		events = append(events, event)
	}
}

func TestViewAgentRun(t *testing.T) {
	m := NewManager(testPipeline(t, reply(planReply)))
	va := NewViewAgent("CareerForge", "Picks the next career view", m)
	runner := adk.NewRunner(context.Background(), adk.RunnerConfig{Agent: va})

	ctx := WithSessionKey(context.Background(), "adk")
	events := drain(t, runner.Run(ctx, []*schema.Message{
		schema.AssistantMessage("Welcome!", nil),
		schema.UserMessage("I want a plan"),
	}))
	if len(events) == 0 {
		t.Fatal("expected an event")
	}
	last := events[len(events)-1]
	if last.Err != nil {
		t.Fatalf("event error: %v", last.Err)
	}
	if last.Output == nil || last.Output.MessageOutput == nil {
		t.Fatalf("event carries no message: %+v", last)
	}
	msg, err := last.Output.MessageOutput.GetMessage()
	if err != nil {
		t.Fatalf("get message: %v", err)
	}
	if msg.Name != string(types.KindView) {
		t.Fatalf("message name = %q", msg.Name)
	}
	var desc types.ViewDescriptor
	if err := sonic.UnmarshalString(msg.Content, &desc); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if desc.Type != types.ActionPlan {
		t.Fatalf("view = %s", desc.Type)
	}
	if ids := m.Sessions(); len(ids) != 1 || ids[0] != "adk" {
		t.Fatalf("sessions = %v", ids)
	}
}

func TestViewAgentRunWithoutUserMessage(t *testing.T) {
	va := NewViewAgent("CareerForge", "", NewManager(testPipeline(t, reply(planReply))))
	events := drain(t, va.Run(context.Background(), &adk.AgentInput{
		Messages: []adk.Message{schema.AssistantMessage("hi", nil)},
	}))
	if len(events) != 1 || events[0].Err == nil {
		t.Fatalf("expected a single error event, got %+v", events)
	}
}

func TestLastUserInput(t *testing.T) {
	history := []*schema.Message{
		schema.UserMessage("first"),
		schema.AssistantMessage("reply", nil),
		schema.UserMessage("second"),
		schema.AssistantMessage("reply", nil),
	}
	got, ok := LastUserInput(history)
	if !ok || got != "second" {
		t.Fatalf("LastUserInput = %q, %v", got, ok)
	}
	if _, ok := LastUserInput(nil); ok {
		t.Fatal("expected no user input in empty history")
	}
}

func TestToSchemaMessage(t *testing.T) {
	msg, err := ToSchemaMessage(types.Message{Role: types.RoleAssistant, Kind: types.KindError, Text: ErrorNotice})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if msg.Role != schema.Assistant || msg.Content != ErrorNotice || msg.Name != string(types.KindError) {
		t.Fatalf("unexpected message: %+v", msg)
	}
}
