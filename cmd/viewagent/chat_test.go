package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/tbxark/viewagent/agent"
	"github.com/tbxark/viewagent/command"
	"github.com/tbxark/viewagent/config"
	"github.com/tbxark/viewagent/render"
	"github.com/tbxark/viewagent/views"
)

func TestChatLoop(t *testing.T) {
	collab := agent.CollaboratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return `{"component":"SkillGapAnalysis","props":{"targetRole":"Data Engineer","currentSkills":["sql"],"requiredSkills":["sql","spark"]},"contextUpdate":{"skills":["sql"]}}`, nil
	})
	p, err := agent.NewPipeline(collab, render.TextRenderers(views.DefaultRegistry()), config.DefaultOptions())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	manager := agent.NewManager(p)

	in := strings.NewReader("/help\nwhat am I missing?\n/context\n/reset\n/quit\nnever read\n")
	var out bytes.Buffer
	if err := chatLoop(context.Background(), manager, command.NewLocalParser(), "cli", in, &out); err != nil {
		t.Fatalf("chat loop: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Welcome to CareerForge",
		"/reset",
		"Skill Gap Analysis: Data Engineer",
		`"sql"`,
		"Goodbye!",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "Welcome to CareerForge") != 2 {
		t.Errorf("expected welcome again after reset:\n%s", got)
	}
	conv, err := manager.Get(context.Background(), "cli")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n := len(conv.Messages()); n != 1 {
		t.Fatalf("expected a fresh log after reset, got %d messages", n)
	}
}

func TestChatLoopEOF(t *testing.T) {
	p, err := agent.NewPipeline(agent.CollaboratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", nil
	}), render.TextRenderers(views.DefaultRegistry()), config.DefaultOptions())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	var out bytes.Buffer
	if err := chatLoop(context.Background(), agent.NewManager(p), command.NewLocalParser(), "eof", strings.NewReader(""), &out); err != nil {
		t.Fatalf("chat loop: %v", err)
	}
}
