// Package testcases holds end-to-end scenarios against a real model. They
// only run with VIEWAGENT_RUN_LIVE_TESTS=1 and a config.json at the module
// root.
package testcases

import (
	"context"
	"os"
	"testing"

	"github.com/cloudwego/eino-ext/components/model/openai"

	"github.com/tbxark/viewagent/agent"
	"github.com/tbxark/viewagent/config"
	"github.com/tbxark/viewagent/render"
	"github.com/tbxark/viewagent/views"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	if os.Getenv("VIEWAGENT_RUN_LIVE_TESTS") != "1" {
		t.Skip("set VIEWAGENT_RUN_LIVE_TESTS=1 to run live LLM tests")
	}
	conf, err := config.Load("../config.json")
	if err != nil {
		t.Skipf("failed to load config: %v", err)
	}
	if conf.APIKey == "" {
		t.Skip("config.json api_key is empty")
	}
	return conf
}

func InitChatModel(t *testing.T) (*openai.ChatModel, *config.Config) {
	t.Helper()
	conf := loadConfig(t)
	chatModel, err := openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
		APIKey:  conf.APIKey,
		Model:   conf.Model,
		BaseURL: conf.BaseURL,
	})
	if err != nil {
		t.Fatalf("failed to init chat model: %v", err)
	}
	return chatModel, conf
}

// NewTestPipeline builds a text-rendering pipeline on the live model. With
// useTools the forced select_view tool call is tried first.
func NewTestPipeline(t *testing.T, useTools bool) *agent.Pipeline {
	t.Helper()
	chatModel, conf := InitChatModel(t)
	opts := conf.Orchestration
	if opts.AgentTimeoutMs < 60000 {
		opts.AgentTimeoutMs = 60000
	}
	renderers := render.TextRenderers(views.DefaultRegistry())
	var (
		p   *agent.Pipeline
		err error
	)
	if useTools {
		p, err = agent.NewToolBasedPipeline(chatModel, renderers, opts)
	} else {
		p, err = agent.NewPipeline(agent.NewChatModelCollaborator(chatModel), renderers, opts)
	}
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	return p
}
