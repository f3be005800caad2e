package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/tbxark/viewagent/agent"
	"github.com/tbxark/viewagent/config"
	"github.com/tbxark/viewagent/render"
)

func newChatModel(ctx context.Context, c *config.Config) (model.ToolCallingChatModel, error) {
	if c.APIKey == "" {
		return nil, errors.New("api_key is not configured (set VIEWAGENT_API_KEY)")
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  c.APIKey,
		Model:   c.Model,
		BaseURL: c.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return cm, nil
}

func newPipeline(cm model.ToolCallingChatModel, c *config.Config, renderers render.Registry) (*agent.Pipeline, error) {
	if c.UseTools {
		return agent.NewToolBasedPipeline(cm, renderers, c.Orchestration)
	}
	return agent.NewPipeline(agent.NewChatModelCollaborator(cm), renderers, c.Orchestration)
}

// newSnapshotCache returns the configured session backend and a function
// releasing it.
func newSnapshotCache(ctx context.Context, c config.StoreConfig) (agent.Cache[agent.Snapshot], func() error, error) {
	noop := func() error { return nil }
	switch c.Driver {
	case config.DriverRedis:
		client, err := agent.DialRedis(ctx, c.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Using redis session store", "addr", c.RedisAddr)
		return agent.NewRedisCache[agent.Snapshot](client, c.RedisPrefix, 0), client.Close, nil
	case config.DriverSQLite:
		cache, err := agent.OpenSQLiteCache[agent.Snapshot](ctx, c.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Using sqlite session store", "path", c.SQLitePath)
		return cache, cache.Close, nil
	default:
		return agent.NewMemoryCache[agent.Snapshot](), noop, nil
	}
}

func newManager(ctx context.Context, c *config.Config, renderers render.Registry) (*agent.Manager, model.ToolCallingChatModel, func() error, error) {
	cm, err := newChatModel(ctx, c)
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := newPipeline(cm, c, renderers)
	if err != nil {
		return nil, nil, nil, err
	}
	cache, closeCache, err := newSnapshotCache(ctx, c.Store)
	if err != nil {
		return nil, nil, nil, err
	}
	return agent.NewManager(p, agent.WithSnapshotCache(cache)), cm, closeCache, nil
}
