package command

import (
	"context"
	"log/slog"
	"strings"
)

// LocalParser matches the whole input against keyword lists. A leading slash
// is optional.
type LocalParser struct {
	Keywords map[Command][]string
}

func NewLocalParser() *LocalParser {
	return &LocalParser{
		Keywords: map[Command][]string{
			Quit:    {"quit", "exit", "bye"},
			Reset:   {"reset", "new", "restart", "start over"},
			Context: {"context", "profile", "whoami"},
			Views:   {"views", "catalog"},
			Export:  {"export", "snapshot"},
			Help:    {"help", "?"},
		},
	}
}

var commandOrder = []Command{Quit, Reset, Context, Views, Export, Help}

func (p *LocalParser) ParseCommand(ctx context.Context, req Request) (Command, error) {
	normalized := strings.ToLower(strings.TrimSpace(req.Input))
	normalized = strings.TrimPrefix(normalized, "/")
	if normalized == "" {
		return None, nil
	}
	for _, cmd := range commandOrder {
		for _, keyword := range p.Keywords[cmd] {
			if normalized == keyword {
				return cmd, nil
			}
		}
	}
	return None, nil
}

// FailbackParser asks each parser in turn and returns the first command that
// is not None. Parser errors are logged and skipped.
type FailbackParser struct {
	parsers []Parser
}

func NewFailbackParser(parsers ...Parser) *FailbackParser {
	return &FailbackParser{parsers: parsers}
}

func (p *FailbackParser) ParseCommand(ctx context.Context, req Request) (Command, error) {
	var lastErr error
	for _, parser := range p.parsers {
		cmd, err := parser.ParseCommand(ctx, req)
		if err != nil {
			slog.Debug("Command parser failed", "error", err)
			lastErr = err
			continue
		}
		if cmd != None {
			return cmd, nil
		}
		lastErr = nil
	}
	return None, lastErr
}
