package command

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/viewagent/structured"
)

const (
	parseCommandToolName        = "parse_session_command"
	parseCommandToolDescription = "Decide whether the user's input is a session command: quit, reset, context or none."
)

type parseCommandInput struct {
	Intent Command `json:"intent" jsonschema:"required,enum=quit,enum=reset,enum=context,enum=none,description=The session command the user asked for"`
}

// ToolBasedParser recognizes commands phrased in natural language, such as
// "let's start from scratch".
type ToolBasedParser struct {
	chain *structured.Chain[Request, parseCommandInput]
}

func NewToolBasedParser(chatModel model.ToolCallingChatModel) (*ToolBasedParser, error) {
	chain, err := structured.NewChain[Request, parseCommandInput](
		chatModel,
		buildParseCommandPrompt,
		parseCommandToolName,
		parseCommandToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedParser{chain: chain}, nil
}

func (p *ToolBasedParser) ParseCommand(ctx context.Context, req Request) (Command, error) {
	result, err := p.chain.Invoke(ctx, req)
	if err != nil {
		return None, err
	}
	switch result.Intent {
	case Quit, Reset, Context, None:
		return result.Intent, nil
	case "":
		return None, fmt.Errorf("empty intent returned by %s", parseCommandToolName)
	default:
		return None, fmt.Errorf("unexpected intent %q returned by %s", result.Intent, parseCommandToolName)
	}
}

func buildParseCommandPrompt(ctx context.Context, req Request) ([]*schema.Message, error) {
	systemPrompt := fmt.Sprintf(`You watch a career coaching chat and decide whether the user's latest input is a command for the chat session itself rather than a message for the coach.

Choose one intent:
- quit: the user clearly wants to leave the chat (e.g. "I'm done, bye", "close this").
- reset: the user wants to forget everything and start over (e.g. "start from scratch", "forget what I told you").
- context: the user asks what the assistant currently knows about them.
- none: anything else, including every answer to the coach's questions.

When in doubt choose none.

Call the '%s' tool with the result.`, parseCommandToolName)

	user := "# User's input:\n" + req.Input
	if req.LastReply != "" {
		user = "# Assistant's last reply:\n" + req.LastReply + "\n\n" + user
	}
	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(user),
	}, nil
}
