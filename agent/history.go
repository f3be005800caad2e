package agent

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/viewagent/types"
)

// ToSchemaMessage converts a log entry into an eino message. View messages
// carry the descriptor JSON as content.
func ToSchemaMessage(m types.Message) (*schema.Message, error) {
	role := schema.Assistant
	if m.Role == types.RoleUser {
		role = schema.User
	}
	content := m.Text
	if m.Kind == types.KindView && m.View != nil {
		data, err := sonic.MarshalString(m.View)
		if err != nil {
			return nil, fmt.Errorf("encode view %s: %w", m.View.Type, err)
		}
		content = data
	}
	return &schema.Message{
		Role:    role,
		Content: content,
		Name:    string(m.Kind),
	}, nil
}

func ToSchemaMessages(log []types.Message) ([]*schema.Message, error) {
	out := make([]*schema.Message, 0, len(log))
	for _, m := range log {
		msg, err := ToSchemaMessage(m)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

// LastUserInput returns the content of the last user message in history.
func LastUserInput(history []*schema.Message) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if m := history[i]; m != nil && m.Role == schema.User {
			return m.Content, true
		}
	}
	return "", false
}
