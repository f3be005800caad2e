package types

import (
	"fmt"
	"strings"
)

// Summary renders the message as a single line for prompt history.
func (m Message) Summary() string {
	switch m.Kind {
	case KindView:
		if m.View == nil {
			return fmt.Sprintf("%s: [view]", m.Role)
		}
		return fmt.Sprintf("%s: [view %s]", m.Role, m.View.Type)
	case KindError:
		return fmt.Sprintf("%s: (error) %s", m.Role, oneLine(m.Text))
	default:
		return fmt.Sprintf("%s: %s", m.Role, oneLine(m.Text))
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
