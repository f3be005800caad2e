package command

import "context"

// Command is a session-level instruction typed at the chat prompt instead of
// a message for the agent.
type Command string

const (
	Quit    Command = "quit"
	Reset   Command = "reset"
	Context Command = "context"
	Views   Command = "views"
	Export  Command = "export"
	Help    Command = "help"
	None    Command = "none"
)

// Request is what a parser sees: the raw input and the last assistant reply
// it answers.
type Request struct {
	Input     string
	LastReply string
}

type Parser interface {
	ParseCommand(ctx context.Context, req Request) (Command, error)
}

// Usage lists the commands understood by the local parser, one per line.
func Usage() string {
	return `/help      show this help
/context   show what the assistant knows about you
/views     list the available views
/export    print the session snapshot as JSON
/reset     start over with an empty profile
/quit      leave the chat`
}
