package agent

import (
	"github.com/tbxark/viewagent/interpret"
	"github.com/tbxark/viewagent/render"
	"github.com/tbxark/viewagent/types"
)

type PromptBuilder interface {
	Build(uc types.UserContext, history []types.Message, userMessage string) (string, error)
}

type ResponseInterpreter interface {
	Interpret(raw string) interpret.Result
}

type ViewRenderer interface {
	Render(desc types.ViewDescriptor) (render.RenderedView, error)
}
