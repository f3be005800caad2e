package prompt

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/tbxark/viewagent/types"
	"github.com/tbxark/viewagent/views"
)

const DefaultHistoryTurns = 10

const preamble = `You are CareerForge, an adaptive AI career coach. Based on the user's input and context, you must dynamically decide which UI view to render.`

// Rules is the fixed rule set appended to every prompt.
var Rules = []string{
	"Respond with exactly one view selection.",
	"Choose the ONE view that best matches the user's immediate need and fill its props with realistic, helpful data.",
	"If information you need about the user is missing, prefer %s.",
	"Adapt to the user's career stage and goals.",
	"Output a single valid JSON object and nothing else: no prose, no markdown fences.",
	`You may add a "contextUpdate" key next to "component" and "props" with newly learned careerStage, goals, skills, experience or preferences.`,
}

type Builder struct {
	registry     *views.Registry
	historyTurns int
	fallback     types.ViewTypeID
}

type Option func(*Builder)

// WithHistoryTurns limits the history section to the last n user turns.
// n <= 0 omits history entirely.
func WithHistoryTurns(n int) Option {
	return func(b *Builder) {
		b.historyTurns = n
	}
}

func WithFallbackViewType(id types.ViewTypeID) Option {
	return func(b *Builder) {
		if id != "" {
			b.fallback = id
		}
	}
}

func NewBuilder(registry *views.Registry, opts ...Option) *Builder {
	b := &Builder{
		registry:     registry,
		historyTurns: DefaultHistoryTurns,
		fallback:     types.InfoGatheringForm,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build renders the decision prompt. It is a pure function of its inputs and
// the registry contents.
func (b *Builder) Build(uc types.UserContext, history []types.Message, userMessage string) (string, error) {
	contextJSON, err := sonic.ConfigStd.MarshalIndent(uc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal user context: %w", err)
	}
	schemas := b.registry.Schemas()
	sections := []string{
		preamble,
		fmt.Sprintf("# Current User Context:\n```json\n%s\n```", string(contextJSON)),
		formatCatalog(schemas),
		formatResponseFormats(schemas),
	}
	if s := formatHistory(KeepLastTurns(history, b.historyTurns)); s != "" {
		sections = append(sections, s)
	}
	sections = append(sections,
		formatRules(b.fallback),
		fmt.Sprintf("# User's message:\n%s", userMessage),
		`Respond with JSON only, no other text. Format: {"component":"ViewName","props":{...}}`,
	)
	return strings.Join(sections, "\n\n"), nil
}

func formatRules(fallback types.ViewTypeID) string {
	var sb strings.Builder
	sb.WriteString("# CRITICAL RULES:")
	for _, rule := range Rules {
		sb.WriteString("\n- ")
		if strings.Contains(rule, "%s") {
			rule = fmt.Sprintf(rule, fallback)
		}
		sb.WriteString(rule)
	}
	return sb.String()
}

// KeepLastTurns keeps the messages of the last n user turns. A turn starts at
// a user message and runs until the next one.
func KeepLastTurns(history []types.Message, n int) []types.Message {
	if n <= 0 {
		return nil
	}
	seen := 0
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != types.RoleUser {
			continue
		}
		seen++
		if seen == n {
			return history[i:]
		}
	}
	return history
}
