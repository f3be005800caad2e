package prompt

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/tbxark/viewagent/types"
	"github.com/tbxark/viewagent/views"
)

func formatCatalog(schemas []views.ViewSchema) string {
	var buf strings.Builder
	buf.WriteString("# Available views and when to use them:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("View", "When to use", "Required props", "Optional props")
	for _, schema := range schemas {
		_ = table.Append(
			string(schema.TypeID),
			schema.Description,
			joinOrDash(schema.RequiredProps()),
			joinOrDash(schema.OptionalProps()),
		)
	}
	_ = table.Render()
	return buf.String()
}

// formatResponseFormats lists the exact shape of every view on its own line
// so it reaches the agent unwrapped.
func formatResponseFormats(schemas []views.ViewSchema) string {
	var sb strings.Builder
	sb.WriteString("# Response formats (keys ending in ? are optional):")
	for _, schema := range schemas {
		sb.WriteString("\n")
		sb.WriteString(schema.Shape())
	}
	return sb.String()
}

func formatHistory(history []types.Message) string {
	if len(history) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("# Recent conversation:")
	for _, m := range history {
		sb.WriteString("\n")
		sb.WriteString(m.Summary())
	}
	return sb.String()
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
