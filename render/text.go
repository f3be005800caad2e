package render

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tbxark/viewagent/types"
	"github.com/tbxark/viewagent/views"
)

var ErrNoOptions = errors.New("decision matrix has no options")

// TextRenderers returns plain-text renderers for every view in reg. The
// rendered handle is a string.
func TextRenderers(reg *views.Registry) Registry {
	out := Registry{}
	for _, id := range reg.Types() {
		out[id] = func(desc types.ViewDescriptor) (RenderedView, error) {
			props, err := reg.Decode(desc)
			if err != nil {
				return nil, err
			}
			return Text(props)
		}
	}
	return out
}

// JSONRenderers returns renderers that hand the descriptor itself back, for
// hosts that render on the client side.
func JSONRenderers(reg *views.Registry) Registry {
	out := Registry{}
	for _, id := range reg.Types() {
		out[id] = func(desc types.ViewDescriptor) (RenderedView, error) {
			return desc, nil
		}
	}
	return out
}

// Text renders typed props as plain text.
func Text(props views.Props) (string, error) {
	var sb strings.Builder
	switch p := props.(type) {
	case views.WelcomeCardProps:
		name := p.UserName
		if name == "" {
			name = "there"
		}
		fmt.Fprintf(&sb, "Welcome to CareerForge, %s!\n", name)
		sb.WriteString("Hi! I'm CareerForge, your AI career coach. Tell me where you are in your career and where you want to go.")
	case views.InfoGatheringFormProps:
		title := p.Title
		if title == "" {
			title = "Tell Me About Yourself"
		}
		sb.WriteString(title)
		for _, f := range p.Fields {
			marker := ""
			if f.Required {
				marker = " *"
			}
			fmt.Fprintf(&sb, "\n- %s%s", f.Label, marker)
			if len(f.Options) > 0 {
				fmt.Fprintf(&sb, " (%s)", strings.Join(f.Options, " / "))
			}
		}
	case views.CareerAssessmentProps:
		sb.WriteString(titled("Career Assessment", p.Category))
		for i, q := range p.Questions {
			fmt.Fprintf(&sb, "\n%d. %s", i+1, q.Question)
			for j, opt := range q.Options {
				fmt.Fprintf(&sb, "\n   %c) %s", 'a'+rune(j%26), opt)
			}
		}
	case views.ActionPlanProps:
		fmt.Fprintf(&sb, "Action Plan: %s", p.Goal)
		for i, step := range p.Steps {
			fmt.Fprintf(&sb, "\n%d. %s", i+1, step.Title)
			if step.Priority != "" {
				fmt.Fprintf(&sb, " [%s]", step.Priority)
			}
			if step.Timeframe != "" {
				fmt.Fprintf(&sb, " (%s)", step.Timeframe)
			}
			if step.Description != "" {
				fmt.Fprintf(&sb, "\n   %s", step.Description)
			}
		}
	case views.DecisionMatrixProps:
		ranked, err := RankOptions(p)
		if err != nil {
			return "", err
		}
		sb.WriteString("Decision Matrix")
		for i, r := range ranked {
			fmt.Fprintf(&sb, "\n%d. %s: %.1f", i+1, r.Option.Name, r.Total)
		}
		fmt.Fprintf(&sb, "\nBased on your criteria, %s looks like the best choice with a total score of %.1f.", ranked[0].Option.Name, ranked[0].Total)
	case views.ProgressTrackerProps:
		pct := math.Max(0, math.Min(100, p.PercentComplete))
		fmt.Fprintf(&sb, "Progress: %s\n%s %.0f%% Complete", p.Goal, progressBar(pct, 20), pct)
		for _, m := range p.Milestones {
			box := "[ ]"
			if m.Completed {
				box = "[x]"
			}
			fmt.Fprintf(&sb, "\n%s %s", box, m.Title)
			if m.Date != "" {
				fmt.Fprintf(&sb, " (%s)", m.Date)
			}
		}
	case views.ResourceListProps:
		sb.WriteString(titled("Resources", p.Category))
		for _, r := range p.Resources {
			fmt.Fprintf(&sb, "\n- %s", r.Title)
			if r.Type != "" {
				fmt.Fprintf(&sb, " [%s]", r.Type)
			}
			if r.URL != "" {
				fmt.Fprintf(&sb, " <%s>", r.URL)
			}
			if r.Description != "" {
				fmt.Fprintf(&sb, "\n  %s", r.Description)
			}
		}
	case views.InterviewPrepProps:
		sb.WriteString("Interview Prep")
		switch {
		case p.Role != "" && p.Company != "":
			fmt.Fprintf(&sb, ": %s at %s", p.Role, p.Company)
		case p.Role != "":
			fmt.Fprintf(&sb, ": %s", p.Role)
		case p.Company != "":
			fmt.Fprintf(&sb, ": %s", p.Company)
		}
		for i, q := range p.Questions {
			fmt.Fprintf(&sb, "\n%d. %s", i+1, q.Question)
			if q.Category != "" {
				fmt.Fprintf(&sb, " (%s)", q.Category)
			}
			for _, tip := range q.Tips {
				fmt.Fprintf(&sb, "\n   tip: %s", tip)
			}
		}
		sb.WriteString("\nUse the STAR method (Situation, Task, Action, Result).")
	case views.ResumeBuilderProps:
		sb.WriteString(titled("Resume Builder", p.TargetRole))
		for _, s := range p.Sections {
			title := s.Title
			if title == "" {
				title = capitalize(s.Type)
			}
			fmt.Fprintf(&sb, "\n## %s", title)
			if content := sectionContent(s.Content); content != "" {
				fmt.Fprintf(&sb, "\n%s", content)
			}
		}
	case views.SkillGapAnalysisProps:
		matched, missing, pct := SkillMatch(p)
		fmt.Fprintf(&sb, "Skill Gap Analysis: %s\n%d%% Match", p.TargetRole, pct)
		fmt.Fprintf(&sb, "\nSkills you have: %s", joinOrNone(matched))
		fmt.Fprintf(&sb, "\nSkills to develop: %s", joinOrNone(missing))
		for _, r := range p.Recommendations {
			fmt.Fprintf(&sb, "\n- %s", r.Skill)
			if r.Priority != "" {
				fmt.Fprintf(&sb, " [%s]", r.Priority)
			}
			if len(r.Resources) > 0 {
				fmt.Fprintf(&sb, ": %s", strings.Join(r.Resources, ", "))
			}
		}
	default:
		return "", fmt.Errorf("no text renderer for %T", props)
	}
	return sb.String(), nil
}

type RankedOption struct {
	Option views.DecisionOption
	Total  float64
}

// RankOptions scores every option as the weighted sum of its criterion
// scores, missing scores counting as 0 and missing weights as 1, and sorts
// them best first. Ties keep input order.
func RankOptions(p views.DecisionMatrixProps) ([]RankedOption, error) {
	if len(p.Options) == 0 {
		return nil, ErrNoOptions
	}
	ranked := make([]RankedOption, 0, len(p.Options))
	for _, opt := range p.Options {
		total := 0.0
		for _, c := range p.Criteria {
			weight := c.Weight
			if weight == 0 {
				weight = 1
			}
			total += p.Scores[opt.ID][c.Name] * weight
		}
		ranked = append(ranked, RankedOption{Option: opt, Total: total})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total > ranked[j].Total
	})
	return ranked, nil
}

// SkillMatch splits the required skills into those the user has and those
// missing, and returns the rounded match percentage.
func SkillMatch(p views.SkillGapAnalysisProps) (matched, missing []string, percent int) {
	have := make(map[string]struct{}, len(p.CurrentSkills))
	for _, s := range p.CurrentSkills {
		have[s] = struct{}{}
	}
	required := make(map[string]struct{}, len(p.RequiredSkills))
	for _, s := range p.RequiredSkills {
		required[s] = struct{}{}
		if _, ok := have[s]; !ok {
			missing = append(missing, s)
		}
	}
	for _, s := range p.CurrentSkills {
		if _, ok := required[s]; ok {
			matched = append(matched, s)
		}
	}
	if len(p.RequiredSkills) > 0 {
		percent = int(math.Round(float64(len(matched)) / float64(len(p.RequiredSkills)) * 100))
	}
	return matched, missing, percent
}

func titled(title, detail string) string {
	if detail == "" {
		return title
	}
	return title + ": " + detail
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func progressBar(pct float64, width int) string {
	filled := int(math.Round(pct / 100 * float64(width)))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func sectionContent(content any) string {
	switch c := content.(type) {
	case nil:
		return ""
	case string:
		return c
	case []any:
		lines := make([]string, 0, len(c))
		for _, item := range c {
			lines = append(lines, "- "+sectionContent(item))
		}
		return strings.Join(lines, "\n")
	case map[string]any:
		keys := make([]string, 0, len(c))
		for k := range c {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, sectionContent(c[k])))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(c)
	}
}
