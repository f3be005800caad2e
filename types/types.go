package types

import "time"

type ViewTypeID string

const (
	WelcomeCard       ViewTypeID = "WelcomeCard"
	InfoGatheringForm ViewTypeID = "InfoGatheringForm"
	CareerAssessment  ViewTypeID = "CareerAssessment"
	ActionPlan        ViewTypeID = "ActionPlan"
	DecisionMatrix    ViewTypeID = "DecisionMatrix"
	ProgressTracker   ViewTypeID = "ProgressTracker"
	ResourceList      ViewTypeID = "ResourceList"
	InterviewPrep     ViewTypeID = "InterviewPrep"
	ResumeBuilder     ViewTypeID = "ResumeBuilder"
	SkillGapAnalysis  ViewTypeID = "SkillGapAnalysis"
)

// ViewDescriptor is the normalized view selection for one turn.
type ViewDescriptor struct {
	Type  ViewTypeID     `json:"type"`
	Props map[string]any `json:"props"`
}

// Clone returns a deep copy of the descriptor. Props are expected to hold
// JSON-shaped values (maps, slices, primitives).
func (d ViewDescriptor) Clone() ViewDescriptor {
	return ViewDescriptor{
		Type:  d.Type,
		Props: cloneMap(d.Props),
	}
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type MessageKind string

const (
	KindText  MessageKind = "text"
	KindView  MessageKind = "view"
	KindError MessageKind = "error"
)

// Message is one entry of the conversation log. View is set for KindView,
// Text for KindText and KindError.
type Message struct {
	ID        string          `json:"id"`
	Role      Role            `json:"role"`
	Kind      MessageKind     `json:"kind"`
	Text      string          `json:"text,omitempty"`
	View      *ViewDescriptor `json:"view,omitempty"`
	CreatedAt time.Time       `json:"created_at"`

	// Rendered is the opaque handle returned by the host renderer. It is not
	// part of exported snapshots.
	Rendered any `json:"-"`
}

func (m Message) Clone() Message {
	out := m
	if m.View != nil {
		v := m.View.Clone()
		out.View = &v
	}
	return out
}

func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

// UserContext accumulates what the agent has learned about the user.
type UserContext struct {
	CareerStage *string        `json:"careerStage"`
	Goals       []string       `json:"goals"`
	Skills      []string       `json:"skills"`
	Experience  []string       `json:"experience"`
	Preferences map[string]any `json:"preferences"`
}

func NewUserContext() UserContext {
	return UserContext{
		Goals:       []string{},
		Skills:      []string{},
		Experience:  []string{},
		Preferences: map[string]any{},
	}
}

func (c UserContext) Clone() UserContext {
	out := UserContext{
		Goals:       append([]string{}, c.Goals...),
		Skills:      append([]string{}, c.Skills...),
		Experience:  append([]string{}, c.Experience...),
		Preferences: cloneMap(c.Preferences),
	}
	if out.Preferences == nil {
		out.Preferences = map[string]any{}
	}
	if c.CareerStage != nil {
		stage := *c.CareerStage
		out.CareerStage = &stage
	}
	return out
}

// ContextUpdate is a partial UserContext reported by the agent alongside a
// view selection.
type ContextUpdate struct {
	CareerStage *string        `json:"careerStage,omitempty" jsonschema:"description=The user's career stage when it became known"`
	Goals       []string       `json:"goals,omitempty" jsonschema:"description=New career goals mentioned by the user"`
	Skills      []string       `json:"skills,omitempty" jsonschema:"description=New skills mentioned by the user"`
	Experience  []string       `json:"experience,omitempty" jsonschema:"description=New experience entries mentioned by the user"`
	Preferences map[string]any `json:"preferences,omitempty" jsonschema:"description=Preference changes as a JSON merge patch"`
}

func (u ContextUpdate) IsEmpty() bool {
	return u.CareerStage == nil &&
		len(u.Goals) == 0 &&
		len(u.Skills) == 0 &&
		len(u.Experience) == 0 &&
		len(u.Preferences) == 0
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies JSON-shaped values. Other values are returned as is.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	case []string:
		return append([]string{}, val...)
	default:
		return v
	}
}
