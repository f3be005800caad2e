package views

import "github.com/tbxark/viewagent/types"

// Props is the closed set of typed prop records, one per view type.
type Props interface {
	ViewType() types.ViewTypeID
	sealed()
}

type WelcomeCardProps struct {
	UserName string `json:"userName,omitempty" jsonschema:"description=How to address the user"`
}

type FormField struct {
	Name        string   `json:"name" jsonschema:"required"`
	Label       string   `json:"label" jsonschema:"required"`
	Type        string   `json:"type,omitempty" jsonschema:"enum=text,enum=textarea,enum=select,enum=number"`
	Required    bool     `json:"required,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
}

type InfoGatheringFormProps struct {
	Fields []FormField `json:"fields" jsonschema:"description=Fields to collect from the user"`
	Title  string      `json:"title,omitempty"`
}

type AssessmentQuestion struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type CareerAssessmentProps struct {
	Questions []AssessmentQuestion `json:"questions"`
	Category  string               `json:"category,omitempty"`
}

type PlanStep struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty" jsonschema:"enum=high,enum=medium,enum=low"`
	Timeframe   string `json:"timeframe,omitempty"`
}

type ActionPlanProps struct {
	Goal  string     `json:"goal"`
	Steps []PlanStep `json:"steps"`
}

type DecisionOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DecisionCriterion struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight,omitempty"`
}

type DecisionMatrixProps struct {
	Options  []DecisionOption              `json:"options"`
	Criteria []DecisionCriterion           `json:"criteria"`
	Scores   map[string]map[string]float64 `json:"scores,omitempty" jsonschema:"description=Score per option id then criterion name"`
}

type Milestone struct {
	Title     string `json:"title"`
	Date      string `json:"date,omitempty"`
	Completed bool   `json:"completed,omitempty"`
}

type ProgressTrackerProps struct {
	Goal            string      `json:"goal"`
	Milestones      []Milestone `json:"milestones,omitempty"`
	PercentComplete float64     `json:"percentComplete,omitempty" jsonschema:"minimum=0,maximum=100"`
}

type Resource struct {
	Title       string `json:"title"`
	Type        string `json:"type,omitempty" jsonschema:"enum=article,enum=video,enum=course,enum=tool"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

type ResourceListProps struct {
	Resources []Resource `json:"resources"`
	Category  string     `json:"category,omitempty"`
}

type InterviewQuestion struct {
	Question string   `json:"question"`
	Category string   `json:"category,omitempty" jsonschema:"enum=behavioral,enum=technical,enum=situational,enum=company"`
	Tips     []string `json:"tips,omitempty"`
}

type InterviewPrepProps struct {
	Questions []InterviewQuestion `json:"questions"`
	Company   string              `json:"company,omitempty"`
	Role      string              `json:"role,omitempty"`
}

type ResumeSection struct {
	Type    string `json:"type" jsonschema:"enum=summary,enum=experience,enum=education,enum=skills"`
	Title   string `json:"title,omitempty"`
	Content any    `json:"content,omitempty"`
}

type ResumeBuilderProps struct {
	Sections   []ResumeSection `json:"sections"`
	TargetRole string          `json:"targetRole,omitempty"`
}

type SkillRecommendation struct {
	Skill     string   `json:"skill"`
	Priority  string   `json:"priority,omitempty" jsonschema:"enum=critical,enum=high,enum=medium,enum=low"`
	Resources []string `json:"resources,omitempty"`
}

type SkillGapAnalysisProps struct {
	TargetRole      string                `json:"targetRole"`
	CurrentSkills   []string              `json:"currentSkills"`
	RequiredSkills  []string              `json:"requiredSkills"`
	Recommendations []SkillRecommendation `json:"recommendations,omitempty"`
}

func (WelcomeCardProps) ViewType() types.ViewTypeID       { return types.WelcomeCard }
func (InfoGatheringFormProps) ViewType() types.ViewTypeID { return types.InfoGatheringForm }
func (CareerAssessmentProps) ViewType() types.ViewTypeID  { return types.CareerAssessment }
func (ActionPlanProps) ViewType() types.ViewTypeID        { return types.ActionPlan }
func (DecisionMatrixProps) ViewType() types.ViewTypeID    { return types.DecisionMatrix }
func (ProgressTrackerProps) ViewType() types.ViewTypeID   { return types.ProgressTracker }
func (ResourceListProps) ViewType() types.ViewTypeID      { return types.ResourceList }
func (InterviewPrepProps) ViewType() types.ViewTypeID     { return types.InterviewPrep }
func (ResumeBuilderProps) ViewType() types.ViewTypeID     { return types.ResumeBuilder }
func (SkillGapAnalysisProps) ViewType() types.ViewTypeID  { return types.SkillGapAnalysis }

func (WelcomeCardProps) sealed()       {}
func (InfoGatheringFormProps) sealed() {}
func (CareerAssessmentProps) sealed()  {}
func (ActionPlanProps) sealed()        {}
func (DecisionMatrixProps) sealed()    {}
func (ProgressTrackerProps) sealed()   {}
func (ResourceListProps) sealed()      {}
func (InterviewPrepProps) sealed()     {}
func (ResumeBuilderProps) sealed()     {}
func (SkillGapAnalysisProps) sealed()  {}
