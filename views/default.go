package views

import "sync"

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry returns the registry holding the ten career coaching
// views. It is built on first use and must not be mutated by callers.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		for _, schema := range DefaultSchemas() {
			if err := defaultRegistry.Register(schema); err != nil {
				panic(err)
			}
		}
	})
	return defaultRegistry
}

// DefaultSchemas returns fresh copies of the built-in view schemas in catalog
// order.
func DefaultSchemas() []ViewSchema {
	return []ViewSchema{
		SchemaFor(WelcomeCardProps{}, "Use ONLY for first interaction or when user is completely new"),
		SchemaFor(InfoGatheringFormProps{}, "Use when you need to collect structured information"),
		SchemaFor(CareerAssessmentProps{}, "Use when user needs to evaluate career fit or interests"),
		SchemaFor(ActionPlanProps{}, "Use when user has goals and needs concrete next steps"),
		SchemaFor(SkillGapAnalysisProps{}, "Use to identify skills needed for target role"),
		SchemaFor(ResourceListProps{}, "Use to provide curated resources"),
		SchemaFor(InterviewPrepProps{}, "Use for interview preparation"),
		SchemaFor(DecisionMatrixProps{}, "Use when user is choosing between multiple options"),
		SchemaFor(ProgressTrackerProps{}, "Use to show user's progress toward a goal"),
		SchemaFor(ResumeBuilderProps{}, "Use when helping with resume/CV"),
	}
}
