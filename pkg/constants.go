package shared

const (
	ProjectID = "fitglue-project" // Overridden by GOOGLE_CLOUD_PROJECT

	TopicGeneratePlan     = "topic-generate-plan"
	TopicSessionCompleted = "topic-session-completed"
	TopicPlanGenerated    = "topic-plan-generated"
	TopicPhaseUpdated     = "topic-phase-updated"

	CollectionUsers         = "users"
	CollectionExercises     = "exercises"
	CollectionSessions      = "sessions"
	CollectionExerciseStats = "exercise_stats"
	CollectionBlacklist     = "blacklist"
	CollectionPhaseState    = "phase_state"
	CollectionPlans         = "plans"
	CollectionExecutions    = "executions"

	EventSourcePlanner     = "/plan-generator"
	EventSourceProgression = "/progression"

	EventTypePlanGenerated = "com.fitglue.plan.generated"
	EventTypePhaseUpdated  = "com.fitglue.phase.updated"
)
