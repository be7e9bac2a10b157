package types

import "time"

// Trigger types recorded on executions.
const (
	TriggerPubSub = "pubsub"
	TriggerHTTP   = "http"
	TriggerCLI    = "cli"
)

// GeneratePlanRequest asks for a new weekly plan.
type GeneratePlanRequest struct {
	UserID string `json:"user_id"`
	// StartDate is YYYY-MM-DD. Empty means today (UTC).
	StartDate string `json:"start_date,omitempty"`
	// Seed makes the plan reproducible. Zero seeds from the clock.
	Seed             uint64 `json:"seed,omitempty"`
	IgnoreEquipment  bool   `json:"ignore_equipment,omitempty"`
	IgnoreDifficulty bool   `json:"ignore_difficulty,omitempty"`
	StrictSeverity   bool   `json:"strict_severity,omitempty"`
	TestRunID        string `json:"test_run_id,omitempty"`
}

// SessionCompletedEvent announces a finished workout with its pain report.
type SessionCompletedEvent struct {
	UserID       string    `json:"user_id"`
	SessionID    string    `json:"session_id"`
	CompletedAt  time.Time `json:"completed_at"`
	PainDuring   *int      `json:"pain_during,omitempty"`
	PainDelta24h *int      `json:"pain_delta_24h,omitempty"`
}

// PlanGeneratedEvent is published after a plan is stored.
type PlanGeneratedEvent struct {
	UserID         string    `json:"user_id"`
	PlanID         string    `json:"plan_id"`
	PhaseID        string    `json:"phase_id"`
	StartDate      string    `json:"start_date"`
	TrainingDays   int       `json:"training_days"`
	FatigueState   string    `json:"fatigue_state"`
	TrendLabel     string    `json:"trend_label"`
	ArtifactURIs   []string  `json:"artifact_uris,omitempty"`
	GeneratedAt    time.Time `json:"generated_at"`
	CandidateCount int       `json:"candidate_count"`
	ExecutionID    string    `json:"execution_id,omitempty"`
}

// PhaseTransition mirrors a phase machine transition on the wire.
type PhaseTransition struct {
	Kind   string `json:"kind"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

// PhaseUpdatedEvent is published whenever a user's phase changes.
type PhaseUpdatedEvent struct {
	UserID      string            `json:"user_id"`
	PhaseID     string            `json:"phase_id"`
	Overridden  bool              `json:"overridden"`
	Count       int               `json:"count"`
	Target      int               `json:"target"`
	Transitions []PhaseTransition `json:"transitions"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
