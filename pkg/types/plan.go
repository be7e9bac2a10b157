package types

import (
	"strconv"
	"time"

	"github.com/ripixel/fitglue-planner/pkg/domain/schedule"
)

// PlanRecord is a stored weekly plan.
type PlanRecord struct {
	PlanID       string               `json:"plan_id" firestore:"plan_id"`
	UserID       string               `json:"user_id" firestore:"user_id"`
	CreatedAt    time.Time            `json:"created_at" firestore:"created_at"`
	PhaseID      string               `json:"phase_id" firestore:"phase_id"`
	FatigueState string               `json:"fatigue_state" firestore:"fatigue_state"`
	TrendLabel   string               `json:"trend_label" firestore:"trend_label"`
	// Seed is the decimal uint64 seed; Firestore has no unsigned 64-bit type.
	Seed         string               `json:"seed" firestore:"seed"`
	ArtifactURIs []string             `json:"artifact_uris,omitempty" firestore:"artifact_uris,omitempty"`
	Plan         *schedule.WeeklyPlan `json:"plan" firestore:"-"`
	// PlanJSON is the plan as stored in Firestore.
	PlanJSON string `json:"-" firestore:"plan_json"`
}

// SeedValue parses Seed back into the request seed that reproduces the plan.
func (r *PlanRecord) SeedValue() (uint64, error) {
	return strconv.ParseUint(r.Seed, 10, 64)
}
