package firestore

import (
	shared "github.com/ripixel/fitglue-planner/pkg"
	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/fatigue"
	"github.com/ripixel/fitglue-planner/pkg/domain/phase"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
	"github.com/ripixel/fitglue-planner/pkg/domain/selection"
	"github.com/ripixel/fitglue-planner/pkg/types"
)

// PhaseStateDocID is the single document under users/{id}/phase_state.
const PhaseStateDocID = "current"

func (c *Client) Executions() *Collection[types.ExecutionRecord] {
	return &Collection[types.ExecutionRecord]{ref: c.fs.Collection(shared.CollectionExecutions)}
}

func (c *Client) Exercises() *Collection[catalog.RawExercise] {
	return &Collection[catalog.RawExercise]{ref: c.fs.Collection(shared.CollectionExercises), decode: FirestoreToRawExercise}
}

func (c *Client) Users() *Collection[*profile.UserProfile] {
	return &Collection[*profile.UserProfile]{ref: c.fs.Collection(shared.CollectionUsers), decode: FirestoreToUserProfile}
}

func (c *Client) Sessions(userID string) *Collection[fatigue.SessionRecord] {
	return &Collection[fatigue.SessionRecord]{
		ref:    c.fs.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionSessions),
		decode: FirestoreToSession,
	}
}

func (c *Client) ExerciseStats(userID string) *Collection[selection.ExerciseStats] {
	return &Collection[selection.ExerciseStats]{
		ref: c.fs.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionExerciseStats),
		decode: func(_ string, m map[string]interface{}) selection.ExerciseStats {
			return FirestoreToExerciseStats(m)
		},
	}
}

// Blacklist documents are keyed by exercise id; their contents are unused.
func (c *Client) Blacklist(userID string) *Collection[map[string]interface{}] {
	return &Collection[map[string]interface{}]{
		ref: c.fs.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionBlacklist),
	}
}

func (c *Client) PhaseState(userID string) *Document[phase.Record] {
	col := &Collection[phase.Record]{ref: c.fs.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionPhaseState)}
	return col.Doc(PhaseStateDocID)
}

func (c *Client) Plans(userID string) *Collection[types.PlanRecord] {
	return &Collection[types.PlanRecord]{ref: c.fs.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionPlans)}
}
