package shared

import (
	"context"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/fatigue"
	"github.com/ripixel/fitglue-planner/pkg/domain/phase"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
	"github.com/ripixel/fitglue-planner/pkg/domain/selection"
	"github.com/ripixel/fitglue-planner/pkg/types"
)

// --- Persistence Interfaces ---

type Database interface {
	SetExecution(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error

	// Upstream reads
	GetExercises(ctx context.Context) ([]catalog.RawExercise, error)
	GetUserProfile(ctx context.Context, userID string) (*profile.UserProfile, error)
	GetSessionsSince(ctx context.Context, userID string, since time.Time) ([]fatigue.SessionRecord, error)
	GetExerciseStats(ctx context.Context, userID string) (map[string]selection.ExerciseStats, error)
	GetBlacklist(ctx context.Context, userID string) ([]string, error)

	// Phase state; a nil record means the user has none yet
	GetPhaseState(ctx context.Context, userID string) (*phase.Record, error)
	SetPhaseState(ctx context.Context, userID string, record phase.Record) error

	// Plans
	SetWeeklyPlan(ctx context.Context, record *types.PlanRecord) error
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Write(ctx context.Context, bucket, object string, data []byte) error
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}
