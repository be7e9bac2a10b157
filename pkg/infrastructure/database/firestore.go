package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	cache "github.com/patrickmn/go-cache"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/fatigue"
	"github.com/ripixel/fitglue-planner/pkg/domain/phase"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
	"github.com/ripixel/fitglue-planner/pkg/domain/selection"
	apperrors "github.com/ripixel/fitglue-planner/pkg/errors"
	storage "github.com/ripixel/fitglue-planner/pkg/storage/firestore"
	"github.com/ripixel/fitglue-planner/pkg/types"
)

const (
	catalogCacheKey        = "catalog"
	DefaultCatalogCacheTTL = 10 * time.Minute
)

// FirestoreAdapter provides database operations using Firestore
// It wraps our typed storage client
type FirestoreAdapter struct {
	storage *storage.Client
	// catalog holds read-only upstream rows only.
	catalog *cache.Cache
}

func NewFirestoreAdapter(client *firestore.Client, catalogTTL time.Duration) *FirestoreAdapter {
	if catalogTTL <= 0 {
		catalogTTL = DefaultCatalogCacheTTL
	}
	return &FirestoreAdapter{
		storage: storage.NewClient(client),
		catalog: cache.New(catalogTTL, 2*catalogTTL),
	}
}

func (a *FirestoreAdapter) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	return a.storage.Executions().Doc(record.ExecutionID).Set(ctx, *record)
}

func (a *FirestoreAdapter) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	return a.storage.Executions().Doc(id).Update(ctx, data)
}

// --- Upstream reads ---

func (a *FirestoreAdapter) GetExercises(ctx context.Context) ([]catalog.RawExercise, error) {
	if cached, found := a.catalog.Get(catalogCacheKey); found {
		rows := cached.([]catalog.RawExercise)
		return append([]catalog.RawExercise(nil), rows...), nil
	}
	rows, err := a.storage.Exercises().All(ctx)
	if err != nil {
		return nil, err
	}
	a.catalog.SetDefault(catalogCacheKey, rows)
	return append([]catalog.RawExercise(nil), rows...), nil
}

// InvalidateCatalog drops the cached catalog.
func (a *FirestoreAdapter) InvalidateCatalog() {
	a.catalog.Delete(catalogCacheKey)
}

func (a *FirestoreAdapter) GetUserProfile(ctx context.Context, userID string) (*profile.UserProfile, error) {
	p, err := a.storage.Users().Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, apperrors.ErrUserNotFound.WithMetadata("user_id", userID)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (a *FirestoreAdapter) GetSessionsSince(ctx context.Context, userID string, since time.Time) ([]fatigue.SessionRecord, error) {
	return a.storage.Sessions(userID).Where(ctx, "completed_at", ">=", since)
}

func (a *FirestoreAdapter) GetExerciseStats(ctx context.Context, userID string) (map[string]selection.ExerciseStats, error) {
	return a.storage.ExerciseStats(userID).ByID(ctx)
}

func (a *FirestoreAdapter) GetBlacklist(ctx context.Context, userID string) ([]string, error) {
	return a.storage.Blacklist(userID).IDs(ctx)
}

// --- Phase state ---

func (a *FirestoreAdapter) GetPhaseState(ctx context.Context, userID string) (*phase.Record, error) {
	r, err := a.storage.PhaseState(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (a *FirestoreAdapter) SetPhaseState(ctx context.Context, userID string, record phase.Record) error {
	return a.storage.PhaseState(userID).Set(ctx, record)
}

// --- Plans ---

func (a *FirestoreAdapter) SetWeeklyPlan(ctx context.Context, record *types.PlanRecord) error {
	if record.Plan != nil {
		b, err := json.Marshal(record.Plan)
		if err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		record.PlanJSON = string(b)
	}
	return a.storage.Plans(record.UserID).Doc(record.PlanID).Set(ctx, *record)
}
