// Package mocks has function-field fakes for the shared interfaces. Unset
// functions return zero values.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/fatigue"
	"github.com/ripixel/fitglue-planner/pkg/domain/phase"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
	"github.com/ripixel/fitglue-planner/pkg/domain/selection"
	apperrors "github.com/ripixel/fitglue-planner/pkg/errors"
	"github.com/ripixel/fitglue-planner/pkg/types"
)

// --- Mock Database ---
type MockDatabase struct {
	SetExecutionFunc    func(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecutionFunc func(ctx context.Context, id string, data map[string]interface{}) error

	GetExercisesFunc     func(ctx context.Context) ([]catalog.RawExercise, error)
	GetUserProfileFunc   func(ctx context.Context, userID string) (*profile.UserProfile, error)
	GetSessionsSinceFunc func(ctx context.Context, userID string, since time.Time) ([]fatigue.SessionRecord, error)
	GetExerciseStatsFunc func(ctx context.Context, userID string) (map[string]selection.ExerciseStats, error)
	GetBlacklistFunc     func(ctx context.Context, userID string) ([]string, error)

	GetPhaseStateFunc func(ctx context.Context, userID string) (*phase.Record, error)
	SetPhaseStateFunc func(ctx context.Context, userID string, record phase.Record) error

	SetWeeklyPlanFunc func(ctx context.Context, record *types.PlanRecord) error
}

func (m *MockDatabase) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	if m.SetExecutionFunc != nil {
		return m.SetExecutionFunc(ctx, record)
	}
	return nil
}

func (m *MockDatabase) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	if m.UpdateExecutionFunc != nil {
		return m.UpdateExecutionFunc(ctx, id, data)
	}
	return nil
}

func (m *MockDatabase) GetExercises(ctx context.Context) ([]catalog.RawExercise, error) {
	if m.GetExercisesFunc != nil {
		return m.GetExercisesFunc(ctx)
	}
	return nil, nil
}

func (m *MockDatabase) GetUserProfile(ctx context.Context, userID string) (*profile.UserProfile, error) {
	if m.GetUserProfileFunc != nil {
		return m.GetUserProfileFunc(ctx, userID)
	}
	return nil, apperrors.ErrUserNotFound.WithMetadata("user_id", userID)
}

func (m *MockDatabase) GetSessionsSince(ctx context.Context, userID string, since time.Time) ([]fatigue.SessionRecord, error) {
	if m.GetSessionsSinceFunc != nil {
		return m.GetSessionsSinceFunc(ctx, userID, since)
	}
	return nil, nil
}

func (m *MockDatabase) GetExerciseStats(ctx context.Context, userID string) (map[string]selection.ExerciseStats, error) {
	if m.GetExerciseStatsFunc != nil {
		return m.GetExerciseStatsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockDatabase) GetBlacklist(ctx context.Context, userID string) ([]string, error) {
	if m.GetBlacklistFunc != nil {
		return m.GetBlacklistFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockDatabase) GetPhaseState(ctx context.Context, userID string) (*phase.Record, error) {
	if m.GetPhaseStateFunc != nil {
		return m.GetPhaseStateFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockDatabase) SetPhaseState(ctx context.Context, userID string, record phase.Record) error {
	if m.SetPhaseStateFunc != nil {
		return m.SetPhaseStateFunc(ctx, userID, record)
	}
	return nil
}

func (m *MockDatabase) SetWeeklyPlan(ctx context.Context, record *types.PlanRecord) error {
	if m.SetWeeklyPlanFunc != nil {
		return m.SetWeeklyPlanFunc(ctx, record)
	}
	return nil
}

// --- Mock Publisher ---

// PublishedEvent is one captured publish.
type PublishedEvent struct {
	Topic string
	Event event.Event
}

type MockPublisher struct {
	PublishCloudEventFunc func(ctx context.Context, topic string, e event.Event) (string, error)

	mu        sync.Mutex
	Published []PublishedEvent
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	m.mu.Lock()
	m.Published = append(m.Published, PublishedEvent{Topic: topic, Event: e})
	m.mu.Unlock()
	if m.PublishCloudEventFunc != nil {
		return m.PublishCloudEventFunc(ctx, topic, e)
	}
	return "msg-id", nil
}

// --- Mock BlobStore ---

type MockBlobStore struct {
	WriteFunc func(ctx context.Context, bucket, object string, data []byte) error
	ReadFunc  func(ctx context.Context, bucket, object string) ([]byte, error)

	mu      sync.Mutex
	Written map[string][]byte
}

func (m *MockBlobStore) Write(ctx context.Context, bucket, object string, data []byte) error {
	m.mu.Lock()
	if m.Written == nil {
		m.Written = make(map[string][]byte)
	}
	m.Written[bucket+"/"+object] = data
	m.mu.Unlock()
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, bucket, object, data)
	}
	return nil
}

func (m *MockBlobStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, bucket, object)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if data, ok := m.Written[bucket+"/"+object]; ok {
		return data, nil
	}
	return nil, apperrors.ErrStorageError.WithMessage("object not found")
}
