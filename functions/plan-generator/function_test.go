package plangenerator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripixel/fitglue-planner/pkg/bootstrap"
	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
	"github.com/ripixel/fitglue-planner/pkg/framework"
	"github.com/ripixel/fitglue-planner/pkg/testing/mocks"
	"github.com/ripixel/fitglue-planner/pkg/types"
)

type harness struct {
	mu       sync.Mutex
	statuses []types.ExecutionStatus
	plans    []*types.PlanRecord
	pub      *mocks.MockPublisher
	db       *mocks.MockDatabase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	var rows []catalog.RawExercise
	data, err := os.ReadFile("../../pkg/planner/testdata/catalog.json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &rows))

	h := &harness{pub: &mocks.MockPublisher{}}
	h.db = &mocks.MockDatabase{
		SetExecutionFunc: func(ctx context.Context, record *types.ExecutionRecord) error {
			h.addStatus(record.Status)
			return nil
		},
		UpdateExecutionFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			if s, ok := data["status"].(int32); ok {
				h.addStatus(types.ExecutionStatus(s))
			}
			return nil
		},
		GetExercisesFunc: func(ctx context.Context) ([]catalog.RawExercise, error) {
			return rows, nil
		},
		GetUserProfileFunc: func(ctx context.Context, userID string) (*profile.UserProfile, error) {
			return &profile.UserProfile{
				UserID:          userID,
				Experience:      profile.ExperienceRegular,
				SessionsPerWeek: 3,
				TargetMinutes:   25,
			}, nil
		},
		SetWeeklyPlanFunc: func(ctx context.Context, record *types.PlanRecord) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.plans = append(h.plans, record)
			return nil
		},
	}

	svc = &bootstrap.Service{
		DB:  h.db,
		Pub: h.pub,
		Config: &bootstrap.Config{
			ProjectID:         "test-project",
			MinSafeCandidates: bootstrap.DefaultMinSafeCandidates,
		},
	}
	t.Cleanup(func() { svc = nil })
	return h
}

func (h *harness) addStatus(s types.ExecutionStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, s)
}

func pubsubEvent(t *testing.T, v interface{}) event.Event {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)

	psMsg := types.PubSubMessage{}
	psMsg.Message.Data = data

	e := event.New()
	e.SetID("msg-1")
	e.SetType(framework.PubSubEventType)
	e.SetSource("//pubsub.googleapis.com/projects/test-project/topics/topic-generate-plan")
	e.SetTime(time.Now())
	require.NoError(t, e.SetData(event.ApplicationJSON, psMsg))
	return e
}

func TestGeneratePlan(t *testing.T) {
	h := newHarness(t)

	err := GeneratePlan(context.Background(), pubsubEvent(t, types.GeneratePlanRequest{
		UserID:    "user-1",
		StartDate: "2026-05-04",
		Seed:      11,
	}))
	require.NoError(t, err)

	require.Len(t, h.plans, 1)
	assert.Equal(t, "user-1", h.plans[0].UserID)
	assert.Equal(t, 3, h.plans[0].Plan.TrainingDays())
	assert.Equal(t, []types.ExecutionStatus{
		types.ExecutionStatusPending,
		types.ExecutionStatusStarted,
		types.ExecutionStatusSuccess,
	}, h.statuses)
	require.Len(t, h.pub.Published, 1)
}

func TestGeneratePlan_RetryableFailure(t *testing.T) {
	h := newHarness(t)
	h.db.SetWeeklyPlanFunc = func(ctx context.Context, record *types.PlanRecord) error {
		return errors.New("unavailable")
	}

	err := GeneratePlan(context.Background(), pubsubEvent(t, types.GeneratePlanRequest{UserID: "user-1", Seed: 1}))
	require.Error(t, err, "storage failures are returned for redelivery")
	assert.Equal(t, types.ExecutionStatusFailed, h.statuses[len(h.statuses)-1])
	assert.Empty(t, h.pub.Published)
}

func TestGeneratePlan_PermanentFailureIsAcked(t *testing.T) {
	h := newHarness(t)
	h.db.GetBlacklistFunc = func(ctx context.Context, userID string) ([]string, error) {
		ids := make([]string, 0, 20)
		rows, _ := h.db.GetExercisesFunc(ctx)
		for _, r := range rows {
			ids = append(ids, r.ID)
		}
		return ids, nil
	}

	err := GeneratePlan(context.Background(), pubsubEvent(t, types.GeneratePlanRequest{UserID: "user-1"}))
	assert.NoError(t, err)
	assert.Equal(t, types.ExecutionStatusFailed, h.statuses[len(h.statuses)-1])
	assert.Empty(t, h.plans)
}

func TestGeneratePlanHTTP_BareRequest(t *testing.T) {
	h := newHarness(t)

	body := strings.NewReader(`{"user_id":"user-2","start_date":"2026-05-04","seed":5}`)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	GeneratePlanHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, h.plans, 1)
	assert.Equal(t, "user-2", h.plans[0].UserID)
}

func TestGeneratePlanHTTP_BadBody(t *testing.T) {
	newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not json"))
	rr := httptest.NewRecorder()

	GeneratePlanHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
