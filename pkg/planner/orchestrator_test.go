package planner

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shared "github.com/ripixel/fitglue-planner/pkg"
	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/clinical"
	"github.com/ripixel/fitglue-planner/pkg/domain/fatigue"
	"github.com/ripixel/fitglue-planner/pkg/domain/phase"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
	"github.com/ripixel/fitglue-planner/pkg/domain/selection"
	apperrors "github.com/ripixel/fitglue-planner/pkg/errors"
	"github.com/ripixel/fitglue-planner/pkg/metrics"
	"github.com/ripixel/fitglue-planner/pkg/testing/mocks"
	"github.com/ripixel/fitglue-planner/pkg/types"
)

// Monday
var now = time.Date(2026, 5, 4, 6, 0, 0, 0, time.UTC)

func loadJSON(t *testing.T, name string, v interface{}) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func fixtureInputs(t *testing.T) Inputs {
	t.Helper()
	var rows []catalog.RawExercise
	loadJSON(t, "catalog.json", &rows)
	var p profile.UserProfile
	loadJSON(t, "profile.json", &p)
	return Inputs{Catalog: rows, Profile: &p, Stats: map[string]selection.ExerciseStats{}}
}

type stored struct {
	mu     sync.Mutex
	plans  []*types.PlanRecord
	phases []phase.Record
}

func newDB(t *testing.T, in Inputs, st *stored) *mocks.MockDatabase {
	t.Helper()
	return &mocks.MockDatabase{
		GetExercisesFunc: func(ctx context.Context) ([]catalog.RawExercise, error) {
			return in.Catalog, nil
		},
		GetUserProfileFunc: func(ctx context.Context, userID string) (*profile.UserProfile, error) {
			return in.Profile, nil
		},
		GetSessionsSinceFunc: func(ctx context.Context, userID string, since time.Time) ([]fatigue.SessionRecord, error) {
			assert.Equal(t, utcDay(now).AddDate(0, 0, -fatigue.WindowDays), since)
			return in.History, nil
		},
		GetExerciseStatsFunc: func(ctx context.Context, userID string) (map[string]selection.ExerciseStats, error) {
			return in.Stats, nil
		},
		GetBlacklistFunc: func(ctx context.Context, userID string) ([]string, error) {
			return in.Blacklist, nil
		},
		GetPhaseStateFunc: func(ctx context.Context, userID string) (*phase.Record, error) {
			return in.Phase, nil
		},
		SetPhaseStateFunc: func(ctx context.Context, userID string, record phase.Record) error {
			st.mu.Lock()
			defer st.mu.Unlock()
			st.phases = append(st.phases, record)
			return nil
		},
		SetWeeklyPlanFunc: func(ctx context.Context, record *types.PlanRecord) error {
			st.mu.Lock()
			defer st.mu.Unlock()
			st.plans = append(st.plans, record)
			return nil
		},
	}
}

func newOrchestrator(db shared.Database, store shared.BlobStore, pub shared.Publisher, cfg Config) (*Orchestrator, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	cfg.Metrics = m
	o := NewOrchestrator(db, store, pub, cfg)
	o.now = func() time.Time { return now }
	return o, m
}

func TestGenerate_StoresAndPublishesPlan(t *testing.T) {
	in := fixtureInputs(t)
	st := &stored{}
	pub := &mocks.MockPublisher{}
	o, m := newOrchestrator(newDB(t, in, st), nil, pub, Config{})

	res, err := o.Generate(context.Background(), &types.GeneratePlanRequest{UserID: "user-1", Seed: 42}, "exec-1")
	require.NoError(t, err)

	require.Len(t, st.plans, 1)
	rec := st.plans[0]
	assert.Equal(t, res.Record.PlanID, rec.PlanID)
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, "42", rec.Seed)
	assert.Equal(t, phase.PhaseControl, rec.PhaseID)
	assert.Empty(t, rec.ArtifactURIs)

	plan := res.Plan.Weekly
	require.Len(t, plan.Days, 7)
	assert.Equal(t, 3, plan.TrainingDays())
	for _, d := range plan.Days {
		switch d.Weekday {
		case time.Monday, time.Wednesday, time.Friday:
			require.False(t, d.Rest, d.Weekday.String())
			assert.NotEmpty(t, d.Session.Main)
		default:
			assert.True(t, d.Rest, d.Weekday.String())
		}
	}
	assert.Equal(t, 19, res.Plan.Candidates)
	assert.Equal(t, []catalog.Rejection{{ID: "broken-row", Reason: catalog.RejectMissingImpact}}, res.Plan.CatalogRejections)

	require.Len(t, st.phases, 1, "a new phase state is stored")
	assert.Equal(t, phase.BlueprintStrength, st.phases[0].BlueprintID)

	require.Len(t, pub.Published, 1)
	assert.Equal(t, shared.TopicPlanGenerated, pub.Published[0].Topic)
	assert.Equal(t, shared.EventTypePlanGenerated, pub.Published[0].Event.Type())
	assert.Equal(t, "user-1", pub.Published[0].Event.Subject())

	var ev types.PlanGeneratedEvent
	require.NoError(t, pub.Published[0].Event.DataAs(&ev))
	assert.Equal(t, rec.PlanID, ev.PlanID)
	assert.Equal(t, "2026-05-04", ev.StartDate)
	assert.Equal(t, 3, ev.TrainingDays)
	assert.Equal(t, "exec-1", ev.ExecutionID)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlansGenerated.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogRejections.WithLabelValues(string(catalog.RejectMissingImpact))))
}

func TestGenerate_ExportsArtifacts(t *testing.T) {
	in := fixtureInputs(t)
	st := &stored{}
	store := &mocks.MockBlobStore{}
	db := newDB(t, in, st)
	var child *types.ExecutionRecord
	var childStatus interface{}
	db.SetExecutionFunc = func(ctx context.Context, record *types.ExecutionRecord) error {
		child = record
		return nil
	}
	db.UpdateExecutionFunc = func(ctx context.Context, id string, data map[string]interface{}) error {
		childStatus = data["status"]
		return nil
	}
	o, _ := newOrchestrator(db, store, &mocks.MockPublisher{}, Config{Bucket: "plans-bucket", ExportArtifacts: true})

	res, err := o.Generate(context.Background(), &types.GeneratePlanRequest{UserID: "user-1", Seed: 7, StartDate: "2026-05-04"}, "exec-9")
	require.NoError(t, err)

	require.NotNil(t, child)
	assert.Equal(t, "plan-export", child.Service)
	assert.Equal(t, "exec-9", child.ParentExecutionID)
	assert.Equal(t, int32(types.ExecutionStatusSuccess), childStatus)

	prefix := "plans-bucket/" + ArtifactPrefix("user-1", res.Record.PlanID)
	assert.Len(t, store.Written, 4)
	for _, name := range []string{"day-1.fit", "day-2.fit", "day-3.fit", "plan.xlsx"} {
		assert.Contains(t, store.Written, prefix+"/"+name)
	}
	require.Len(t, res.Record.ArtifactURIs, 4)
	for _, uri := range res.Record.ArtifactURIs {
		assert.True(t, strings.HasPrefix(uri, "gs://plans-bucket/plans/user-1/"), uri)
	}
}

func TestGenerate_ArtifactWriteFailureIsNotFatal(t *testing.T) {
	in := fixtureInputs(t)
	store := &mocks.MockBlobStore{
		WriteFunc: func(ctx context.Context, bucket, object string, data []byte) error {
			return errors.New("bucket unavailable")
		},
	}
	o, _ := newOrchestrator(newDB(t, in, &stored{}), store, &mocks.MockPublisher{}, Config{Bucket: "b", ExportArtifacts: true})

	res, err := o.Generate(context.Background(), &types.GeneratePlanRequest{UserID: "user-1", Seed: 7}, "")
	require.NoError(t, err)
	assert.Empty(t, res.Record.ArtifactURIs)
}

func TestGenerate_NoSafeExercises(t *testing.T) {
	in := fixtureInputs(t)
	for _, r := range in.Catalog {
		in.Blacklist = append(in.Blacklist, r.ID)
	}
	st := &stored{}
	pub := &mocks.MockPublisher{}
	o, m := newOrchestrator(newDB(t, in, st), nil, pub, Config{})

	_, err := o.Generate(context.Background(), &types.GeneratePlanRequest{UserID: "user-1"}, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNoSafeExercises))
	assert.False(t, apperrors.IsRetryable(err))
	assert.Empty(t, st.plans)
	assert.Empty(t, pub.Published)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlansGenerated.WithLabelValues(metrics.OutcomeNoSafe)))
	assert.Equal(t, 19.0, testutil.ToFloat64(m.GateRejections.WithLabelValues(string(clinical.ReasonBlacklisted))))
}

func TestGenerate_UpstreamErrors(t *testing.T) {
	in := fixtureInputs(t)

	t.Run("read failure is retryable", func(t *testing.T) {
		db := newDB(t, in, &stored{})
		db.GetExercisesFunc = func(ctx context.Context) ([]catalog.RawExercise, error) {
			return nil, errors.New("deadline exceeded")
		}
		o, m := newOrchestrator(db, nil, &mocks.MockPublisher{}, Config{})
		_, err := o.Generate(context.Background(), &types.GeneratePlanRequest{UserID: "user-1"}, "")
		assert.True(t, errors.Is(err, apperrors.ErrStorageError))
		assert.True(t, apperrors.IsRetryable(err))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.PlansGenerated.WithLabelValues(metrics.OutcomeUpstream)))
	})

	t.Run("deadline is a retryable timeout", func(t *testing.T) {
		db := newDB(t, in, &stored{})
		db.GetExercisesFunc = func(ctx context.Context) ([]catalog.RawExercise, error) {
			return nil, context.DeadlineExceeded
		}
		o, _ := newOrchestrator(db, nil, &mocks.MockPublisher{}, Config{})
		_, err := o.Generate(context.Background(), &types.GeneratePlanRequest{UserID: "user-1"}, "")
		assert.True(t, errors.Is(err, apperrors.ErrTimeout))
		assert.True(t, apperrors.IsRetryable(err))
	})

	t.Run("unknown user keeps its code", func(t *testing.T) {
		db := newDB(t, in, &stored{})
		db.GetUserProfileFunc = nil
		o, _ := newOrchestrator(db, nil, &mocks.MockPublisher{}, Config{})
		_, err := o.Generate(context.Background(), &types.GeneratePlanRequest{UserID: "ghost"}, "")
		assert.True(t, errors.Is(err, apperrors.ErrUserNotFound))
		assert.False(t, apperrors.IsRetryable(err))
	})

	t.Run("publish failure is retryable", func(t *testing.T) {
		pub := &mocks.MockPublisher{
			PublishCloudEventFunc: func(ctx context.Context, topic string, e event.Event) (string, error) {
				return "", errors.New("unavailable")
			},
		}
		o, _ := newOrchestrator(newDB(t, in, &stored{}), nil, pub, Config{})
		_, err := o.Generate(context.Background(), &types.GeneratePlanRequest{UserID: "user-1"}, "")
		assert.True(t, errors.Is(err, apperrors.ErrPubSubError))
		assert.True(t, apperrors.IsRetryable(err))
	})

	t.Run("missing user id", func(t *testing.T) {
		o, _ := newOrchestrator(newDB(t, in, &stored{}), nil, &mocks.MockPublisher{}, Config{})
		_, err := o.Generate(context.Background(), &types.GeneratePlanRequest{}, "")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("bad start date", func(t *testing.T) {
		o, _ := newOrchestrator(newDB(t, in, &stored{}), nil, &mocks.MockPublisher{}, Config{})
		_, err := o.Generate(context.Background(), &types.GeneratePlanRequest{UserID: "user-1", StartDate: "04/05/2026"}, "")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})
}

func TestGenerate_StoredPhaseDrivesPlan(t *testing.T) {
	in := fixtureInputs(t)
	s, err := phase.NewState(phase.BlueprintStrength, phase.BandIntermediate)
	require.NoError(t, err)
	rec := s.ToRecord()
	rec.PhaseID = phase.PhaseCapacity
	rec.LastSessionAt = now.AddDate(0, 0, -2)
	in.Phase = &rec

	st := &stored{}
	o, _ := newOrchestrator(newDB(t, in, st), nil, &mocks.MockPublisher{}, Config{})
	res, err := o.Generate(context.Background(), &types.GeneratePlanRequest{UserID: "user-1", Seed: 3}, "")
	require.NoError(t, err)

	assert.Equal(t, phase.PhaseCapacity, res.Plan.Weekly.PhaseID)
	assert.False(t, res.Plan.PhaseChanged)
	assert.Empty(t, st.phases, "unchanged phase state is not rewritten")
}

func TestCompute_DeterministicForSeed(t *testing.T) {
	in := fixtureInputs(t)
	params := Params{Start: now, Now: now, Seed: 99}

	a, err := Compute(in, params)
	require.NoError(t, err)
	b, err := Compute(in, params)
	require.NoError(t, err)

	assert.Equal(t, a.Anchors, b.Anchors)
	assert.Equal(t, dayIDs(a), dayIDs(b))
}

func TestGenerate_LargeSeedReplays(t *testing.T) {
	in := fixtureInputs(t)
	st := &stored{}
	o, _ := newOrchestrator(newDB(t, in, st), nil, &mocks.MockPublisher{}, Config{})

	req := &types.GeneratePlanRequest{UserID: "user-1", Seed: math.MaxUint64 - 6, StartDate: "2026-05-04"}
	first, err := o.Generate(context.Background(), req, "")
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551609", first.Record.Seed)

	seed, err := first.Record.SeedValue()
	require.NoError(t, err)
	assert.Equal(t, req.Seed, seed)

	replay, err := o.Generate(context.Background(), &types.GeneratePlanRequest{UserID: "user-1", Seed: seed, StartDate: "2026-05-04"}, "")
	require.NoError(t, err)
	assert.Equal(t, dayIDs(first.Plan), dayIDs(replay.Plan))
}

func TestCompute_RequiresProfile(t *testing.T) {
	in := fixtureInputs(t)
	in.Profile = nil
	_, err := Compute(in, Params{Start: now, Now: now})
	assert.True(t, errors.Is(err, apperrors.ErrProfileInvalid))
}

func TestCompute_MinSafeCandidates(t *testing.T) {
	in := fixtureInputs(t)
	plan, err := Compute(in, Params{Start: now, Now: now, MinSafeCandidates: 20})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNoSafeExercises))
	require.NotNil(t, plan)
	assert.Equal(t, 19, plan.Candidates)
	assert.Nil(t, plan.Weekly)
}

func dayIDs(p *Plan) [][]string {
	var out [][]string
	for _, d := range p.Weekly.Days {
		var ids []string
		if d.Session != nil {
			for _, it := range d.Session.Items() {
				ids = append(ids, it.Exercise.ID)
			}
		}
		out = append(out, ids)
	}
	return out
}

func overreached() fatigue.Profile {
	p := fatigue.DefaultProfile()
	p.Fallback = false
	p.CurrentScore = 95
	return p
}

func recovered() fatigue.Profile {
	p := fatigue.DefaultProfile()
	p.Fallback = false
	p.CurrentScore = 40
	return p
}

func storedState(t *testing.T, override string) *phase.Record {
	t.Helper()
	s, err := phase.NewState(phase.BlueprintStrength, phase.BandBeginner)
	require.NoError(t, err)
	if override != "" {
		reason := phase.ReasonFatigue
		if override == phase.PhaseRehab {
			reason = phase.ReasonSeverePain
		}
		s, _, err = s.TriggerOverride(override, reason, now.AddDate(0, 0, -3))
		require.NoError(t, err)
	}
	r := s.ToRecord()
	return &r
}

func TestResolvePhase(t *testing.T) {
	p := &profile.UserProfile{PrimaryGoal: profile.GoalStrength}

	t.Run("overreached starts a deload", func(t *testing.T) {
		st, trs, changed, err := resolvePhase(storedState(t, ""), p, overreached(), now)
		require.NoError(t, err)
		assert.True(t, changed)
		require.Len(t, trs, 1)
		assert.Equal(t, phase.TransitionOverrideStarted, trs[0].Kind)
		assert.Equal(t, phase.PhaseDeload, st.Resolve().PhaseID)
	})

	t.Run("rehab is kept", func(t *testing.T) {
		st, trs, changed, err := resolvePhase(storedState(t, phase.PhaseRehab), p, overreached(), now)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Empty(t, trs)
		assert.Equal(t, phase.PhaseRehab, st.Resolve().PhaseID)
	})

	t.Run("recovery clears a fatigue deload", func(t *testing.T) {
		st, trs, _, err := resolvePhase(storedState(t, phase.PhaseDeload), p, recovered(), now)
		require.NoError(t, err)
		require.Len(t, trs, 1)
		assert.Equal(t, phase.TransitionOverrideCleared, trs[0].Kind)
		assert.False(t, st.Resolve().Overridden)
	})

	t.Run("fallback profile changes nothing", func(t *testing.T) {
		st, trs, _, err := resolvePhase(storedState(t, phase.PhaseDeload), p, fatigue.DefaultProfile(), now)
		require.NoError(t, err)
		assert.Empty(t, trs)
		assert.Equal(t, phase.PhaseDeload, st.Resolve().PhaseID)
	})

	t.Run("new user", func(t *testing.T) {
		st, _, changed, err := resolvePhase(nil, &profile.UserProfile{}, recovered(), now)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, phase.BlueprintPainRelief, st.BlueprintID)
	})
}

func TestPriorStreak(t *testing.T) {
	start := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	day := func(offset int) fatigue.SessionRecord {
		return fatigue.SessionRecord{CompletedAt: start.AddDate(0, 0, offset).Add(18 * time.Hour)}
	}

	assert.Equal(t, 0, priorStreak(nil, start))
	assert.Equal(t, 3, priorStreak([]fatigue.SessionRecord{day(-1), day(-2), day(-3), day(-5)}, start))
	assert.Equal(t, 0, priorStreak([]fatigue.SessionRecord{day(-2)}, start))

	var long []fatigue.SessionRecord
	for i := 1; i <= 20; i++ {
		long = append(long, day(-i))
	}
	assert.Equal(t, 14, priorStreak(long, start))
}

func TestParseStartDate(t *testing.T) {
	got, err := ParseStartDate("", time.Date(2026, 5, 6, 23, 0, 0, 0, time.FixedZone("x", -3*3600)))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 7, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseStartDate("2026-05-11", now)
	require.NoError(t, err)
	assert.Equal(t, time.Monday, got.Weekday())
}
