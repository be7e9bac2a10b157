package schedule

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/clinical"
	"github.com/ripixel/fitglue-planner/pkg/domain/fatigue"
	"github.com/ripixel/fitglue-planner/pkg/domain/phase"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
	"github.com/ripixel/fitglue-planner/pkg/domain/selection"
	"github.com/ripixel/fitglue-planner/pkg/domain/weights"
)

// Monday
var start = time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)

func fixturePool() []*catalog.Exercise {
	mk := func(id, category, position string, difficulty, metabolic int, timed bool) *catalog.Exercise {
		return &catalog.Exercise{
			ID:                 id,
			Name:               id,
			Category:           category,
			Difficulty:         difficulty,
			Plane:              catalog.PlaneSagittal,
			Position:           position,
			Timed:              timed,
			Impact:             catalog.LevelLow,
			KneeLoad:           catalog.LevelLow,
			SpineLoad:          catalog.LevelLow,
			MetabolicIntensity: metabolic,
		}
	}
	pool := []*catalog.Exercise{
		mk("diaphragmatic-breathing", catalog.CategoryBreathing, catalog.PositionSupine, 1, 1, true),
		mk("box-breathing", catalog.CategoryBreathing, catalog.PositionSitting, 1, 1, true),
		mk("cat-cow", catalog.CategorySpineMobility, catalog.PositionQuadruped, 1, 1, false),
		mk("pelvic-tilt", catalog.CategorySpineMobility, catalog.PositionSupine, 1, 1, false),
		mk("hip-circles", catalog.CategoryHipMobility, catalog.PositionStanding, 1, 2, false),
		mk("open-book", catalog.CategoryThoracicMobility, catalog.PositionSideLying, 1, 1, false),
		mk("hamstring-stretch", catalog.CategoryStretching, catalog.PositionSupine, 1, 1, true),
		mk("child-pose", catalog.CategoryStretching, catalog.PositionKneeling, 1, 1, true),
		mk("dead-bug", catalog.CategoryCoreAntiExtension, catalog.PositionSupine, 2, 2, false),
		mk("plank", catalog.CategoryCoreAntiExtension, catalog.PositionProne, 3, 2, true),
		mk("pallof-press", catalog.CategoryCoreAntiRotation, catalog.PositionStanding, 2, 2, false),
		mk("side-plank", catalog.CategoryCoreAntiLateralFlexion, catalog.PositionSideLying, 3, 2, true),
		mk("glute-bridge", catalog.CategoryGluteActivation, catalog.PositionSupine, 1, 2, false),
		mk("clamshell", catalog.CategoryGluteActivation, catalog.PositionSideLying, 1, 1, false),
		mk("goblet-squat", catalog.CategoryLowerBodyStrength, catalog.PositionStanding, 3, 3, false),
		mk("step-up", catalog.CategoryLowerBodyStrength, catalog.PositionStanding, 3, 3, false),
		mk("split-squat", catalog.CategoryLowerBodyStrength, catalog.PositionHalfKneeling, 4, 3, false),
		mk("band-row", catalog.CategoryUpperBodyStrength, catalog.PositionStanding, 2, 2, false),
		mk("wall-push-up", catalog.CategoryUpperBodyStrength, catalog.PositionStanding, 1, 2, false),
		mk("single-leg-stance", catalog.CategoryBalance, catalog.PositionStanding, 2, 1, true),
		mk("marching", catalog.CategoryConditioningLowImpact, catalog.PositionStanding, 1, 3, true),
		mk("shadow-boxing", catalog.CategoryConditioningLowImpact, catalog.PositionStanding, 2, 4, true),
		mk("bike-sprints", catalog.CategoryConditioningIntervals, catalog.PositionSitting, 3, 5, true),
	}
	pool[16].Unilateral = true
	pool[15].Unilateral = true
	pool[22].ConditioningStyle = catalog.StyleInterval
	pool[22].Interval = &catalog.Interval{WorkSeconds: 20, RestSeconds: 40}
	return pool
}

func config(p *profile.UserProfile, seed uint64) Config {
	pool := fixturePool()
	ctx := clinical.BuildUserContext(p)
	w := weights.Build(p, weights.Categories(pool))
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return Config{
		Start:   start,
		Profile: p,
		Context: ctx,
		Pool:    pool,
		Scorer: &selection.Scorer{
			Context: ctx,
			Profile: p,
			Weights: w,
			Now:     start,
		},
		State:     selection.NewState(selection.ChooseAnchors(pool, w, 2, rng), selection.DefaultAnchorTarget),
		Rand:      rng,
		Trend:     fatigue.RPETrend{VolumeModifier: 1.0, Label: fatigue.TrendNeutral},
		Modifiers: phase.Modifiers{PhaseID: phase.PhaseCapacity, RestMultiplier: 1.0, AnchorTarget: 2},
	}
}

func baseProfile() *profile.UserProfile {
	return &profile.UserProfile{
		UserID:          "user-1",
		PainIntensity:   3,
		DailyImpact:     3,
		Experience:      profile.ExperienceRegular,
		SessionsPerWeek: 3,
		TargetMinutes:   30,
		ScheduleDays:    []time.Weekday{time.Monday, time.Wednesday, time.Friday},
	}
}

func sessionIDs(s *Session) []string {
	var out []string
	for _, it := range s.Items() {
		out = append(out, it.Exercise.ID)
	}
	return out
}

func TestBuild_TrainingDaysFollowPattern(t *testing.T) {
	plan := Build(config(baseProfile(), 1))

	require.Len(t, plan.Days, Days)
	assert.Equal(t, 3, plan.TrainingDays())
	for _, d := range plan.Days {
		training := d.Weekday == time.Monday || d.Weekday == time.Wednesday || d.Weekday == time.Friday
		assert.Equal(t, !training, d.Rest, d.Weekday.String())
		if training {
			require.NotNil(t, d.Session)
		} else {
			assert.Nil(t, d.Session)
		}
	}
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), plan.StartDate)
	assert.Equal(t, phase.PhaseCapacity, plan.PhaseID)
}

func TestBuild_ForcedRestDate(t *testing.T) {
	p := baseProfile()
	p.ForcedRestDates = []string{"2026-03-04"}

	plan := Build(config(p, 1))

	assert.True(t, plan.Days[2].Rest)
	assert.Equal(t, 2, plan.TrainingDays())
}

func TestBuild_StreakForcesRest(t *testing.T) {
	p := baseProfile()
	p.ScheduleDays = nil
	p.SessionsPerWeek = 7
	cfg := config(p, 1)
	cfg.PriorStreak = 13

	plan := Build(cfg)

	assert.False(t, plan.Days[0].Rest)
	assert.True(t, plan.Days[1].Rest)
	assert.Equal(t, 6, plan.TrainingDays())
}

func TestBuild_FatigueCarriesAcrossDays(t *testing.T) {
	p := baseProfile()
	p.ScheduleDays = []time.Weekday{time.Monday, time.Tuesday, time.Thursday}

	plan := Build(config(p, 3))

	assert.Equal(t, fatigue.StateFresh.String(), plan.Days[0].Session.FatigueState)
	assert.Equal(t, fatigue.StateFatigued.String(), plan.Days[1].Session.FatigueState)
	assert.Equal(t, fatigue.StateFresh.String(), plan.Days[3].Session.FatigueState, "rest day resets")
	assert.Less(t, plan.Days[1].Session.LoadFactor, plan.Days[0].Session.LoadFactor)
}

func TestBuild_SessionsRespectHardLimit(t *testing.T) {
	for _, minutes := range []int{15, 20, 30, 45, 60} {
		for seed := uint64(1); seed <= 5; seed++ {
			t.Run(fmt.Sprintf("%dmin/seed%d", minutes, seed), func(t *testing.T) {
				p := baseProfile()
				p.TargetMinutes = minutes

				plan := Build(config(p, seed))

				for _, d := range plan.Days {
					if d.Rest {
						continue
					}
					assert.LessOrEqual(t, d.Session.EstimatedSeconds, minutes*60+30)
					assert.GreaterOrEqual(t, len(d.Session.Main), 2)
					assert.Equal(t, d.Session.Session.EstimatedSeconds(), d.Session.EstimatedSeconds)
				}
			})
		}
	}
}

func TestBuild_NoExerciseRepeatsWithinSession(t *testing.T) {
	plan := Build(config(baseProfile(), 7))
	for _, d := range plan.Days {
		if d.Rest {
			continue
		}
		seen := map[string]bool{}
		for _, id := range sessionIDs(d.Session) {
			assert.False(t, seen[id], "repeated %s", id)
			seen[id] = true
		}
	}
}

func TestBuild_OverreachedExcludesHighMetabolicMain(t *testing.T) {
	p := baseProfile()
	p.ComponentBias = map[string]string{profile.ComponentConditioning: profile.BiasHigh}
	p.PrimaryGoal = profile.GoalFitness

	for seed := uint64(1); seed <= 10; seed++ {
		cfg := config(p, seed)
		cfg.InitialFatigue = fatigue.StateOverreached
		plan := Build(cfg)
		for _, it := range plan.Days[0].Session.Main {
			assert.Less(t, it.Exercise.MetabolicIntensity, 4, it.Exercise.ID)
		}
	}
}

func TestBuild_IntensityCapLimitsMainDifficulty(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		cfg := config(baseProfile(), seed)
		limit := 2
		cfg.Trend = fatigue.RPETrend{VolumeModifier: 0.85, IntensityCap: &limit, Label: fatigue.TrendAcuteRecovery}
		plan := Build(cfg)
		for _, d := range plan.Days {
			if d.Rest {
				continue
			}
			for _, it := range d.Session.Main {
				assert.LessOrEqual(t, it.Exercise.Difficulty, 2, it.Exercise.ID)
			}
		}
	}
}

func TestBuild_MainCategoryCap(t *testing.T) {
	p := baseProfile()
	p.TargetMinutes = 60
	p.PrimaryGoal = profile.GoalStrength
	p.ComponentBias = map[string]string{profile.ComponentStrength: profile.BiasHigh}

	plan := Build(config(p, 11))
	for _, d := range plan.Days {
		if d.Rest {
			continue
		}
		counts := map[string]int{}
		for _, it := range d.Session.Main {
			counts[it.Exercise.Category]++
		}
		for c, n := range counts {
			assert.LessOrEqual(t, n, MainCategoryCap, c)
		}
	}
}

func TestBuild_DeterministicForSeed(t *testing.T) {
	a := Build(config(baseProfile(), 42))
	b := Build(config(baseProfile(), 42))

	for i := range a.Days {
		if a.Days[i].Rest {
			assert.True(t, b.Days[i].Rest)
			continue
		}
		assert.Equal(t, sessionIDs(a.Days[i].Session), sessionIDs(b.Days[i].Session))
	}
}

func TestCounts(t *testing.T) {
	tests := []struct {
		name    string
		profile *profile.UserProfile
		severe  bool
		want    SectionCounts
	}{
		{"default 30 min", &profile.UserProfile{}, false, SectionCounts{Warmup: 3, Main: 4, Cooldown: 2}},
		{"short", &profile.UserProfile{TargetMinutes: 15}, false, SectionCounts{Warmup: 2, Main: 2, Cooldown: 2}},
		{"long", &profile.UserProfile{TargetMinutes: 60}, false, SectionCounts{Warmup: 3, Main: 8, Cooldown: 2}},
		{"mobility bias", &profile.UserProfile{TargetMinutes: 30, ComponentBias: map[string]string{"mobility": "high"}}, false, SectionCounts{Warmup: 4, Main: 3, Cooldown: 3}},
		{"strength bias", &profile.UserProfile{TargetMinutes: 30, ComponentBias: map[string]string{"strength": "high"}}, false, SectionCounts{Warmup: 3, Main: 5, Cooldown: 2}},
		{"severe", &profile.UserProfile{TargetMinutes: 30}, true, SectionCounts{Warmup: 4, Main: 3, Cooldown: 2}},
		{"severe mobility clamps", &profile.UserProfile{TargetMinutes: 30, ComponentBias: map[string]string{"mobility": "high"}}, true, SectionCounts{Warmup: 4, Main: 2, Cooldown: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Counts(tt.profile, tt.severe))
		})
	}
}

func TestPattern_DefaultsFromSessionsPerWeek(t *testing.T) {
	assert.Len(t, Pattern(nil), 3)
	assert.Len(t, Pattern(&profile.UserProfile{SessionsPerWeek: 5}), 5)
	assert.Len(t, Pattern(&profile.UserProfile{SessionsPerWeek: 12}), 7)
	assert.Equal(t, map[time.Weekday]bool{time.Saturday: true}, Pattern(&profile.UserProfile{ScheduleDays: []time.Weekday{time.Saturday}}))
}
