package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	planerrors "github.com/ripixel/fitglue-planner/pkg/errors"
)

func validRaw() RawExercise {
	return RawExercise{
		ID:                 "bird-dog",
		Name:               "Bird Dog",
		Category:           "Core Anti Rotation",
		Difficulty:         2,
		Plane:              "transverse",
		Position:           "All-Fours",
		Unilateral:         true,
		Equipment:          []string{"Mat", "none"},
		ImpactLevel:        "low",
		SpineLoad:          "moderate",
		MetabolicIntensity: 2,
		PainReliefZones:    []string{"Lumbar General"},
		ToleranceTags:      []string{"flexion_safe"},
	}
}

func TestNormalize_Valid(t *testing.T) {
	ex, err := Normalize(validRaw())
	require.NoError(t, err)

	assert.Equal(t, "bird-dog", ex.ID)
	assert.Equal(t, CategoryCoreAntiRotation, ex.Category)
	assert.Equal(t, PositionQuadruped, ex.Position)
	assert.Equal(t, PlaneRotation, ex.Plane)
	assert.Equal(t, LevelLow, ex.Impact)
	assert.Equal(t, LevelMedium, ex.SpineLoad)
	assert.Equal(t, LevelLow, ex.KneeLoad)
	assert.Equal(t, []string{"bodyweight", "mat"}, ex.Equipment)
	assert.Equal(t, []string{"lumbar_general"}, ex.PainReliefZones)
	assert.Equal(t, StyleNone, ex.ConditioningStyle)
	assert.Equal(t, "core_anti_rotation|rotation|quadruped|unilateral", ex.FamilyKey())
	assert.True(t, ex.HasTag(TagFlexionSafe))
}

func TestNormalize_RejectsStructuralProblems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *RawExercise)
		reason RejectReason
	}{
		{"missing id", func(r *RawExercise) { r.ID = " " }, RejectMissingID},
		{"missing category", func(r *RawExercise) { r.Category = "" }, RejectMissingCategory},
		{"missing position", func(r *RawExercise) { r.Position = "" }, RejectMissingPosition},
		{"unknown position", func(r *RawExercise) { r.Position = "handstand" }, RejectMissingPosition},
		{"missing impact", func(r *RawExercise) { r.ImpactLevel = "" }, RejectMissingImpact},
		{"difficulty zero", func(r *RawExercise) { r.Difficulty = 0 }, RejectDifficultyRange},
		{"difficulty six", func(r *RawExercise) { r.Difficulty = 6 }, RejectDifficultyRange},
		{"high impact no foot loading", func(r *RawExercise) {
			r.ImpactLevel = "high"
			r.Position = "standing"
		}, RejectImpactFootLoading},
		{"high impact kneeling", func(r *RawExercise) {
			r.ImpactLevel = "high"
			r.FootLoading = true
		}, RejectImpactPosition},
		{"foot loading lying", func(r *RawExercise) {
			r.Position = "supine"
			r.FootLoading = true
		}, RejectFootLoadingPosition},
		{"interval without work/rest", func(r *RawExercise) { r.ConditioningStyle = "interval" }, RejectIntervalMissing},
		{"interval zero work", func(r *RawExercise) {
			r.ConditioningStyle = "interval"
			r.Interval = &Interval{WorkSeconds: 0, RestSeconds: 10}
		}, RejectIntervalMalformed},
		{"interval negative rest", func(r *RawExercise) {
			r.ConditioningStyle = "interval"
			r.Interval = &Interval{WorkSeconds: 20, RestSeconds: -1}
		}, RejectIntervalMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(&raw)

			ex, err := Normalize(raw)
			require.Error(t, err)
			assert.Nil(t, ex)
			assert.True(t, errors.Is(err, planerrors.ErrInvalidExerciseRecord))

			var rej Rejection
			require.True(t, errors.As(err, &rej))
			assert.Equal(t, tt.reason, rej.Reason)
		})
	}
}

func TestNormalizeAll_SplitsAcceptedAndRejected(t *testing.T) {
	bad := validRaw()
	bad.ID = "bad"
	bad.ImpactLevel = "extreme"
	dup := validRaw()

	accepted, rejected := NormalizeAll([]RawExercise{validRaw(), bad, dup})

	require.Len(t, accepted, 1)
	assert.Equal(t, "bird-dog", accepted[0].ID)
	require.Len(t, rejected, 1)
	assert.Equal(t, Rejection{ID: "bad", Reason: RejectMissingImpact}, rejected[0])
}

func TestNormalizeEquipment(t *testing.T) {
	got := NormalizeEquipment([]string{"DB", "kb", "Resistance_Band", "band", "Brak", ""})
	assert.Equal(t, []string{"bodyweight", "dumbbell", "kettlebell", "resistance band"}, got)
}

func TestGroupOf(t *testing.T) {
	assert.Equal(t, GroupMobility, GroupOf(CategoryNerveFlossing))
	assert.Equal(t, GroupConditioning, GroupOf("conditioning_rowing"))
	assert.Equal(t, GroupCore, GroupOf("core_dead_bug"))
	assert.Equal(t, GroupOther, GroupOf("juggling"))
}
