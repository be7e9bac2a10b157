package clinical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
)

func exercise(mutators ...func(*catalog.Exercise)) *catalog.Exercise {
	ex := &catalog.Exercise{
		ID:                 "glute-bridge",
		Name:               "Glute Bridge",
		Category:           catalog.CategoryGluteActivation,
		Difficulty:         2,
		Plane:              catalog.PlaneExtension,
		Position:           catalog.PositionSupine,
		Equipment:          []string{"bodyweight"},
		Impact:             catalog.LevelLow,
		KneeLoad:           catalog.LevelLow,
		SpineLoad:          catalog.LevelLow,
		MetabolicIntensity: 1,
		PainReliefZones:    []string{"lumbar_general"},
	}
	for _, m := range mutators {
		m(ex)
	}
	return ex
}

func TestBuildUserContext_Severity(t *testing.T) {
	tests := []struct {
		name         string
		profile      profile.UserProfile
		wantSeverity float64
		wantSevere   bool
		wantCap      int
	}{
		{
			name:         "mild advanced",
			profile:      profile.UserProfile{PainIntensity: 3, DailyImpact: 2, Experience: "advanced"},
			wantSeverity: 2.5,
			wantCap:      4,
		},
		{
			name:         "severe sharp advanced is clamped to 2",
			profile:      profile.UserProfile{PainIntensity: 8, DailyImpact: 7, PainCharacter: []string{"Sharp"}, Experience: "advanced"},
			wantSeverity: 9,
			wantSevere:   true,
			wantCap:      2,
		},
		{
			name:         "sharp moderate advanced is clamped to 3",
			profile:      profile.UserProfile{PainIntensity: 4, DailyImpact: 4, PainCharacter: []string{"burning"}, Experience: "advanced"},
			wantSeverity: 4.8,
			wantCap:      3,
		},
		{
			name:         "severe without amplifier",
			profile:      profile.UserProfile{PainIntensity: 7, DailyImpact: 6, Experience: "regular"},
			wantSeverity: 6.5,
			wantSevere:   true,
			wantCap:      2,
		},
		{
			name:         "unknown experience falls back to none",
			profile:      profile.UserProfile{Experience: "elite"},
			wantSeverity: 0,
			wantCap:      1,
		},
		{
			name:         "amplified severity is capped at 10",
			profile:      profile.UserProfile{PainIntensity: 10, DailyImpact: 10, PainCharacter: []string{"radiating"}, Experience: "occasional"},
			wantSeverity: 10,
			wantSevere:   true,
			wantCap:      2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := BuildUserContext(&tt.profile)
			assert.InDelta(t, tt.wantSeverity, ctx.Severity, 1e-9)
			assert.Equal(t, tt.wantSevere, ctx.IsSevere)
			assert.Equal(t, tt.wantCap, ctx.DifficultyCap)
		})
	}
}

func TestBuildUserContext_PainFiltersAndTolerance(t *testing.T) {
	ctx := BuildUserContext(&profile.UserProfile{
		PainLocations:    []string{"SI Joint", "knee"},
		TriggerMovements: []string{"bending forward", "arching back"},
		ReliefMovements:  []string{"back extension"},
		Diagnoses:        []string{"Meniscus_Tear"},
	})

	assert.True(t, ctx.PainFilters["si_joint"])
	assert.True(t, ctx.PainFilters["lumbar_general"])
	assert.True(t, ctx.HasKneePain)
	assert.True(t, ctx.KneeDiagnosis)
	assert.Equal(t, ToleranceFlexionIntolerant, ctx.Tolerance, "flexion wins when both directions trigger")
}

func TestBuildUserContext_TolerancePattern(t *testing.T) {
	tests := []struct {
		name     string
		triggers []string
		reliefs  []string
		want     TolerancePattern
	}{
		{"nothing reported", nil, nil, ToleranceNeutral},
		{"forward bending hurts", []string{"bending forward"}, nil, ToleranceFlexionIntolerant},
		{"backward bending helps", nil, []string{"bending backward"}, ToleranceFlexionIntolerant},
		{"backward bending hurts", []string{"bending backward"}, nil, ToleranceExtensionIntolerant},
		{"forward bending helps", nil, []string{"bending forward"}, ToleranceExtensionIntolerant},
		{"both directions hurt", []string{"bending backward", "bending forward"}, nil, ToleranceFlexionIntolerant},
		{"unrelated movements", []string{"walking"}, []string{"swimming"}, ToleranceNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := BuildUserContext(&profile.UserProfile{TriggerMovements: tt.triggers, ReliefMovements: tt.reliefs})
			assert.Equal(t, tt.want, ctx.Tolerance)
		})
	}
}

func TestCheckExerciseAvailability_Gates(t *testing.T) {
	base := &Context{DifficultyCap: 3, Restrictions: map[string]bool{}, PainFilters: map[string]bool{}}
	with := func(mut func(c *Context)) *Context {
		c := *base
		c.Restrictions = map[string]bool{}
		c.PainFilters = map[string]bool{}
		mut(&c)
		return &c
	}

	tests := []struct {
		name   string
		ex     *catalog.Exercise
		ctx    *Context
		opts   Options
		reason Reason
	}{
		{"allowed", exercise(), base, Options{}, ReasonOK},
		{"blacklist wins over equipment", exercise(func(e *catalog.Exercise) { e.Equipment = []string{"barbell"} }), base,
			Options{Blacklist: map[string]bool{"glute-bridge": true}}, ReasonBlacklisted},
		{"missing equipment", exercise(func(e *catalog.Exercise) { e.Equipment = []string{"barbell"} }), base, Options{}, ReasonMissingEquipment},
		{"equipment skippable", exercise(func(e *catalog.Exercise) { e.Equipment = []string{"barbell"} }), base,
			Options{IgnoreEquipment: true}, ReasonOK},
		{"difficulty cap", exercise(func(e *catalog.Exercise) { e.Difficulty = 4 }), base, Options{}, ReasonDifficultyCap},
		{"difficulty skippable", exercise(func(e *catalog.Exercise) { e.Difficulty = 4 }), base, Options{IgnoreDifficulty: true}, ReasonOK},
		{"no kneeling blocks quadruped", exercise(func(e *catalog.Exercise) { e.Position = catalog.PositionQuadruped }),
			with(func(c *Context) { c.Restrictions[RestrictionNoKneeling] = true }), Options{}, ReasonNoKneeling},
		{"no twisting", exercise(func(e *catalog.Exercise) { e.Plane = catalog.PlaneRotation }),
			with(func(c *Context) { c.Restrictions[RestrictionNoTwisting] = true }), Options{}, ReasonNoTwisting},
		{"no floor sitting", exercise(func(e *catalog.Exercise) { e.Position = catalog.PositionFloorSitting }),
			with(func(c *Context) { c.Restrictions[RestrictionNoFloorSitting] = true }), Options{}, ReasonNoFloorSitting},
		{"no high impact", exercise(func(e *catalog.Exercise) {
			e.Impact = catalog.LevelHigh
			e.FootLoading = true
			e.Position = catalog.PositionStanding
			e.Difficulty = 3
		}), with(func(c *Context) { c.Restrictions[RestrictionNoHighImpact] = true }), Options{}, ReasonNoHighImpact},
		{"inconsistent high impact", exercise(func(e *catalog.Exercise) {
			e.Impact = catalog.LevelHigh
			e.FootLoading = true
			e.Position = catalog.PositionStanding
			e.Difficulty = 2
		}), base, Options{}, ReasonInconsistentImpact},
		{"foot injury blocks standing", exercise(func(e *catalog.Exercise) { e.Position = catalog.PositionStanding }),
			with(func(c *Context) { c.Restrictions[RestrictionFootInjury] = true }), Options{}, ReasonFootInjury},
		{"foot injury blocks loading category", exercise(func(e *catalog.Exercise) { e.Category = catalog.CategoryBalance }),
			with(func(c *Context) { c.Restrictions[RestrictionFootInjury] = true }), Options{}, ReasonFootInjury},
		{"explicit knee restriction blocks medium", exercise(func(e *catalog.Exercise) { e.KneeLoad = catalog.LevelMedium }),
			with(func(c *Context) { c.Restrictions[RestrictionNoKneeLoad] = true }), Options{}, ReasonKneeLoad},
		{"knee diagnosis blocks high only", exercise(func(e *catalog.Exercise) { e.KneeLoad = catalog.LevelMedium }),
			with(func(c *Context) { c.KneeDiagnosis = true }), Options{}, ReasonOK},
		{"flexion intolerance", exercise(func(e *catalog.Exercise) { e.Plane = catalog.PlaneFlexion }),
			with(func(c *Context) { c.Tolerance = ToleranceFlexionIntolerant }), Options{}, ReasonFlexionIntolerant},
		{"flexion safe tag", exercise(func(e *catalog.Exercise) {
			e.Plane = catalog.PlaneFlexion
			e.ToleranceTags = []string{catalog.TagFlexionSafe}
		}), with(func(c *Context) { c.Tolerance = ToleranceFlexionIntolerant }), Options{}, ReasonOK},
		{"extension intolerance", exercise(), with(func(c *Context) { c.Tolerance = ToleranceExtensionIntolerant }), Options{}, ReasonExtensionIntolerant},
		{"severity gate off without strict", exercise(func(e *catalog.Exercise) { e.SpineLoad = catalog.LevelHigh }),
			with(func(c *Context) { c.IsSevere = true }), Options{}, ReasonOK},
		{"severe spine load", exercise(func(e *catalog.Exercise) { e.SpineLoad = catalog.LevelHigh }),
			with(func(c *Context) { c.IsSevere = true }), Options{StrictSeverity: true}, ReasonSevereSpineLoad},
		{"severe knee load with knee pain", exercise(func(e *catalog.Exercise) { e.KneeLoad = catalog.LevelHigh }),
			with(func(c *Context) {
				c.IsSevere = true
				c.HasKneePain = true
				c.PainFilters["knee"] = true
			}), Options{StrictSeverity: true}, ReasonSevereKneeLoad},
		{"severe without relief zone", exercise(func(e *catalog.Exercise) { e.PainReliefZones = []string{"cervical"} }),
			with(func(c *Context) {
				c.IsSevere = true
				c.PainFilters["lumbar_general"] = true
			}), Options{StrictSeverity: true}, ReasonNoPainRelief},
		{"nil exercise", nil, base, Options{}, ReasonInvalidRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CheckExerciseAvailability(tt.ex, tt.ctx, tt.opts)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Equal(t, tt.reason == ReasonOK, res.Allowed)
		})
	}
}

func TestCheckExerciseAvailability_FailsClosed(t *testing.T) {
	original := gates
	t.Cleanup(func() { gates = original })
	gates = append([]gate{{"explode", func(*catalog.Exercise, *Context, Options) Reason {
		var m map[string]int
		m["boom"]++
		return ReasonOK
	}}}, original...)

	res := CheckExerciseAvailability(exercise(), &Context{DifficultyCap: 5}, Options{})
	assert.False(t, res.Allowed)
	assert.Equal(t, ReasonInternalError, res.Reason)
}

func TestFilter_CountsReasons(t *testing.T) {
	ctx := &Context{DifficultyCap: 2}
	allowed, rejected := Filter([]*catalog.Exercise{
		exercise(),
		exercise(func(e *catalog.Exercise) { e.ID = "hard"; e.Difficulty = 5 }),
		nil,
	}, ctx, Options{})

	require.Len(t, allowed, 1)
	assert.Equal(t, 1, rejected[ReasonDifficultyCap])
	assert.Equal(t, 1, rejected[ReasonInvalidRecord])
}

func TestCheckEquipment(t *testing.T) {
	tests := []struct {
		name     string
		required []string
		owned    []string
		want     bool
	}{
		{"bodyweight needs nothing", []string{"Bodyweight"}, nil, true},
		{"synonym brak", []string{"brak"}, nil, true},
		{"empty requirement", nil, nil, true},
		{"case insensitive", []string{"Dumbbell"}, []string{"dumbbell"}, true},
		{"owned contains required", []string{"band"}, []string{"Resistance Band"}, true},
		{"required contains owned", []string{"adjustable dumbbell"}, []string{"dumbbell"}, true},
		{"missing one of two", []string{"mat", "kettlebell"}, []string{"mat"}, false},
		{"no match", []string{"barbell"}, []string{"mat"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckEquipment(tt.required, tt.owned))
		})
	}
}

func TestBuildUserContext_NormalizesOwnedEquipment(t *testing.T) {
	ctx := BuildUserContext(&profile.UserProfile{
		Experience: profile.ExperienceAdvanced,
		Equipment:  []string{"DB", " TRX ", "Yoga Mat"},
	})
	assert.Equal(t, []string{"dumbbell", "suspension trainer", "yoga mat"}, ctx.Equipment)

	for _, label := range [][]string{{"DB"}, {"dumbbell"}, {"trx", "mat"}} {
		ex := exercise(func(e *catalog.Exercise) { e.Equipment = catalog.NormalizeEquipment(label) })
		res := CheckExerciseAvailability(ex, ctx, Options{})
		assert.True(t, res.Allowed, "%v: %s", label, res.Reason)
	}
}

func TestClassifyPainResponse(t *testing.T) {
	tests := []struct {
		nprs, delta int
		want        PainResponse
	}{
		{5, 1, PainGreen},
		{0, 0, PainGreen},
		{6, 2, PainAmber},
		{7, 2, PainAmber},
		{3, 3, PainAmber},
		{8, 1, PainRed},
		{2, 4, PainRed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyPainResponse(tt.nprs, tt.delta), "nprs=%d delta=%d", tt.nprs, tt.delta)
	}
}
