package clinical

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
)

// Reason is the enumerated outcome of a safety check.
type Reason string

const (
	ReasonOK                  Reason = "ok"
	ReasonInvalidRecord       Reason = "invalid_record"
	ReasonInternalError       Reason = "internal_error"
	ReasonBlacklisted         Reason = "blacklisted"
	ReasonMissingEquipment    Reason = "missing_equipment"
	ReasonDifficultyCap       Reason = "difficulty_above_cap"
	ReasonNoKneeling          Reason = "restriction_no_kneeling"
	ReasonNoTwisting          Reason = "restriction_no_twisting"
	ReasonNoFloorSitting      Reason = "restriction_no_floor_sitting"
	ReasonNoHighImpact        Reason = "restriction_no_high_impact"
	ReasonInconsistentImpact  Reason = "inconsistent_high_impact"
	ReasonFootInjury          Reason = "restriction_foot_injury"
	ReasonKneeLoad            Reason = "restriction_knee_load"
	ReasonFlexionIntolerant   Reason = "flexion_intolerance"
	ReasonExtensionIntolerant Reason = "extension_intolerance"
	ReasonSevereSpineLoad     Reason = "severe_spine_load"
	ReasonSevereKneeLoad      Reason = "severe_knee_load"
	ReasonNoPainRelief        Reason = "no_pain_relief_zone"
)

// Result of a safety check.
type Result struct {
	Allowed bool
	Reason  Reason
}

// Options tune which gates run.
type Options struct {
	IgnoreEquipment  bool
	IgnoreDifficulty bool
	StrictSeverity   bool
	Blacklist        map[string]bool
}

// Categories that load the feet regardless of the record's own flag.
var footLoadingCategories = map[string]bool{
	catalog.CategoryLowerBodyStrength:     true,
	catalog.CategoryBalance:               true,
	catalog.CategoryConditioningLowImpact: true,
	catalog.CategoryConditioningIntervals: true,
}

type gate struct {
	name  string
	check func(ex *catalog.Exercise, ctx *Context, opts Options) Reason
}

// The order is part of the contract: the first failing gate names the reason.
var gates = []gate{
	{"blacklist", blacklistGate},
	{"equipment", equipmentGate},
	{"difficulty", difficultyGate},
	{"restrictions", restrictionGate},
	{"tolerance", toleranceGate},
	{"severity", severityGate},
}

// CheckExerciseAvailability runs the ordered gates. Any failure inside a gate
// yields Allowed=false with ReasonInternalError.
func CheckExerciseAvailability(ex *catalog.Exercise, ctx *Context, opts Options) (res Result) {
	stage := "input"
	defer func() {
		if r := recover(); r != nil {
			id := ""
			if ex != nil {
				id = ex.ID
			}
			slog.Error("safety gate panicked", "component", "clinical", "exercise_id", id, "gate", stage, "panic", fmt.Sprint(r))
			res = Result{Allowed: false, Reason: ReasonInternalError}
		}
	}()

	if ex == nil {
		return Result{Allowed: false, Reason: ReasonInvalidRecord}
	}
	if ctx == nil {
		return Result{Allowed: false, Reason: ReasonInternalError}
	}
	for _, g := range gates {
		stage = g.name
		if reason := g.check(ex, ctx, opts); reason != ReasonOK {
			return Result{Allowed: false, Reason: reason}
		}
	}
	return Result{Allowed: true, Reason: ReasonOK}
}

// Filter returns the allowed exercises and a count of rejections per reason.
func Filter(exercises []*catalog.Exercise, ctx *Context, opts Options) ([]*catalog.Exercise, map[Reason]int) {
	allowed := make([]*catalog.Exercise, 0, len(exercises))
	rejected := make(map[Reason]int)
	for _, ex := range exercises {
		res := CheckExerciseAvailability(ex, ctx, opts)
		if res.Allowed {
			allowed = append(allowed, ex)
			continue
		}
		rejected[res.Reason]++
	}
	return allowed, rejected
}

func blacklistGate(ex *catalog.Exercise, _ *Context, opts Options) Reason {
	if opts.Blacklist[ex.ID] {
		return ReasonBlacklisted
	}
	return ReasonOK
}

func equipmentGate(ex *catalog.Exercise, ctx *Context, opts Options) Reason {
	if opts.IgnoreEquipment {
		return ReasonOK
	}
	if !CheckEquipment(ex.Equipment, ctx.Equipment) {
		return ReasonMissingEquipment
	}
	return ReasonOK
}

func difficultyGate(ex *catalog.Exercise, ctx *Context, opts Options) Reason {
	if opts.IgnoreDifficulty {
		return ReasonOK
	}
	if ex.Difficulty > ctx.DifficultyCap {
		return ReasonDifficultyCap
	}
	return ReasonOK
}

func restrictionGate(ex *catalog.Exercise, ctx *Context, _ Options) Reason {
	r := ctx.Restrictions
	if r[RestrictionNoKneeling] {
		switch ex.Position {
		case catalog.PositionKneeling, catalog.PositionHalfKneeling, catalog.PositionQuadruped:
			return ReasonNoKneeling
		}
	}
	if r[RestrictionNoTwisting] && ex.Plane == catalog.PlaneRotation {
		return ReasonNoTwisting
	}
	if r[RestrictionNoFloorSitting] && ex.Position == catalog.PositionFloorSitting {
		return ReasonNoFloorSitting
	}
	if ex.Impact == catalog.LevelHigh {
		if r[RestrictionNoHighImpact] {
			return ReasonNoHighImpact
		}
		if ex.Difficulty < 3 || !ex.FootLoading || ex.Position != catalog.PositionStanding {
			return ReasonInconsistentImpact
		}
	}
	if r[RestrictionFootInjury] {
		if ex.FootLoading || footLoadingCategories[ex.Category] {
			return ReasonFootInjury
		}
		switch ex.Position {
		case catalog.PositionStanding, catalog.PositionHalfKneeling:
			return ReasonFootInjury
		}
	}
	if r[RestrictionNoKneeLoad] && ex.KneeLoad >= catalog.LevelMedium {
		return ReasonKneeLoad
	}
	if ctx.KneeDiagnosis && ex.KneeLoad == catalog.LevelHigh {
		return ReasonKneeLoad
	}
	return ReasonOK
}

func toleranceGate(ex *catalog.Exercise, ctx *Context, _ Options) Reason {
	if ctx.Tolerance == ToleranceFlexionIntolerant && ex.Plane == catalog.PlaneFlexion && !ex.HasTag(catalog.TagFlexionSafe) {
		return ReasonFlexionIntolerant
	}
	if ctx.Tolerance == ToleranceExtensionIntolerant && ex.Plane == catalog.PlaneExtension && !ex.HasTag(catalog.TagExtensionSafe) {
		return ReasonExtensionIntolerant
	}
	return ReasonOK
}

func severityGate(ex *catalog.Exercise, ctx *Context, opts Options) Reason {
	if !opts.StrictSeverity || !ctx.IsSevere {
		return ReasonOK
	}
	if ex.SpineLoad == catalog.LevelHigh {
		return ReasonSevereSpineLoad
	}
	if ex.KneeLoad == catalog.LevelHigh && ctx.HasKneePain {
		return ReasonSevereKneeLoad
	}
	if len(ctx.PainFilters) > 0 && !ex.RelievesAny(ctx.PainFilters) {
		return ReasonNoPainRelief
	}
	return ReasonOK
}

// CheckEquipment reports whether every required item is owned. Bodyweight
// synonyms are always available; other items match case-insensitively when
// either name contains the other.
func CheckEquipment(required, owned []string) bool {
	ownedNorm := make([]string, 0, len(owned))
	for _, o := range owned {
		if n := strings.ToLower(strings.TrimSpace(o)); n != "" {
			ownedNorm = append(ownedNorm, n)
		}
	}
	for _, req := range required {
		if catalog.IsBodyweight(req) {
			continue
		}
		need := strings.ToLower(strings.TrimSpace(req))
		found := false
		for _, have := range ownedNorm {
			if strings.Contains(have, need) || strings.Contains(need, have) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
