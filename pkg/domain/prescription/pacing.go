package prescription

import (
	"math"

	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
)

// DefaultSecondsPerRep is used when no pace statistic exists for an exercise.
const DefaultSecondsPerRep = 3.0

const (
	defaultRestSeconds        = 30
	unilateralTransition      = 12
	bilateralTransition       = 5
	amrapRestSeconds          = 60
	steadyStateRestSeconds    = 15
	moderateIntensityRestBump = 5
	highIntensityRestBump     = 15
	hardDifficultyRestBump    = 10
)

// baseRest is the rest between sets per category, in seconds.
var baseRest = map[string]int{
	catalog.CategoryBreathing:              10,
	catalog.CategorySpineMobility:          15,
	catalog.CategoryHipMobility:            15,
	catalog.CategoryThoracicMobility:       15,
	catalog.CategoryNerveFlossing:          20,
	catalog.CategoryStretching:             10,
	catalog.CategoryCoreAntiExtension:      30,
	catalog.CategoryCoreAntiRotation:       30,
	catalog.CategoryCoreAntiLateralFlexion: 30,
	catalog.CategoryGluteActivation:        30,
	catalog.CategoryLowerBodyStrength:      45,
	catalog.CategoryUpperBodyStrength:      45,
	catalog.CategoryBalance:                20,
	catalog.CategoryConditioningLowImpact:  30,
}

// BaseRestSeconds returns the rest between sets before the phase multiplier.
// A record-supplied base rest wins over the category table and the
// conditioning style.
func BaseRestSeconds(ex *catalog.Exercise) int {
	if ex.BaseRestSeconds > 0 {
		return ex.BaseRestSeconds
	}

	rest, ok := baseRest[ex.Category]
	if !ok {
		rest = defaultRestSeconds
	}
	switch ex.ConditioningStyle {
	case catalog.StyleInterval:
		if ex.Interval != nil {
			rest = ex.Interval.RestSeconds
		}
	case catalog.StyleAMRAP:
		rest = amrapRestSeconds
	case catalog.StyleSteadyState:
		rest = steadyStateRestSeconds
	}

	switch {
	case ex.MetabolicIntensity >= 4:
		rest += highIntensityRestBump
	case ex.MetabolicIntensity == 3:
		rest += moderateIntensityRestBump
	}
	if ex.Difficulty >= 4 {
		rest += hardDifficultyRestBump
	}
	return rest
}

// RestSeconds applies the phase rest multiplier to the base rest.
func RestSeconds(ex *catalog.Exercise, restMultiplier float64) int {
	if restMultiplier <= 0 {
		restMultiplier = 1.0
	}
	return int(math.Round(float64(BaseRestSeconds(ex)) * restMultiplier))
}

// TransitionSeconds is the setup time before the first set.
func TransitionSeconds(ex *catalog.Exercise) int {
	if ex.BaseTransitionSeconds > 0 {
		return ex.BaseTransitionSeconds
	}
	if ex.Unilateral {
		return unilateralTransition
	}
	return bilateralTransition
}
