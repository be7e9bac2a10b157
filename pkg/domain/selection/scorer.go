package selection

import (
	"strings"
	"time"

	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/clinical"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
	"github.com/ripixel/fitglue-planner/pkg/domain/weights"
)

// ExerciseStats is the per-user history of one exercise.
type ExerciseStats struct {
	Affinity      float64   `json:"affinity" firestore:"affinity"`
	LastSeen      time.Time `json:"last_seen" firestore:"last_seen"`
	SecondsPerRep float64   `json:"seconds_per_rep" firestore:"seconds_per_rep"`
}

const (
	anchorOveruseSlope    = 1.2
	nonAnchorWeeklySlope  = 1.5
	sameSessionPenalty    = 0.1
	painSafetyFloor       = 0.10
	maxAffinityMultiplier = 2.0
)

var sectionFit = map[Section]map[catalog.Group]float64{
	SectionWarmup: {
		catalog.GroupBreathing:    1.6,
		catalog.GroupMobility:     1.5,
		catalog.GroupCore:         0.7,
		catalog.GroupStrength:     0.4,
		catalog.GroupConditioning: 0.3,
		catalog.GroupOther:        0.5,
	},
	SectionMain: {
		catalog.GroupBreathing:    0.15,
		catalog.GroupMobility:     0.5,
		catalog.GroupCore:         1.2,
		catalog.GroupStrength:     1.3,
		catalog.GroupConditioning: 1.0,
		catalog.GroupOther:        0.8,
	},
	SectionCooldown: {
		catalog.GroupBreathing:    1.8,
		catalog.GroupMobility:     1.6,
		catalog.GroupCore:         0.3,
		catalog.GroupStrength:     0.2,
		catalog.GroupConditioning: 0.1,
		catalog.GroupOther:        0.5,
	},
}

var spineZones = []string{"lumbar_general", "si_joint", "sciatica", "thoracic", "cervical"}

// Scorer computes the selection score of an exercise for one user and one
// planning run.
type Scorer struct {
	Context *clinical.Context
	Profile *profile.UserProfile
	Weights weights.Map
	Stats   map[string]ExerciseStats
	Now     time.Time
}

// Breakdown lists every factor of a score.
type Breakdown struct {
	CategoryWeight float64 `json:"category_weight"`
	SectionFit     float64 `json:"section_fit"`
	PainReliefFit  float64 `json:"pain_relief_fit"`
	PainSafety     float64 `json:"pain_safety"`
	Goal           float64 `json:"goal"`
	Variety        float64 `json:"variety"`
	Affinity       float64 `json:"affinity"`
	Freshness      float64 `json:"freshness"`
}

// Total is the product of all factors.
func (b Breakdown) Total() float64 {
	return b.CategoryWeight * b.SectionFit * b.PainReliefFit * b.PainSafety *
		b.Goal * b.Variety * b.Affinity * b.Freshness
}

// Score is Explain(...).Total().
func (sc *Scorer) Score(ex *catalog.Exercise, section Section, state *State) float64 {
	return sc.Explain(ex, section, state).Total()
}

// Explain returns the factor breakdown.
func (sc *Scorer) Explain(ex *catalog.Exercise, section Section, state *State) Breakdown {
	return Breakdown{
		CategoryWeight: sc.Weights.Get(ex.Category),
		SectionFit:     SectionFit(ex, section),
		PainReliefFit:  sc.PainReliefFit(ex),
		PainSafety:     sc.PainSafetyPenalty(ex),
		Goal:           sc.GoalMultiplier(ex, section),
		Variety:        VarietyPenalty(ex, state),
		Affinity:       sc.AffinityMultiplier(ex),
		Freshness:      sc.FreshnessMultiplier(ex),
	}
}

// SectionFit rewards exercises whose group suits the section.
func SectionFit(ex *catalog.Exercise, section Section) float64 {
	table, ok := sectionFit[section]
	if !ok {
		return 1.0
	}
	fit := table[catalog.GroupOf(ex.Category)]
	switch {
	case section == SectionWarmup && ex.Category == catalog.CategoryConditioningLowImpact:
		fit = 0.6
	case section == SectionCooldown && ex.Category == catalog.CategoryStretching:
		fit = 1.8
	}
	return fit
}

// PainReliefFit boosts exercises that relieve one of the user's pain zones.
func (sc *Scorer) PainReliefFit(ex *catalog.Exercise) float64 {
	if sc.Context == nil || len(sc.Context.PainFilters) == 0 {
		return 1.0
	}
	if !ex.RelievesAny(sc.Context.PainFilters) {
		return 1.0
	}
	if sc.Context.IsSevere {
		return 1.5
	}
	return 1.3
}

// PainSafetyPenalty discounts loads that conflict with pain locations.
// Severe users get harsher factors; the result never drops below 0.10.
func (sc *Scorer) PainSafetyPenalty(ex *catalog.Exercise) float64 {
	if sc.Context == nil {
		return 1.0
	}
	severe := sc.Context.IsSevere
	penalty := 1.0

	loadFactor := func(l catalog.Level) float64 {
		switch l {
		case catalog.LevelHigh:
			if severe {
				return 0.10
			}
			return 0.25
		case catalog.LevelMedium:
			if severe {
				return 0.5
			}
			return 0.7
		}
		return 1.0
	}

	for _, z := range spineZones {
		if sc.Context.PainFilters[z] {
			penalty *= loadFactor(ex.SpineLoad)
			break
		}
	}
	if sc.Context.HasKneePain {
		penalty *= loadFactor(ex.KneeLoad)
	}
	if sc.Context.PainFilters["hip"] {
		switch ex.Impact {
		case catalog.LevelHigh:
			penalty *= 0.5
		case catalog.LevelMedium:
			penalty *= 0.8
		}
	}
	if penalty < painSafetyFloor {
		penalty = painSafetyFloor
	}
	return penalty
}

// GoalMultiplier nudges exercises matching the primary goal.
func (sc *Scorer) GoalMultiplier(ex *catalog.Exercise, section Section) float64 {
	if sc.Profile == nil {
		return 1.0
	}
	group := catalog.GroupOf(ex.Category)
	switch strings.ToLower(sc.Profile.PrimaryGoal) {
	case profile.GoalStrength:
		if section == SectionMain && group == catalog.GroupStrength {
			return 1.2
		}
	case profile.GoalPainRelief:
		if group == catalog.GroupMobility || group == catalog.GroupBreathing {
			return 1.15
		}
	case profile.GoalFitness:
		if group == catalog.GroupConditioning {
			return 1.2
		}
	case profile.GoalPosture:
		if ex.Category == catalog.CategoryThoracicMobility || ex.Category == catalog.CategoryUpperBodyStrength {
			return 1.1
		}
	}
	return 1.0
}

// VarietyPenalty discourages repeating a movement family. Reuse within the
// same session is x0.1 regardless of anchor status. Otherwise anchors are
// free until their weekly target and decay after it; non-anchors decay
// with every weekly use.
func VarietyPenalty(ex *catalog.Exercise, state *State) float64 {
	if state == nil {
		return 1.0
	}
	family := ex.FamilyKey()
	if state.FamilySession[family] > 0 {
		return sameSessionPenalty
	}
	used := state.FamilyWeek[family]
	if state.Anchors[family] {
		target := state.AnchorTarget
		if used < target {
			return 1.0
		}
		return 1.0 / (1.0 + float64(used-target+1)*anchorOveruseSlope)
	}
	return 1.0 / (1.0 + nonAnchorWeeklySlope*float64(used))
}

// AffinityMultiplier maps the user's affinity score [-100, 100] to [0, 2].
func (sc *Scorer) AffinityMultiplier(ex *catalog.Exercise) float64 {
	stats, ok := sc.Stats[ex.ID]
	if !ok {
		return 1.0
	}
	m := (stats.Affinity + 100) / 100
	if m < 0 {
		return 0
	}
	if m > maxAffinityMultiplier {
		return maxAffinityMultiplier
	}
	return m
}

// FreshnessMultiplier favours exercises the user has not seen recently.
func (sc *Scorer) FreshnessMultiplier(ex *catalog.Exercise) float64 {
	stats, ok := sc.Stats[ex.ID]
	if !ok || stats.LastSeen.IsZero() {
		return 1.2
	}
	days := sc.Now.Sub(stats.LastSeen).Hours() / 24
	switch {
	case days <= 2:
		return 0.1
	case days <= 5:
		return 0.5
	case days >= 14:
		return 1.2
	default:
		return 1.0
	}
}
