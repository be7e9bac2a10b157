// Package catalog turns raw exercise rows into validated, normalized
// Exercise records. Structural problems are rejected, never defaulted.
package catalog

import "strings"

// Level is a three-step ordinal used for impact, knee load and spine load.
type Level int

const (
	LevelUnknown Level = iota
	LevelLow
	LevelMedium
	LevelHigh
)

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseLevel parses "low|medium|high" (case-insensitive, "moderate" accepted).
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return LevelLow
	case "medium", "moderate":
		return LevelMedium
	case "high":
		return LevelHigh
	default:
		return LevelUnknown
	}
}

// Planes of movement.
const (
	PlaneFlexion        = "flexion"
	PlaneExtension      = "extension"
	PlaneRotation       = "rotation"
	PlaneLateralFlexion = "lateral_flexion"
	PlaneSagittal       = "sagittal"
	PlaneFrontal        = "frontal"
	PlaneMulti          = "multi"
)

// Body positions.
const (
	PositionStanding     = "standing"
	PositionKneeling     = "kneeling"
	PositionHalfKneeling = "half_kneeling"
	PositionQuadruped    = "quadruped"
	PositionSupine       = "supine"
	PositionProne        = "prone"
	PositionSideLying    = "side_lying"
	PositionSitting      = "sitting"
	PositionFloorSitting = "floor_sitting"
)

// Conditioning styles.
const (
	StyleNone        = "none"
	StyleInterval    = "interval"
	StyleAMRAP       = "amrap"
	StyleSteadyState = "steady_state"
)

// Tolerance tags.
const (
	TagFlexionSafe   = "flexion_safe"
	TagExtensionSafe = "extension_safe"
)

// Categories known to the engine. The catalog may carry others; they get
// neutral treatment everywhere.
const (
	CategoryBreathing              = "breathing"
	CategorySpineMobility          = "spine_mobility"
	CategoryHipMobility            = "hip_mobility"
	CategoryThoracicMobility       = "thoracic_mobility"
	CategoryNerveFlossing          = "nerve_flossing"
	CategoryStretching             = "stretching"
	CategoryCoreAntiExtension      = "core_anti_extension"
	CategoryCoreAntiRotation       = "core_anti_rotation"
	CategoryCoreAntiLateralFlexion = "core_anti_lateral_flexion"
	CategoryGluteActivation        = "glute_activation"
	CategoryLowerBodyStrength      = "lower_body_strength"
	CategoryUpperBodyStrength      = "upper_body_strength"
	CategoryBalance                = "balance_proprioception"
	CategoryConditioningLowImpact  = "conditioning_low_impact"
	CategoryConditioningIntervals  = "conditioning_intervals"
)

// Group is a coarse family of categories used by section fit, set caps and
// weight scales.
type Group string

const (
	GroupBreathing    Group = "breathing"
	GroupMobility     Group = "mobility"
	GroupCore         Group = "core"
	GroupStrength     Group = "strength"
	GroupConditioning Group = "conditioning"
	GroupOther        Group = "other"
)

var categoryGroups = map[string]Group{
	CategoryBreathing:              GroupBreathing,
	CategorySpineMobility:          GroupMobility,
	CategoryHipMobility:            GroupMobility,
	CategoryThoracicMobility:       GroupMobility,
	CategoryNerveFlossing:          GroupMobility,
	CategoryStretching:             GroupMobility,
	CategoryCoreAntiExtension:      GroupCore,
	CategoryCoreAntiRotation:       GroupCore,
	CategoryCoreAntiLateralFlexion: GroupCore,
	CategoryGluteActivation:        GroupStrength,
	CategoryLowerBodyStrength:      GroupStrength,
	CategoryUpperBodyStrength:      GroupStrength,
	CategoryBalance:                GroupStrength,
	CategoryConditioningLowImpact:  GroupConditioning,
	CategoryConditioningIntervals:  GroupConditioning,
}

// GroupOf returns the family group of a category id.
func GroupOf(category string) Group {
	if g, ok := categoryGroups[category]; ok {
		return g
	}
	if strings.HasPrefix(category, "conditioning") {
		return GroupConditioning
	}
	if strings.HasPrefix(category, "core") {
		return GroupCore
	}
	return GroupOther
}

// Interval describes work/rest seconds for interval conditioning.
type Interval struct {
	WorkSeconds int `json:"work_seconds" firestore:"work_seconds"`
	RestSeconds int `json:"rest_seconds" firestore:"rest_seconds"`
}

// Exercise is a validated, normalized catalog record.
type Exercise struct {
	ID                    string
	Name                  string
	Category              string
	Difficulty            int
	Plane                 string
	Position              string
	Unilateral            bool
	FootLoading           bool
	Timed                 bool
	Equipment             []string
	Impact                Level
	KneeLoad              Level
	SpineLoad             Level
	MetabolicIntensity    int
	PainReliefZones       []string
	ToleranceTags         []string
	ConditioningStyle     string
	Interval              *Interval
	MaxReps               int
	MaxDurationSeconds    int
	BaseRestSeconds       int
	BaseTransitionSeconds int
}

// FamilyKey is category+plane+position+laterality. Anchor and variety
// accounting happens per family.
func (e *Exercise) FamilyKey() string {
	side := "bilateral"
	if e.Unilateral {
		side = "unilateral"
	}
	return e.Category + "|" + e.Plane + "|" + e.Position + "|" + side
}

// HasTag reports whether the record carries the given tolerance tag.
func (e *Exercise) HasTag(tag string) bool {
	for _, t := range e.ToleranceTags {
		if t == tag {
			return true
		}
	}
	return false
}

// RelievesAny reports whether any pain relief zone is in the given set.
func (e *Exercise) RelievesAny(zones map[string]bool) bool {
	for _, z := range e.PainReliefZones {
		if zones[z] {
			return true
		}
	}
	return false
}

// IsLying reports whether the position is fully recumbent.
func IsLying(position string) bool {
	switch position {
	case PositionSupine, PositionProne, PositionSideLying:
		return true
	}
	return false
}
