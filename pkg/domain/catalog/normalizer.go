package catalog

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	planerrors "github.com/ripixel/fitglue-planner/pkg/errors"
)

// RawExercise is a catalog row as stored upstream. Fields are loosely typed
// and may be missing, inconsistently cased or use aliases.
type RawExercise struct {
	ID                    string    `json:"id" firestore:"id"`
	Name                  string    `json:"name" firestore:"name"`
	Category              string    `json:"category" firestore:"category"`
	Difficulty            int       `json:"difficulty" firestore:"difficulty"`
	Plane                 string    `json:"plane" firestore:"plane"`
	Position              string    `json:"position" firestore:"position"`
	Unilateral            bool      `json:"unilateral" firestore:"unilateral"`
	FootLoading           bool      `json:"foot_loading" firestore:"foot_loading"`
	Timed                 bool      `json:"timed" firestore:"timed"`
	Equipment             []string  `json:"equipment" firestore:"equipment"`
	ImpactLevel           string    `json:"impact_level" firestore:"impact_level"`
	KneeLoad              string    `json:"knee_load" firestore:"knee_load"`
	SpineLoad             string    `json:"spine_load" firestore:"spine_load"`
	MetabolicIntensity    int       `json:"metabolic_intensity" firestore:"metabolic_intensity"`
	PainReliefZones       []string  `json:"pain_relief_zones" firestore:"pain_relief_zones"`
	ToleranceTags         []string  `json:"tolerance_tags" firestore:"tolerance_tags"`
	ConditioningStyle     string    `json:"conditioning_style" firestore:"conditioning_style"`
	Interval              *Interval `json:"interval,omitempty" firestore:"interval,omitempty"`
	MaxReps               int       `json:"max_reps" firestore:"max_reps"`
	MaxDurationSeconds    int       `json:"max_duration_seconds" firestore:"max_duration_seconds"`
	BaseRestSeconds       int       `json:"base_rest_seconds" firestore:"base_rest_seconds"`
	BaseTransitionSeconds int       `json:"base_transition_seconds" firestore:"base_transition_seconds"`
}

// RejectReason enumerates why a row was rejected.
type RejectReason string

const (
	RejectMissingID           RejectReason = "missing_id"
	RejectMissingCategory     RejectReason = "missing_category"
	RejectMissingPosition     RejectReason = "missing_position"
	RejectMissingImpact       RejectReason = "missing_impact_level"
	RejectDifficultyRange     RejectReason = "difficulty_out_of_range"
	RejectImpactFootLoading   RejectReason = "high_impact_without_foot_loading"
	RejectImpactPosition      RejectReason = "high_impact_not_standing"
	RejectFootLoadingPosition RejectReason = "foot_loading_while_lying"
	RejectIntervalMissing     RejectReason = "interval_spec_missing"
	RejectIntervalMalformed   RejectReason = "interval_spec_malformed"
)

// Rejection pairs a raw row id with the reason it was dropped.
type Rejection struct {
	ID     string
	Reason RejectReason
}

func (r Rejection) Error() string {
	return fmt.Sprintf("exercise %q rejected: %s", r.ID, r.Reason)
}

var positionAliases = map[string]string{
	"stand":         PositionStanding,
	"standing":      PositionStanding,
	"kneel":         PositionKneeling,
	"kneeling":      PositionKneeling,
	"tall_kneeling": PositionKneeling,
	"half_kneeling": PositionHalfKneeling,
	"quadruped":     PositionQuadruped,
	"all_fours":     PositionQuadruped,
	"supine":        PositionSupine,
	"lying_back":    PositionSupine,
	"prone":         PositionProne,
	"lying_front":   PositionProne,
	"side_lying":    PositionSideLying,
	"sitting":       PositionSitting,
	"seated":        PositionSitting,
	"chair":         PositionSitting,
	"floor_sitting": PositionFloorSitting,
	"long_sitting":  PositionFloorSitting,
	"cross_legged":  PositionFloorSitting,
}

var planeAliases = map[string]string{
	"flexion":         PlaneFlexion,
	"extension":       PlaneExtension,
	"rotation":        PlaneRotation,
	"transverse":      PlaneRotation,
	"twist":           PlaneRotation,
	"lateral_flexion": PlaneLateralFlexion,
	"side_bend":       PlaneLateralFlexion,
	"lateral":         PlaneLateralFlexion,
	"sagittal":        PlaneSagittal,
	"frontal":         PlaneFrontal,
	"multi":           PlaneMulti,
	"multiplanar":     PlaneMulti,
}

// Whole-label equipment aliases.
var equipmentAliases = map[string]string{
	"band":       "resistance band",
	"bands":      "resistance band",
	"mini band":  "resistance band",
	"trx":        "suspension trainer",
	"swiss":      "swiss ball",
	"fitball":    "swiss ball",
	"foam":       "foam roller",
	"step":       "step platform",
	"yoga block": "block",
}

// Equipment abbreviations expanded word by word.
var equipmentAbbreviations = map[string]string{
	"db":  "dumbbell",
	"dbs": "dumbbell",
	"kb":  "kettlebell",
	"bb":  "barbell",
}

var bodyweightSynonyms = map[string]bool{
	"none":         true,
	"bodyweight":   true,
	"body weight":  true,
	"brak":         true,
	"no equipment": true,
	"":             true,
}

// IsBodyweight reports whether an equipment label means "nothing required".
func IsBodyweight(item string) bool {
	return bodyweightSynonyms[strings.ToLower(strings.TrimSpace(item))]
}

// Normalize validates one raw row. The error is a Rejection wrapped in an
// INVALID_EXERCISE_RECORD PlanError.
func Normalize(raw RawExercise) (*Exercise, error) {
	reject := func(reason RejectReason) (*Exercise, error) {
		rej := Rejection{ID: raw.ID, Reason: reason}
		return nil, planerrors.ErrInvalidExerciseRecord.WithCause(rej).WithMetadata("exercise_id", raw.ID)
	}

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return reject(RejectMissingID)
	}
	category := normalizeToken(raw.Category)
	if category == "" {
		return reject(RejectMissingCategory)
	}
	position, ok := positionAliases[normalizeToken(raw.Position)]
	if !ok {
		return reject(RejectMissingPosition)
	}
	impact := ParseLevel(raw.ImpactLevel)
	if impact == LevelUnknown {
		return reject(RejectMissingImpact)
	}
	if raw.Difficulty < 1 || raw.Difficulty > 5 {
		return reject(RejectDifficultyRange)
	}
	if impact == LevelHigh && !raw.FootLoading {
		return reject(RejectImpactFootLoading)
	}
	if impact == LevelHigh && position != PositionStanding {
		return reject(RejectImpactPosition)
	}
	if raw.FootLoading && IsLying(position) {
		return reject(RejectFootLoadingPosition)
	}

	style := normalizeToken(raw.ConditioningStyle)
	if style == "" {
		style = StyleNone
	}
	if style == StyleInterval && raw.Interval == nil {
		return reject(RejectIntervalMissing)
	}
	var interval *Interval
	if raw.Interval != nil {
		if raw.Interval.WorkSeconds <= 0 || raw.Interval.RestSeconds < 0 {
			return reject(RejectIntervalMalformed)
		}
		iv := *raw.Interval
		interval = &iv
	}

	plane, ok := planeAliases[normalizeToken(raw.Plane)]
	if !ok {
		plane = PlaneMulti
	}

	metabolic := raw.MetabolicIntensity
	if metabolic < 1 {
		metabolic = 1
	}
	if metabolic > 5 {
		metabolic = 5
	}

	// Secondary loads are optional; unknown is treated as low.
	knee := ParseLevel(raw.KneeLoad)
	if knee == LevelUnknown {
		knee = LevelLow
	}
	spine := ParseLevel(raw.SpineLoad)
	if spine == LevelUnknown {
		spine = LevelLow
	}

	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = id
	}

	return &Exercise{
		ID:                    id,
		Name:                  name,
		Category:              category,
		Difficulty:            raw.Difficulty,
		Plane:                 plane,
		Position:              position,
		Unilateral:            raw.Unilateral,
		FootLoading:           raw.FootLoading,
		Timed:                 raw.Timed,
		Equipment:             NormalizeEquipment(raw.Equipment),
		Impact:                impact,
		KneeLoad:              knee,
		SpineLoad:             spine,
		MetabolicIntensity:    metabolic,
		PainReliefZones:       normalizeSet(raw.PainReliefZones),
		ToleranceTags:         normalizeSet(raw.ToleranceTags),
		ConditioningStyle:     style,
		Interval:              interval,
		MaxReps:               max(raw.MaxReps, 0),
		MaxDurationSeconds:    max(raw.MaxDurationSeconds, 0),
		BaseRestSeconds:       max(raw.BaseRestSeconds, 0),
		BaseTransitionSeconds: max(raw.BaseTransitionSeconds, 0),
	}, nil
}

// NormalizeAll normalizes every row, returning accepted records (in input
// order) and the rejections.
func NormalizeAll(raws []RawExercise) ([]*Exercise, []Rejection) {
	out := make([]*Exercise, 0, len(raws))
	var rejected []Rejection
	seen := make(map[string]bool, len(raws))
	for _, raw := range raws {
		ex, err := Normalize(raw)
		if err != nil {
			rejected = append(rejected, rejectionFrom(raw.ID, err))
			continue
		}
		if seen[ex.ID] {
			continue
		}
		seen[ex.ID] = true
		out = append(out, ex)
	}
	return out, rejected
}

func rejectionFrom(id string, err error) Rejection {
	if pe, ok := err.(*planerrors.PlanError); ok {
		if rej, ok := pe.Cause.(Rejection); ok {
			return rej
		}
	}
	return Rejection{ID: id, Reason: RejectReason(err.Error())}
}

// NormalizeEquipment lower-cases, expands abbreviations and de-duplicates.
// Bodyweight synonyms collapse to "bodyweight".
func NormalizeEquipment(items []string) []string {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		n := normalizeWords(item)
		if IsBodyweight(n) {
			n = "bodyweight"
		} else {
			n = expandAbbreviations(n)
		}
		set[n] = true
	}
	return sortedKeys(set)
}

// normalizeToken lower-cases and joins words with underscores.
func normalizeToken(s string) string {
	return strings.ReplaceAll(normalizeWords(s), " ", "_")
}

// normalizeWords lower-cases, maps separators to spaces and collapses runs.
func normalizeWords(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '_' || r == '-' || r == ' ' || r == '/':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func expandAbbreviations(s string) string {
	if alias, ok := equipmentAliases[s]; ok {
		return alias
	}
	words := strings.Fields(s)
	for i, w := range words {
		if expanded, ok := equipmentAbbreviations[w]; ok {
			words[i] = expanded
		}
	}
	return strings.Join(words, " ")
}

func normalizeSet(items []string) []string {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		if t := normalizeToken(item); t != "" {
			set[t] = true
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
