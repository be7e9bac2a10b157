// Package clinical derives the clinical context of a user and decides,
// exercise by exercise, whether an exercise is safe for them.
package clinical

import (
	"strings"

	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
)

// Restrictions understood by the gates.
const (
	RestrictionNoKneeling     = "no_kneeling"
	RestrictionNoTwisting     = "no_twisting"
	RestrictionNoFloorSitting = "no_floor_sitting"
	RestrictionNoHighImpact   = "no_high_impact"
	RestrictionFootInjury     = "foot_injury"
	RestrictionNoKneeLoad     = "no_knee_load"
)

// Pain characters that amplify severity.
var amplifyingCharacters = map[string]bool{
	"sharp":     true,
	"burning":   true,
	"radiating": true,
}

var knownExperience = map[string]int{
	profile.ExperienceNone:       1,
	profile.ExperienceOccasional: 2,
	profile.ExperienceRegular:    3,
	profile.ExperienceAdvanced:   4,
}

// Pain locations that also imply a broader zone.
var zoneAdjacency = map[string][]string{
	"si_joint": {"lumbar_general"},
	"hip":      {"lumbar_general"},
	"knee":     {"knee"},
}

var kneeDiagnoses = []string{
	"chondromalacia",
	"patellofemoral_pain",
	"knee_oa",
	"meniscus_tear",
	"acl_reconstruction",
}

const (
	severeThreshold   = 6.5
	moderateThreshold = 4.0
	severityAmplifier = 1.2
	maxSeverity       = 10.0
)

// TolerancePattern is the movement direction a user tolerates badly.
type TolerancePattern string

const (
	ToleranceNeutral             TolerancePattern = "neutral"
	ToleranceFlexionIntolerant   TolerancePattern = "flexion_intolerant"
	ToleranceExtensionIntolerant TolerancePattern = "extension_intolerant"
)

// Context is the per-user clinical context. It is a pure function of the
// intake and is never persisted.
type Context struct {
	Severity            float64
	IsSevere            bool
	DifficultyCap       int
	Tolerance           TolerancePattern
	PainFilters         map[string]bool
	Restrictions        map[string]bool
	KneeDiagnosis       bool
	HasKneePain         bool
	Equipment           []string
}

// BuildUserContext derives severity, difficulty cap, tolerance patterns and
// pain filters from the intake.
func BuildUserContext(p *profile.UserProfile) *Context {
	if p == nil {
		p = &profile.UserProfile{}
	}

	severity := (clamp(p.PainIntensity, 0, 10) + clamp(p.DailyImpact, 0, 10)) / 2
	sharp := false
	for _, c := range p.PainCharacter {
		if amplifyingCharacters[normalize(c)] {
			sharp = true
			break
		}
	}
	if sharp {
		severity *= severityAmplifier
	}
	severity = clamp(severity, 0, maxSeverity)
	isSevere := severity >= severeThreshold

	difficultyCap := knownExperience[p.ExperienceOrDefault()]
	if isSevere && difficultyCap > 2 {
		difficultyCap = 2
	} else if sharp && severity >= moderateThreshold && difficultyCap > 3 {
		difficultyCap = 3
	}

	filters := make(map[string]bool)
	for _, loc := range p.PainLocations {
		n := normalize(loc)
		if n == "" {
			continue
		}
		filters[n] = true
		for _, adj := range zoneAdjacency[n] {
			filters[adj] = true
		}
	}

	restrictions := make(map[string]bool, len(p.Restrictions))
	for _, r := range p.Restrictions {
		if n := normalize(r); n != "" {
			restrictions[n] = true
		}
	}

	kneeDx := false
	for _, d := range kneeDiagnoses {
		if p.HasDiagnosis(d) {
			kneeDx = true
			break
		}
	}


	return &Context{
		Severity:            severity,
		IsSevere:            isSevere,
		DifficultyCap:       difficultyCap,
		Tolerance:           tolerancePattern(p),
		PainFilters:         filters,
		Restrictions:        restrictions,
		KneeDiagnosis:       kneeDx,
		HasKneePain:         filters["knee"],
		Equipment:           catalog.NormalizeEquipment(p.Equipment),
	}
}

// tolerancePattern: forward bending that hurts or backward bending that
// helps means flexion intolerance, and the mirror case extension
// intolerance. Flexion is checked first.
func tolerancePattern(p *profile.UserProfile) TolerancePattern {
	triggers := movementDirections(p.TriggerMovements)
	reliefs := movementDirections(p.ReliefMovements)
	switch {
	case triggers["flexion"] || reliefs["extension"]:
		return ToleranceFlexionIntolerant
	case triggers["extension"] || reliefs["flexion"]:
		return ToleranceExtensionIntolerant
	}
	return ToleranceNeutral
}

func movementDirections(movements []string) map[string]bool {
	out := make(map[string]bool, 2)
	for _, m := range movements {
		n := normalize(m)
		switch {
		case strings.Contains(n, "flexion"), strings.Contains(n, "bending_forward"),
			strings.Contains(n, "sitting"), strings.Contains(n, "lifting"):
			out["flexion"] = true
		case strings.Contains(n, "extension"), strings.Contains(n, "bending_backward"),
			strings.Contains(n, "standing_long"), strings.Contains(n, "arching"):
			out["extension"] = true
		}
	}
	return out
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.Join(strings.Fields(s), "_")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
