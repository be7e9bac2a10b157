// Package profile holds the normalized user intake used by every planning
// component.
package profile

import (
	"strings"
	"time"
)

// Experience levels.
const (
	ExperienceNone       = "none"
	ExperienceOccasional = "occasional"
	ExperienceRegular    = "regular"
	ExperienceAdvanced   = "advanced"
)

// Components a user can bias toward or away from.
const (
	ComponentMobility     = "mobility"
	ComponentStrength     = "strength"
	ComponentConditioning = "conditioning"
)

// Bias levels for a component.
const (
	BiasLow    = "low"
	BiasNormal = "normal"
	BiasHigh   = "high"
)

// Goals.
const (
	GoalPainRelief = "pain_relief"
	GoalMobility   = "mobility"
	GoalStrength   = "strength"
	GoalPosture    = "posture"
	GoalFitness    = "fitness"
	GoalPrevention = "prevention"
)

// UserProfile is the intake payload after upstream validation.
type UserProfile struct {
	UserID string `json:"user_id" firestore:"user_id"`

	PainIntensity    float64  `json:"pain_intensity" firestore:"pain_intensity"`
	DailyImpact      float64  `json:"daily_impact" firestore:"daily_impact"`
	PainCharacter    []string `json:"pain_character" firestore:"pain_character"`
	PainLocations    []string `json:"pain_locations" firestore:"pain_locations"`
	TriggerMovements []string `json:"trigger_movements" firestore:"trigger_movements"`
	ReliefMovements  []string `json:"relief_movements" firestore:"relief_movements"`

	Experience   string   `json:"experience" firestore:"experience"`
	Equipment    []string `json:"equipment" firestore:"equipment"`
	Restrictions []string `json:"restrictions" firestore:"restrictions"`
	Diagnoses    []string `json:"diagnoses" firestore:"diagnoses"`
	FocusAreas   []string `json:"focus_areas" firestore:"focus_areas"`
	WorkType     string   `json:"work_type" firestore:"work_type"`
	Hobbies      []string `json:"hobbies" firestore:"hobbies"`

	ComponentBias map[string]string `json:"component_bias" firestore:"component_bias"`
	PrimaryGoal   string            `json:"primary_goal" firestore:"primary_goal"`
	SecondaryGoal string            `json:"secondary_goal" firestore:"secondary_goal"`

	SessionsPerWeek int            `json:"sessions_per_week" firestore:"sessions_per_week"`
	TargetMinutes   int            `json:"target_minutes" firestore:"target_minutes"`
	ScheduleDays    []time.Weekday `json:"schedule_days" firestore:"schedule_days"`
	// ForcedRestDates are YYYY-MM-DD dates that must be rest days.
	ForcedRestDates []string `json:"forced_rest_dates" firestore:"forced_rest_dates"`
	BlueprintID     string   `json:"blueprint_id" firestore:"blueprint_id"`
}

// Bias returns the bias for a component, defaulting to normal.
func (p *UserProfile) Bias(component string) string {
	if p == nil || p.ComponentBias == nil {
		return BiasNormal
	}
	switch strings.ToLower(p.ComponentBias[component]) {
	case BiasLow:
		return BiasLow
	case BiasHigh:
		return BiasHigh
	default:
		return BiasNormal
	}
}

// HasRestriction reports whether the restriction is present (case-insensitive).
func (p *UserProfile) HasRestriction(r string) bool {
	return containsFold(p.Restrictions, r)
}

// HasDiagnosis reports whether the diagnosis is present (case-insensitive).
func (p *UserProfile) HasDiagnosis(d string) bool {
	return containsFold(p.Diagnoses, d)
}

// ExperienceOrDefault returns the experience level, falling back to none.
func (p *UserProfile) ExperienceOrDefault() string {
	switch strings.ToLower(p.Experience) {
	case ExperienceOccasional, ExperienceRegular, ExperienceAdvanced:
		return strings.ToLower(p.Experience)
	default:
		return ExperienceNone
	}
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}
