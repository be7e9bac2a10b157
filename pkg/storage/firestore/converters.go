package firestore

import (
	"strconv"
	"strings"
	"time"

	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/fatigue"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
	"github.com/ripixel/fitglue-planner/pkg/domain/selection"
)

// Helper to safely get string from map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Helper to safely get bool from map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// getFloat accepts any numeric representation, including numeric strings
// left behind by older imports.
func getFloat(m map[string]interface{}, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func getInt(m map[string]interface{}, key string) int {
	f, _ := getFloat(m, key)
	return int(f)
}

func getIntPtr(m map[string]interface{}, key string) *int {
	f, ok := getFloat(m, key)
	if !ok {
		return nil
	}
	i := int(f)
	return &i
}

func getFloatPtr(m map[string]interface{}, key string) *float64 {
	f, ok := getFloat(m, key)
	if !ok {
		return nil
	}
	return &f
}

// Helper to safely get time from map (handles time.Time from Firestore)
func getTime(m map[string]interface{}, key string) time.Time {
	if v, ok := m[key]; ok {
		switch t := v.(type) {
		case time.Time:
			return t
		case string:
			if parsed, err := time.Parse(time.RFC3339, t); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

// getStrings accepts a list or a single comma separated string.
func getStrings(m map[string]interface{}, key string) []string {
	switch v := m[key].(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return nil
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

// --- Exercise Converters ---

// FirestoreToRawExercise reads a catalog row. Rows are loosely typed so
// every field tolerates strings and numbers alike; validation happens in
// the normalizer.
func FirestoreToRawExercise(id string, m map[string]interface{}) catalog.RawExercise {
	r := catalog.RawExercise{
		ID:                    getString(m, "id"),
		Name:                  getString(m, "name"),
		Category:              getString(m, "category"),
		Difficulty:            getInt(m, "difficulty"),
		Plane:                 getString(m, "plane"),
		Position:              getString(m, "position"),
		Unilateral:            getBool(m, "unilateral"),
		FootLoading:           getBool(m, "foot_loading"),
		Timed:                 getBool(m, "timed"),
		Equipment:             getStrings(m, "equipment"),
		ImpactLevel:           getString(m, "impact_level"),
		KneeLoad:              getString(m, "knee_load"),
		SpineLoad:             getString(m, "spine_load"),
		MetabolicIntensity:    getInt(m, "metabolic_intensity"),
		PainReliefZones:       getStrings(m, "pain_relief_zones"),
		ToleranceTags:         getStrings(m, "tolerance_tags"),
		ConditioningStyle:     getString(m, "conditioning_style"),
		MaxReps:               getInt(m, "max_reps"),
		MaxDurationSeconds:    getInt(m, "max_duration_seconds"),
		BaseRestSeconds:       getInt(m, "base_rest_seconds"),
		BaseTransitionSeconds: getInt(m, "base_transition_seconds"),
	}
	if r.ID == "" {
		r.ID = id
	}
	if iv := getMap(m, "interval"); iv != nil {
		r.Interval = &catalog.Interval{
			WorkSeconds: getInt(iv, "work_seconds"),
			RestSeconds: getInt(iv, "rest_seconds"),
		}
	}
	return r
}

// --- UserProfile Converters ---

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func parseWeekdays(m map[string]interface{}, key string) []time.Weekday {
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]time.Weekday, 0, len(raw))
	for _, v := range raw {
		switch d := v.(type) {
		case int64:
			if d >= 0 && d <= 6 {
				out = append(out, time.Weekday(d))
			}
		case string:
			s := strings.ToLower(strings.TrimSpace(d))
			if len(s) >= 3 {
				if wd, ok := weekdayNames[s[:3]]; ok {
					out = append(out, wd)
				}
			}
		}
	}
	return out
}

func FirestoreToUserProfile(id string, m map[string]interface{}) *profile.UserProfile {
	p := &profile.UserProfile{
		UserID:           getString(m, "user_id"),
		PainCharacter:    getStrings(m, "pain_character"),
		PainLocations:    getStrings(m, "pain_locations"),
		TriggerMovements: getStrings(m, "trigger_movements"),
		ReliefMovements:  getStrings(m, "relief_movements"),
		Experience:       getString(m, "experience"),
		Equipment:        getStrings(m, "equipment"),
		Restrictions:     getStrings(m, "restrictions"),
		Diagnoses:        getStrings(m, "diagnoses"),
		FocusAreas:       getStrings(m, "focus_areas"),
		WorkType:         getString(m, "work_type"),
		Hobbies:          getStrings(m, "hobbies"),
		PrimaryGoal:      getString(m, "primary_goal"),
		SecondaryGoal:    getString(m, "secondary_goal"),
		SessionsPerWeek:  getInt(m, "sessions_per_week"),
		TargetMinutes:    getInt(m, "target_minutes"),
		ScheduleDays:     parseWeekdays(m, "schedule_days"),
		ForcedRestDates:  getStrings(m, "forced_rest_dates"),
		BlueprintID:      getString(m, "blueprint_id"),
	}
	if p.UserID == "" {
		p.UserID = id
	}
	p.PainIntensity, _ = getFloat(m, "pain_intensity")
	p.DailyImpact, _ = getFloat(m, "daily_impact")
	if bias := getMap(m, "component_bias"); bias != nil {
		p.ComponentBias = make(map[string]string, len(bias))
		for k, v := range bias {
			if s, ok := v.(string); ok {
				p.ComponentBias[k] = s
			}
		}
	}
	return p
}

// --- Session Converters ---

func FirestoreToSession(id string, m map[string]interface{}) fatigue.SessionRecord {
	s := fatigue.SessionRecord{
		ID:             id,
		UserID:         getString(m, "user_id"),
		CompletedAt:    getTime(m, "completed_at"),
		TrackedSeconds: getInt(m, "tracked_seconds"),
		ExerciseCount:  getInt(m, "exercise_count"),
		ExerciseIDs:    getStrings(m, "exercise_ids"),
		RPE:            getFloatPtr(m, "rpe"),
		PainDuring:     getIntPtr(m, "pain_during"),
		PainDelta24h:   getIntPtr(m, "pain_delta_24h"),
	}
	if started := getTime(m, "started_at"); !started.IsZero() {
		s.StartedAt = &started
	}
	if s.ExerciseCount == 0 {
		s.ExerciseCount = len(s.ExerciseIDs)
	}
	if fb := getMap(m, "feedback"); fb != nil {
		s.Feedback = &fatigue.Feedback{Value: getInt(fb, "value"), Type: getString(fb, "type")}
	}
	return s
}

// --- ExerciseStats Converters ---

func FirestoreToExerciseStats(m map[string]interface{}) selection.ExerciseStats {
	st := selection.ExerciseStats{LastSeen: getTime(m, "last_seen")}
	st.Affinity, _ = getFloat(m, "affinity")
	st.SecondsPerRep, _ = getFloat(m, "seconds_per_rep")
	return st
}
