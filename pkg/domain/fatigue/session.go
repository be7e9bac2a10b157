// Package fatigue turns session history into a readiness profile and reads
// the recent RPE trend.
package fatigue

import "time"

// Feedback is the post-session "how did it feel" signal.
type Feedback struct {
	// Value is -1 (too hard), 0 (just right) or +1 (too easy).
	Value int    `json:"value" firestore:"value"`
	Type  string `json:"type" firestore:"type"`
}

// Feedback types.
const (
	FeedbackTypeEffort  = "effort"
	FeedbackTypeSymptom = "symptom"
)

// SessionRecord is one completed session as stored upstream.
type SessionRecord struct {
	ID             string     `json:"id" firestore:"id"`
	UserID         string     `json:"user_id" firestore:"user_id"`
	StartedAt      *time.Time `json:"started_at,omitempty" firestore:"started_at,omitempty"`
	CompletedAt    time.Time  `json:"completed_at" firestore:"completed_at"`
	TrackedSeconds int        `json:"tracked_seconds" firestore:"tracked_seconds"`
	ExerciseCount  int        `json:"exercise_count" firestore:"exercise_count"`
	ExerciseIDs    []string   `json:"exercise_ids" firestore:"exercise_ids"`
	RPE            *float64   `json:"rpe,omitempty" firestore:"rpe,omitempty"`
	Feedback       *Feedback  `json:"feedback,omitempty" firestore:"feedback,omitempty"`
	PainDuring     *int       `json:"pain_during,omitempty" firestore:"pain_during,omitempty"`
	PainDelta24h   *int       `json:"pain_delta_24h,omitempty" firestore:"pain_delta_24h,omitempty"`
}

const (
	maxTrackedDelta    = 6 * time.Hour
	secondsPerExercise = 240
	defaultRPE         = 5.0
)

// DurationSeconds picks the best available duration: tracked seconds, then
// the start/end delta (ignored past 6h), then 4 minutes per exercise.
func (s SessionRecord) DurationSeconds() int {
	if s.TrackedSeconds > 0 {
		return s.TrackedSeconds
	}
	if s.StartedAt != nil && !s.CompletedAt.IsZero() {
		delta := s.CompletedAt.Sub(*s.StartedAt)
		if delta > 0 && delta <= maxTrackedDelta {
			return int(delta.Seconds())
		}
	}
	if s.ExerciseCount > 0 {
		return s.ExerciseCount * secondsPerExercise
	}
	return 0
}

// EffectiveRPE returns the explicit RPE, else the feedback mapping
// (-1 -> 7, 0 -> 5, +1 -> 3), else 5.
func (s SessionRecord) EffectiveRPE() float64 {
	if s.RPE != nil && *s.RPE > 0 {
		return *s.RPE
	}
	if s.Feedback != nil {
		switch s.Feedback.Value {
		case -1:
			return 7
		case 0:
			return 5
		case 1:
			return 3
		}
	}
	return defaultRPE
}

// LoadAU is session-RPE load: minutes x RPE.
func (s SessionRecord) LoadAU() float64 {
	return float64(s.DurationSeconds()) / 60 * s.EffectiveRPE()
}
