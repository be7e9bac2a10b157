package phase

import "time"

// Record is the flat stored form of State.
type Record struct {
	BlueprintID   string    `json:"blueprint_id" firestore:"blueprint_id"`
	Band          string    `json:"band" firestore:"band"`
	PhaseID       string    `json:"phase_id" firestore:"phase_id"`
	Count         int       `json:"count" firestore:"count"`
	Target        int       `json:"target" firestore:"target"`
	LastSessionAt time.Time `json:"last_session_at" firestore:"last_session_at"`
	DetrainedAt   time.Time `json:"detrained_at,omitempty" firestore:"detrained_at,omitempty"`

	OverrideMode      string    `json:"override_mode,omitempty" firestore:"override_mode,omitempty"`
	OverrideCount     int       `json:"override_count,omitempty" firestore:"override_count,omitempty"`
	OverrideTarget    int       `json:"override_target,omitempty" firestore:"override_target,omitempty"`
	OverrideReason    string    `json:"override_reason,omitempty" firestore:"override_reason,omitempty"`
	OverrideStartedAt time.Time `json:"override_started_at,omitempty" firestore:"override_started_at,omitempty"`
}

// ToRecord flattens the state for storage.
func (s State) ToRecord() Record {
	base := s.Base()
	r := Record{
		BlueprintID:   s.BlueprintID,
		Band:          s.Band,
		PhaseID:       base.PhaseID,
		Count:         base.Count,
		Target:        base.Target,
		LastSessionAt: s.LastSessionAt,
		DetrainedAt:   s.DetrainedAt,
	}
	if o, ok := s.ActiveOverride(); ok {
		r.OverrideMode = o.Mode
		r.OverrideCount = o.Count
		r.OverrideTarget = o.Target
		r.OverrideReason = o.Reason
		r.OverrideStartedAt = o.StartedAt
	}
	return r
}

// FromRecord rebuilds and validates a stored state.
func FromRecord(r Record) (State, error) {
	base := Base{PhaseID: r.PhaseID, Count: r.Count, Target: r.Target}
	s := State{BlueprintID: r.BlueprintID, Band: r.Band, LastSessionAt: r.LastSessionAt, DetrainedAt: r.DetrainedAt}
	if r.OverrideMode != "" {
		s.Mode = Overridden{
			Frozen: base,
			Override: Override{
				Mode:      r.OverrideMode,
				Count:     r.OverrideCount,
				Target:    r.OverrideTarget,
				Reason:    r.OverrideReason,
				StartedAt: r.OverrideStartedAt,
			},
		}
	} else {
		s.Mode = Training{Base: base}
	}
	if err := s.Validate(); err != nil {
		return State{}, err
	}
	return s, nil
}
