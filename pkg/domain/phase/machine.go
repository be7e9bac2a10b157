// Package phase tracks a user's progress through a blueprint of training
// phases, with safety overrides that freeze the base phase.
package phase

import (
	"fmt"
	"time"

	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
	apperrors "github.com/ripixel/fitglue-planner/pkg/errors"
)

// Phase ids used by the default blueprints.
const (
	PhaseControl      = "CONTROL"
	PhaseMobility     = "MOBILITY"
	PhaseCapacity     = "CAPACITY"
	PhaseStrength     = "STRENGTH"
	PhaseConditioning = "CONDITIONING"
	PhaseDeload       = "DELOAD"
	PhaseRehab        = "REHAB"
)

// Default blueprint ids.
const (
	BlueprintStrength       = "strength"
	BlueprintPainRelief     = "pain_relief"
	BlueprintMobility       = "mobility"
	BlueprintGeneralFitness = "general_fitness"
)

// DetrainingGap is the break after which the base counter is halved.
const DetrainingGap = 21 * 24 * time.Hour

// Override reasons.
const (
	ReasonFatigue    = "fatigue"
	ReasonSeverePain = "severe_pain"
)

// Transition kinds.
const (
	TransitionAdvanced          = "advanced"
	TransitionOverrideStarted   = "override_started"
	TransitionOverrideCompleted = "override_completed"
	TransitionOverrideCleared   = "override_cleared"
	TransitionDetrained         = "detrained"
)

// Base is the position within the blueprint.
type Base struct {
	PhaseID string `json:"phase_id"`
	Count   int    `json:"count"`
	Target  int    `json:"target"`
}

// Override is a short-lived safety phase.
type Override struct {
	Mode      string    `json:"mode"`
	Count     int       `json:"count"`
	Target    int       `json:"target"`
	Reason    string    `json:"reason"`
	StartedAt time.Time `json:"started_at"`
}

// Mode is either Training or Overridden.
type Mode interface {
	isMode()
}

// Training is normal progression through the blueprint.
type Training struct {
	Base Base
}

// Overridden means a safety override is active and the base is frozen.
type Overridden struct {
	Frozen   Base
	Override Override
}

func (Training) isMode()   {}
func (Overridden) isMode() {}

// State is a user's phase progress. It is a value; every operation returns
// a new State.
type State struct {
	BlueprintID   string
	Band          string
	Mode          Mode
	LastSessionAt time.Time
	// DetrainedAt is when the current break was last charged. A value after
	// LastSessionAt means the break has already cost its sessions.
	DetrainedAt time.Time
}

// Transition describes a change worth announcing.
type Transition struct {
	Kind   string `json:"kind"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

// Resolution is the effective phase.
type Resolution struct {
	PhaseID    string `json:"phase_id"`
	Overridden bool   `json:"overridden"`
	Count      int    `json:"count"`
	Target     int    `json:"target"`
}

// Modifiers are what the planner takes from the effective phase.
type Modifiers struct {
	PhaseID        string  `json:"phase_id"`
	RestMultiplier float64 `json:"rest_multiplier"`
	AnchorTarget   int     `json:"anchor_target"`
}

// BandFor maps intake experience to a target band.
func BandFor(experience string) string {
	switch experience {
	case profile.ExperienceRegular:
		return BandIntermediate
	case profile.ExperienceAdvanced:
		return BandAdvanced
	default:
		return BandBeginner
	}
}

// BlueprintFor picks a blueprint for a profile: an explicit id wins,
// otherwise the primary goal decides.
func BlueprintFor(p *profile.UserProfile) string {
	if p == nil {
		return BlueprintPainRelief
	}
	if p.BlueprintID != "" {
		return p.BlueprintID
	}
	switch p.PrimaryGoal {
	case profile.GoalStrength:
		return BlueprintStrength
	case profile.GoalMobility, profile.GoalPosture:
		return BlueprintMobility
	case profile.GoalFitness:
		return BlueprintGeneralFitness
	default:
		return BlueprintPainRelief
	}
}

// NewState starts at the first phase of the blueprint.
func NewState(blueprintID, band string) (State, error) {
	b, err := GetBlueprint(blueprintID)
	if err != nil {
		return State{}, err
	}
	first := b.Sequence[0]
	target, err := targetFor(first, band)
	if err != nil {
		return State{}, err
	}
	return State{
		BlueprintID: blueprintID,
		Band:        band,
		Mode:        Training{Base: Base{PhaseID: first, Target: target}},
	}, nil
}

// Base returns the base phase, frozen or not.
func (s State) Base() Base {
	switch m := s.Mode.(type) {
	case Training:
		return m.Base
	case Overridden:
		return m.Frozen
	}
	return Base{}
}

// ActiveOverride returns the override if one is active.
func (s State) ActiveOverride() (Override, bool) {
	if m, ok := s.Mode.(Overridden); ok {
		return m.Override, true
	}
	return Override{}, false
}

// Resolve returns the effective phase; an override takes precedence.
func (s State) Resolve() Resolution {
	switch m := s.Mode.(type) {
	case Overridden:
		return Resolution{PhaseID: m.Override.Mode, Overridden: true, Count: m.Override.Count, Target: m.Override.Target}
	case Training:
		return Resolution{PhaseID: m.Base.PhaseID, Count: m.Base.Count, Target: m.Base.Target}
	}
	return Resolution{}
}

// Modifiers returns the rest multiplier and anchor target of the effective
// phase.
func (s State) Modifiers() (Modifiers, error) {
	r := s.Resolve()
	def, err := GetDefinition(r.PhaseID)
	if err != nil {
		return Modifiers{}, err
	}
	return Modifiers{PhaseID: r.PhaseID, RestMultiplier: def.RestMultiplier, AnchorTarget: def.AnchorTarget}, nil
}

// RecordSession counts a completed session against the effective phase.
// The base counter advances only while no override is active; reaching a
// target moves to the next phase (or ends the override).
func (s State) RecordSession(at time.Time) (State, *Transition, error) {
	next := s
	if at.After(s.LastSessionAt) {
		next.LastSessionAt = at
	}

	switch m := s.Mode.(type) {
	case Overridden:
		m.Override.Count++
		if m.Override.Count >= m.Override.Target {
			next.Mode = Training{Base: m.Frozen}
			return next, &Transition{
				Kind:   TransitionOverrideCompleted,
				From:   m.Override.Mode,
				To:     m.Frozen.PhaseID,
				Reason: m.Override.Reason,
			}, nil
		}
		next.Mode = m
		return next, nil, nil

	case Training:
		base := m.Base
		base.Count++
		if base.Count < base.Target {
			next.Mode = Training{Base: base}
			return next, nil, nil
		}
		b, err := GetBlueprint(s.BlueprintID)
		if err != nil {
			return s, nil, err
		}
		nextPhase, err := b.Next(base.PhaseID)
		if err != nil {
			return s, nil, err
		}
		target, err := targetFor(nextPhase, s.Band)
		if err != nil {
			return s, nil, err
		}
		next.Mode = Training{Base: Base{PhaseID: nextPhase, Target: target}}
		return next, &Transition{Kind: TransitionAdvanced, From: base.PhaseID, To: nextPhase}, nil
	}
	return s, nil, invalidMode(s.Mode)
}

// TriggerOverride freezes the base phase and activates a safety override.
// An active override of the same mode is kept as is; a different mode
// replaces it.
func (s State) TriggerOverride(mode, reason string, at time.Time) (State, *Transition, error) {
	if !IsOverrideMode(mode) {
		return s, nil, apperrors.ErrConfigInvalid.
			WithMessage(fmt.Sprintf("%q is not an override mode", mode)).
			WithMetadata("phase_id", mode)
	}
	target, err := targetFor(mode, s.Band)
	if err != nil {
		return s, nil, err
	}

	from := s.Resolve().PhaseID
	if cur, ok := s.ActiveOverride(); ok && cur.Mode == mode {
		return s, nil, nil
	}

	next := s
	next.Mode = Overridden{
		Frozen:   s.Base(),
		Override: Override{Mode: mode, Target: target, Reason: reason, StartedAt: at},
	}
	return next, &Transition{Kind: TransitionOverrideStarted, From: from, To: mode, Reason: reason}, nil
}

// ClearOverride returns to the frozen base phase.
func (s State) ClearOverride() (State, *Transition) {
	m, ok := s.Mode.(Overridden)
	if !ok {
		return s, nil
	}
	next := s
	next.Mode = Training{Base: m.Frozen}
	return next, &Transition{Kind: TransitionOverrideCleared, From: m.Override.Mode, To: m.Frozen.PhaseID, Reason: m.Override.Reason}
}

// ApplyDetraining halves the base counter when the gap since the last
// session exceeds DetrainingGap. Shorter gaps are a no-op.
// A break is charged once, however often it is checked.
func (s State) ApplyDetraining(now time.Time) (State, *Transition) {
	if s.LastSessionAt.IsZero() || now.Sub(s.LastSessionAt) <= DetrainingGap {
		return s, nil
	}
	if s.DetrainedAt.After(s.LastSessionAt) {
		return s, nil
	}
	base := s.Base()
	if base.Count == 0 {
		return s, nil
	}
	reduced := base
	reduced.Count = base.Count / 2

	next := s
	next.DetrainedAt = now
	switch m := s.Mode.(type) {
	case Training:
		next.Mode = Training{Base: reduced}
	case Overridden:
		m.Frozen = reduced
		next.Mode = m
	}
	return next, &Transition{Kind: TransitionDetrained, From: base.PhaseID, To: base.PhaseID}
}

// Validate checks the state against its blueprint.
func (s State) Validate() error {
	if s.Mode == nil {
		return invalidMode(nil)
	}
	b, err := GetBlueprint(s.BlueprintID)
	if err != nil {
		return err
	}
	base := s.Base()
	if !b.Contains(base.PhaseID) {
		return unknownPhase(s.BlueprintID, base.PhaseID)
	}
	if o, ok := s.ActiveOverride(); ok && !IsOverrideMode(o.Mode) {
		return unknownPhase(s.BlueprintID, o.Mode)
	}
	return nil
}

func targetFor(phaseID, band string) (int, error) {
	def, err := GetDefinition(phaseID)
	if err != nil {
		return 0, err
	}
	return def.Target(band), nil
}

func invalidMode(m Mode) error {
	return apperrors.ErrConfigInvalid.WithMessage(fmt.Sprintf("invalid phase mode %T", m))
}
