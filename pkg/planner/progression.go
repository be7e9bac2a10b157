package planner

import (
	"context"
	"log/slog"

	shared "github.com/ripixel/fitglue-planner/pkg"
	"github.com/ripixel/fitglue-planner/pkg/domain/clinical"
	"github.com/ripixel/fitglue-planner/pkg/domain/phase"
	apperrors "github.com/ripixel/fitglue-planner/pkg/errors"
	"github.com/ripixel/fitglue-planner/pkg/types"
)

// Progress is the outcome of counting one completed session.
type Progress struct {
	Phase       phase.State
	Pain        clinical.PainResponse
	Transitions []*phase.Transition
	Event       *types.PhaseUpdatedEvent
}

// RecordSession counts a completed session against the user's effective
// phase. A red pain response then starts a REHAB override.
func (o *Orchestrator) RecordSession(ctx context.Context, ev *types.SessionCompletedEvent) (*Progress, error) {
	if ev == nil || ev.UserID == "" {
		return nil, apperrors.ErrValidation.WithMessage("user_id is required")
	}
	if ev.CompletedAt.IsZero() {
		return nil, apperrors.ErrValidation.WithMessage("completed_at is required").WithMetadata("user_id", ev.UserID)
	}

	st, err := o.loadPhase(ctx, ev.UserID)
	if err != nil {
		return nil, err
	}

	var transitions []*phase.Transition
	st, tr := st.ApplyDetraining(ev.CompletedAt)
	if tr != nil {
		transitions = append(transitions, tr)
	}
	st, tr, err = st.RecordSession(ev.CompletedAt)
	if err != nil {
		return nil, err
	}
	if tr != nil {
		transitions = append(transitions, tr)
	}

	pain := clinical.ClassifyPainResponse(deref(ev.PainDuring), deref(ev.PainDelta24h))
	switch pain {
	case clinical.PainRed:
		st, tr, err = st.TriggerOverride(phase.PhaseRehab, phase.ReasonSeverePain, ev.CompletedAt)
		if err != nil {
			return nil, err
		}
		if tr != nil {
			transitions = append(transitions, tr)
		}
	case clinical.PainAmber:
		slog.Warn("Amber pain response", "user_id", ev.UserID, "session_id", ev.SessionID)
	}

	if err := o.database.SetPhaseState(ctx, ev.UserID, st.ToRecord()); err != nil {
		return nil, upstream("set_phase_state", err)
	}
	for _, t := range transitions {
		o.metrics.PhaseTransitions.WithLabelValues(t.Kind, t.To).Inc()
		slog.Info("Phase transition", "user_id", ev.UserID, "kind", t.Kind, "from", t.From, "to", t.To, "reason", t.Reason)
	}

	event := PhaseEvent(ev.UserID, st, transitions, ev.CompletedAt)
	if err := o.publish(ctx, shared.TopicPhaseUpdated, shared.EventSourceProgression, shared.EventTypePhaseUpdated, ev.UserID, event); err != nil {
		return nil, err
	}
	return &Progress{Phase: st, Pain: pain, Transitions: transitions, Event: event}, nil
}

// loadPhase reads the stored phase state or starts one from the profile.
func (o *Orchestrator) loadPhase(ctx context.Context, userID string) (phase.State, error) {
	rec, err := o.database.GetPhaseState(ctx, userID)
	if err != nil {
		return phase.State{}, upstream("get_phase_state", err)
	}
	if rec != nil {
		return phase.FromRecord(*rec)
	}
	p, err := o.database.GetUserProfile(ctx, userID)
	if err != nil {
		return phase.State{}, upstream("get_user_profile", err)
	}
	if p == nil {
		return phase.State{}, apperrors.ErrUserNotFound.WithMetadata("user_id", userID)
	}
	return phase.NewState(phase.BlueprintFor(p), phase.BandFor(p.ExperienceOrDefault()))
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
