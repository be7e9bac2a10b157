package planner

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/clinical"
	"github.com/ripixel/fitglue-planner/pkg/domain/fatigue"
	"github.com/ripixel/fitglue-planner/pkg/domain/phase"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
	"github.com/ripixel/fitglue-planner/pkg/domain/schedule"
	"github.com/ripixel/fitglue-planner/pkg/domain/selection"
	"github.com/ripixel/fitglue-planner/pkg/domain/weights"
	apperrors "github.com/ripixel/fitglue-planner/pkg/errors"
)

const (
	DefaultMinSafeCandidates = 6
	AnchorFamilies           = 2

	dateLayout = "2006-01-02"
	// Second PCG word, so a single request seed is enough.
	seedStream = 0x9e3779b97f4a7c15
)

// Inputs is everything read from upstream for one planning run.
type Inputs struct {
	Catalog   []catalog.RawExercise
	Profile   *profile.UserProfile
	History   []fatigue.SessionRecord
	Stats     map[string]selection.ExerciseStats
	Blacklist []string
	// Phase is nil for a user without stored phase state.
	Phase *phase.Record
}

// Params are the per-request knobs.
type Params struct {
	Start             time.Time
	Now               time.Time
	Seed              uint64
	MinSafeCandidates int
	Filter            clinical.Options
}

// Plan is the outcome of one planning run.
type Plan struct {
	Weekly            *schedule.WeeklyPlan
	Fatigue           fatigue.Profile
	Trend             fatigue.RPETrend
	Context           *clinical.Context
	Phase             phase.State
	PhaseChanged      bool
	Transitions       []*phase.Transition
	Anchors           []string
	Candidates        int
	GateRejections    map[clinical.Reason]int
	CatalogRejections []catalog.Rejection
	Seed              uint64
}

// Compute runs the whole pipeline over already fetched inputs. It performs
// no I/O and, for a fixed seed, is deterministic.
func Compute(in Inputs, p Params) (*Plan, error) {
	if in.Profile == nil {
		return nil, apperrors.ErrProfileInvalid.WithMessage("profile is required")
	}
	minSafe := p.MinSafeCandidates
	if minSafe <= 0 {
		minSafe = DefaultMinSafeCandidates
	}

	exercises, rejections := catalog.NormalizeAll(in.Catalog)
	uctx := clinical.BuildUserContext(in.Profile)

	opts := p.Filter
	opts.Blacklist = toSet(in.Blacklist)
	safe, gateRejections := clinical.Filter(exercises, uctx, opts)
	if len(safe) < minSafe {
		return &Plan{
				Context:           uctx,
				Candidates:        len(safe),
				GateRejections:    gateRejections,
				CatalogRejections: rejections,
			}, apperrors.ErrNoSafeExercises.
				WithMetadata("candidates", strconv.Itoa(len(safe))).
				WithMetadata("required", strconv.Itoa(minSafe))
	}

	w := weights.Build(in.Profile, weights.Categories(safe))
	readiness := fatigue.Calculate(in.History, p.Now)
	trend := fatigue.AnalyzeRPETrend(in.History, p.Now)

	st, transitions, changed, err := resolvePhase(in.Phase, in.Profile, readiness, p.Now)
	if err != nil {
		return nil, err
	}
	mods, err := st.Modifiers()
	if err != nil {
		return nil, err
	}

	seed := p.Seed
	if seed == 0 {
		seed = uint64(p.Now.UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^seedStream))

	anchors := selection.ChooseAnchors(safe, w, AnchorFamilies, rng)
	start := utcDay(p.Start)
	weekly := schedule.Build(schedule.Config{
		Start:   start,
		Profile: in.Profile,
		Context: uctx,
		Pool:    safe,
		Scorer: &selection.Scorer{
			Context: uctx,
			Profile: in.Profile,
			Weights: w,
			Stats:   in.Stats,
			Now:     p.Now,
		},
		State:          selection.NewState(anchors, mods.AnchorTarget),
		Rand:           rng,
		InitialFatigue: readiness.State(),
		Trend:          trend,
		Modifiers:      mods,
		Stats:          in.Stats,
		PriorStreak:    priorStreak(in.History, start),
	})

	return &Plan{
		Weekly:            weekly,
		Fatigue:           readiness,
		Trend:             trend,
		Context:           uctx,
		Phase:             st,
		PhaseChanged:      changed,
		Transitions:       transitions,
		Anchors:           anchors,
		Candidates:        len(safe),
		GateRejections:    gateRejections,
		CatalogRejections: rejections,
		Seed:              seed,
	}, nil
}

// resolvePhase loads or creates the phase state, applies detraining and
// starts or clears a fatigue DELOAD. A REHAB override is never replaced by
// a fatigue signal.
func resolvePhase(rec *phase.Record, p *profile.UserProfile, readiness fatigue.Profile, now time.Time) (phase.State, []*phase.Transition, bool, error) {
	var (
		st          phase.State
		err         error
		changed     bool
		transitions []*phase.Transition
	)
	if rec == nil {
		st, err = phase.NewState(phase.BlueprintFor(p), phase.BandFor(p.ExperienceOrDefault()))
		changed = true
	} else {
		st, err = phase.FromRecord(*rec)
	}
	if err != nil {
		return phase.State{}, nil, false, err
	}

	apply := func(next phase.State, tr *phase.Transition) {
		st = next
		if tr != nil {
			transitions = append(transitions, tr)
			changed = true
		}
	}

	apply(st.ApplyDetraining(now))

	active, overridden := st.ActiveOverride()
	switch {
	case readiness.State() == fatigue.StateOverreached:
		if overridden && active.Mode == phase.PhaseRehab {
			break
		}
		next, tr, err := st.TriggerOverride(phase.PhaseDeload, phase.ReasonFatigue, now)
		if err != nil {
			return phase.State{}, nil, false, err
		}
		apply(next, tr)
	case !readiness.Fallback && readiness.CurrentScore <= readiness.ThresholdExit:
		if overridden && active.Mode == phase.PhaseDeload && active.Reason == phase.ReasonFatigue {
			apply(st.ClearOverride())
		}
	}
	return st, transitions, changed, nil
}

// priorStreak counts consecutive training days ending the day before start.
func priorStreak(history []fatigue.SessionRecord, start time.Time) int {
	days := make(map[string]bool, len(history))
	for _, s := range history {
		if !s.CompletedAt.IsZero() {
			days[s.CompletedAt.UTC().Format(dateLayout)] = true
		}
	}
	n := 0
	for d := start.AddDate(0, 0, -1); n < schedule.MaxStreak && days[d.Format(dateLayout)]; d = d.AddDate(0, 0, -1) {
		n++
	}
	return n
}

// ParseStartDate reads a YYYY-MM-DD date. Empty means the UTC day of now.
func ParseStartDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return utcDay(now), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, apperrors.ErrValidation.
			WithMessage("start_date must be YYYY-MM-DD").
			WithCause(err).
			WithMetadata("start_date", s)
	}
	return t, nil
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			out[id] = true
		}
	}
	return out
}
