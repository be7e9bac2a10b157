// Package planner fetches a user's records, runs the plan generation
// pipeline and persists and announces the result.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	shared "github.com/ripixel/fitglue-planner/pkg"
	"github.com/ripixel/fitglue-planner/pkg/domain/clinical"
	"github.com/ripixel/fitglue-planner/pkg/domain/fatigue"
	"github.com/ripixel/fitglue-planner/pkg/domain/phase"
	apperrors "github.com/ripixel/fitglue-planner/pkg/errors"
	"github.com/ripixel/fitglue-planner/pkg/infrastructure/pubsub"
	"github.com/ripixel/fitglue-planner/pkg/metrics"
	"github.com/ripixel/fitglue-planner/pkg/types"
)

// Config tunes an Orchestrator.
type Config struct {
	MinSafeCandidates int
	// Bucket receives plan artifacts when ExportArtifacts is set.
	Bucket          string
	ExportArtifacts bool
	Metrics         *metrics.Metrics
}

type Orchestrator struct {
	database  shared.Database
	storage   shared.BlobStore
	publisher shared.Publisher
	cfg       Config
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewOrchestrator wires the planner to its collaborators. storage may be nil
// when artifacts are not exported.
func NewOrchestrator(db shared.Database, storage shared.BlobStore, publisher shared.Publisher, cfg Config) *Orchestrator {
	m := cfg.Metrics
	if m == nil {
		m = metrics.Default()
	}
	return &Orchestrator{
		database:  db,
		storage:   storage,
		publisher: publisher,
		cfg:       cfg,
		metrics:   m,
		now:       time.Now,
	}
}

// Result is what Generate produced and stored.
type Result struct {
	Record *types.PlanRecord
	Plan   *Plan
	Event  *types.PlanGeneratedEvent
}

// Generate builds, stores and announces a weekly plan for one user.
func (o *Orchestrator) Generate(ctx context.Context, req *types.GeneratePlanRequest, executionID string) (*Result, error) {
	started := time.Now()
	defer o.metrics.ObserveDuration(started)

	if req == nil || req.UserID == "" {
		return nil, o.fail(metrics.OutcomeOtherFail, apperrors.ErrValidation.WithMessage("user_id is required"))
	}
	now := o.now().UTC()
	start, err := ParseStartDate(req.StartDate, now)
	if err != nil {
		return nil, o.fail(metrics.OutcomeOtherFail, err)
	}

	// 1. Fetch
	in, err := o.Fetch(ctx, req.UserID, now)
	if err != nil {
		return nil, o.fail(metrics.OutcomeUpstream, err)
	}
	slog.Info("Fetched planning inputs",
		"user_id", req.UserID,
		"catalog", len(in.Catalog),
		"sessions", len(in.History),
		"blacklist", len(in.Blacklist),
		"has_phase", in.Phase != nil)

	// 2. Compute
	plan, err := Compute(in, Params{
		Start:             start,
		Now:               now,
		Seed:              req.Seed,
		MinSafeCandidates: o.cfg.MinSafeCandidates,
		Filter: clinical.Options{
			IgnoreEquipment:  req.IgnoreEquipment,
			IgnoreDifficulty: req.IgnoreDifficulty,
			StrictSeverity:   req.StrictSeverity,
		},
	})
	if plan != nil {
		o.observe(plan)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNoSafeExercises) {
			return nil, o.fail(metrics.OutcomeNoSafe, err)
		}
		return nil, o.fail(metrics.OutcomeOtherFail, err)
	}
	slog.Info("Plan computed",
		"user_id", req.UserID,
		"phase", plan.Weekly.PhaseID,
		"training_days", plan.Weekly.TrainingDays(),
		"fatigue_state", plan.Fatigue.State().String(),
		"trend", plan.Trend.Label,
		"candidates", plan.Candidates,
		"seed", plan.Seed)

	record := &types.PlanRecord{
		PlanID:       uuid.NewString(),
		UserID:       req.UserID,
		CreatedAt:    now,
		PhaseID:      plan.Weekly.PhaseID,
		FatigueState: plan.Fatigue.State().String(),
		TrendLabel:   plan.Trend.Label,
		Seed:         strconv.FormatUint(plan.Seed, 10),
		Plan:         plan.Weekly,
	}

	// 3. Artifacts
	record.ArtifactURIs = o.exportArtifacts(ctx, record, plan, executionID)

	// 4. Persist
	if err := o.database.SetWeeklyPlan(ctx, record); err != nil {
		return nil, o.fail(metrics.OutcomeUpstream, upstream("set_weekly_plan", err))
	}
	if plan.PhaseChanged {
		if err := o.database.SetPhaseState(ctx, req.UserID, plan.Phase.ToRecord()); err != nil {
			return nil, o.fail(metrics.OutcomeUpstream, upstream("set_phase_state", err))
		}
	}

	// 5. Announce
	event := &types.PlanGeneratedEvent{
		UserID:         req.UserID,
		PlanID:         record.PlanID,
		PhaseID:        record.PhaseID,
		StartDate:      start.Format(dateLayout),
		TrainingDays:   plan.Weekly.TrainingDays(),
		FatigueState:   record.FatigueState,
		TrendLabel:     record.TrendLabel,
		ArtifactURIs:   record.ArtifactURIs,
		GeneratedAt:    now,
		CandidateCount: plan.Candidates,
		ExecutionID:    executionID,
	}
	if err := o.publish(ctx, shared.TopicPlanGenerated, shared.EventSourcePlanner, shared.EventTypePlanGenerated, req.UserID, event); err != nil {
		return nil, o.fail(metrics.OutcomeUpstream, err)
	}
	if len(plan.Transitions) > 0 {
		if err := o.publishPhase(ctx, shared.EventSourcePlanner, req.UserID, plan.Phase, plan.Transitions, now); err != nil {
			return nil, o.fail(metrics.OutcomeUpstream, err)
		}
	}

	o.metrics.PlansGenerated.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return &Result{Record: record, Plan: plan, Event: event}, nil
}

// Fetch issues the independent upstream reads concurrently.
func (o *Orchestrator) Fetch(ctx context.Context, userID string, now time.Time) (Inputs, error) {
	var in Inputs
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := o.database.GetExercises(gctx)
		if err != nil {
			return upstream("get_exercises", err)
		}
		in.Catalog = rows
		return nil
	})
	g.Go(func() error {
		p, err := o.database.GetUserProfile(gctx, userID)
		if err != nil {
			return upstream("get_user_profile", err)
		}
		if p == nil {
			return apperrors.ErrUserNotFound.WithMetadata("user_id", userID)
		}
		stats, err := o.database.GetExerciseStats(gctx, userID)
		if err != nil {
			return upstream("get_exercise_stats", err)
		}
		in.Profile, in.Stats = p, stats
		return nil
	})
	g.Go(func() error {
		since := utcDay(now).AddDate(0, 0, -fatigue.WindowDays)
		history, err := o.database.GetSessionsSince(gctx, userID, since)
		if err != nil {
			return upstream("get_sessions", err)
		}
		in.History = history
		return nil
	})
	g.Go(func() error {
		blacklist, err := o.database.GetBlacklist(gctx, userID)
		if err != nil {
			return upstream("get_blacklist", err)
		}
		rec, err := o.database.GetPhaseState(gctx, userID)
		if err != nil {
			return upstream("get_phase_state", err)
		}
		in.Blacklist, in.Phase = blacklist, rec
		return nil
	})

	if err := g.Wait(); err != nil {
		return Inputs{}, err
	}
	return in, nil
}

func (o *Orchestrator) observe(plan *Plan) {
	o.metrics.SafeCandidates.Observe(float64(plan.Candidates))
	for reason, n := range plan.GateRejections {
		o.metrics.GateRejections.WithLabelValues(string(reason)).Add(float64(n))
	}
	for _, r := range plan.CatalogRejections {
		o.metrics.CatalogRejections.WithLabelValues(string(r.Reason)).Inc()
	}
	if len(plan.CatalogRejections) > 0 {
		slog.Warn("Catalog rows rejected", "count", len(plan.CatalogRejections))
	}
	for _, tr := range plan.Transitions {
		o.metrics.PhaseTransitions.WithLabelValues(tr.Kind, tr.To).Inc()
	}
}

func (o *Orchestrator) fail(outcome string, err error) error {
	o.metrics.PlansGenerated.WithLabelValues(outcome).Inc()
	return err
}

func (o *Orchestrator) publish(ctx context.Context, topic, source, eventType, subject string, data interface{}) error {
	e, err := pubsub.NewCloudEvent(source, eventType, subject, data)
	if err != nil {
		return apperrors.ErrInternal.WithMessage("failed to build event").WithCause(err)
	}
	msgID, err := o.publisher.PublishCloudEvent(ctx, topic, e)
	if err != nil {
		return apperrors.ErrPubSubError.WithCause(err).WithMetadata("topic", topic)
	}
	slog.Info("Published event", "topic", topic, "type", eventType, "message_id", msgID)
	return nil
}

func (o *Orchestrator) publishPhase(ctx context.Context, source, userID string, st phase.State, transitions []*phase.Transition, at time.Time) error {
	return o.publish(ctx, shared.TopicPhaseUpdated, source, shared.EventTypePhaseUpdated, userID, PhaseEvent(userID, st, transitions, at))
}

// PhaseEvent describes the effective phase and what changed.
func PhaseEvent(userID string, st phase.State, transitions []*phase.Transition, at time.Time) *types.PhaseUpdatedEvent {
	res := st.Resolve()
	ev := &types.PhaseUpdatedEvent{
		UserID:      userID,
		PhaseID:     res.PhaseID,
		Overridden:  res.Overridden,
		Count:       res.Count,
		Target:      res.Target,
		Transitions: make([]types.PhaseTransition, 0, len(transitions)),
		UpdatedAt:   at,
	}
	for _, tr := range transitions {
		ev.Transitions = append(ev.Transitions, types.PhaseTransition{Kind: tr.Kind, From: tr.From, To: tr.To, Reason: tr.Reason})
	}
	return ev
}

// upstream marks an infrastructure failure as retryable, keeping errors
// that already carry a code.
func upstream(op string, err error) error {
	var pe *apperrors.PlanError
	if errors.As(err, &pe) {
		return err
	}
	base := apperrors.ErrStorageError
	if errors.Is(err, context.DeadlineExceeded) {
		base = apperrors.ErrTimeout
	}
	return base.
		WithMessage(fmt.Sprintf("%s failed", op)).
		WithCause(err).
		WithMetadata("operation", op)
}
