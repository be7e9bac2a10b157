// Package schedule lays out a seven day plan of training and rest days and
// fills each training day with a budgeted session.
package schedule

import (
	"math"
	"time"

	"github.com/ripixel/fitglue-planner/pkg/domain/budget"
	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/clinical"
	"github.com/ripixel/fitglue-planner/pkg/domain/fatigue"
	"github.com/ripixel/fitglue-planner/pkg/domain/phase"
	"github.com/ripixel/fitglue-planner/pkg/domain/prescription"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
	"github.com/ripixel/fitglue-planner/pkg/domain/selection"
)

const (
	Days                 = 7
	MaxStreak            = 14
	MainCategoryCap      = 3
	DefaultTargetMinutes = 30

	highMetabolicIntensity = 4
	dateLayout             = "2006-01-02"
)

// Config is everything Build needs. The selection state and random source
// belong to a single planning run.
type Config struct {
	Start          time.Time
	Profile        *profile.UserProfile
	Context        *clinical.Context
	Pool           []*catalog.Exercise
	Scorer         *selection.Scorer
	State          *selection.State
	Rand           selection.Rand
	InitialFatigue fatigue.State
	Trend          fatigue.RPETrend
	Modifiers      phase.Modifiers
	Stats          map[string]selection.ExerciseStats
	// PriorStreak is the number of consecutive training days ending the
	// day before Start.
	PriorStreak int
}

// Session is one training day's workout.
type Session struct {
	budget.Session
	FatigueState     string  `json:"fatigue_state"`
	LoadFactor       float64 `json:"load_factor"`
	TargetMinutes    int     `json:"target_minutes"`
	EstimatedSeconds int     `json:"estimated_seconds"`
}

// Day is a calendar day of the plan.
type Day struct {
	Date    time.Time    `json:"date"`
	Weekday time.Weekday `json:"weekday"`
	Rest    bool         `json:"rest"`
	Session *Session     `json:"session,omitempty"`
}

// WeeklyPlan is seven consecutive days.
type WeeklyPlan struct {
	StartDate time.Time `json:"start_date"`
	PhaseID   string    `json:"phase_id"`
	Days      []Day     `json:"days"`
}

// TrainingDays counts days with a session.
func (p *WeeklyPlan) TrainingDays() int {
	n := 0
	for _, d := range p.Days {
		if !d.Rest {
			n++
		}
	}
	return n
}

// Build lays out the week starting at cfg.Start.
func Build(cfg Config) *WeeklyPlan {
	start := time.Date(cfg.Start.Year(), cfg.Start.Month(), cfg.Start.Day(), 0, 0, 0, 0, cfg.Start.Location())
	pattern := Pattern(cfg.Profile)
	forced := forcedRest(cfg.Profile)

	plan := &WeeklyPlan{StartDate: start, PhaseID: cfg.Modifiers.PhaseID, Days: make([]Day, 0, Days)}
	state := cfg.InitialFatigue
	streak := cfg.PriorStreak

	for i := 0; i < Days; i++ {
		date := start.AddDate(0, 0, i)
		day := Day{Date: date, Weekday: date.Weekday()}

		if !pattern[date.Weekday()] || forced[date.Format(dateLayout)] || streak >= MaxStreak {
			day.Rest = true
			streak = 0
			state = fatigue.StateFresh
			plan.Days = append(plan.Days, day)
			continue
		}

		day.Session = buildSession(cfg, state)
		streak++
		if state < fatigue.StateFatigued {
			state = fatigue.StateFatigued
		}
		plan.Days = append(plan.Days, day)
	}
	return plan
}

func buildSession(cfg Config, state fatigue.State) *Session {
	st := cfg.State
	st.StartSession()

	severity, severe := 0.0, false
	if cfg.Context != nil {
		severity, severe = cfg.Context.Severity, cfg.Context.IsSevere
	}
	var experience string
	var sessionsPerWeek int
	if cfg.Profile != nil {
		experience = cfg.Profile.ExperienceOrDefault()
		sessionsPerWeek = cfg.Profile.SessionsPerWeek
	}
	engine := prescription.NewEngine(prescription.Inputs{
		Experience:      experience,
		Severity:        severity,
		IsSevere:        severe,
		SessionsPerWeek: sessionsPerWeek,
		FatigueState:    state,
		VolumeModifier:  cfg.Trend.VolumeModifier,
		RestMultiplier:  cfg.Modifiers.RestMultiplier,
		Stats:           cfg.Stats,
	})

	target := targetMinutes(cfg.Profile)
	counts := Counts(cfg.Profile, severe)
	mainPred := mainPredicate(st, state, cfg.Trend.IntensityCap)

	fill := func(section selection.Section, n int, pred selection.Predicate) []*prescription.Item {
		items := make([]*prescription.Item, 0, n)
		for i := 0; i < n; i++ {
			ex := cfg.Scorer.Select(cfg.Pool, section, st, cfg.Rand, pred)
			if ex == nil {
				break
			}
			items = append(items, engine.Prescribe(ex, section))
		}
		return items
	}

	sess := &budget.Session{
		Warmup: fill(selection.SectionWarmup, counts.Warmup, supportPredicate),
		Main:   fill(selection.SectionMain, counts.Main, mainPred),
	}
	sess.Cooldown = fill(selection.SectionCooldown, counts.Cooldown, supportPredicate)

	solver := &budget.Solver{
		TargetMinutes: target,
		MinMain:       budget.DefaultMinMain,
		AddMain: func() *prescription.Item {
			ex := cfg.Scorer.Select(cfg.Pool, selection.SectionMain, st, cfg.Rand, mainPred)
			if ex == nil {
				return nil
			}
			return engine.Prescribe(ex, selection.SectionMain)
		},
		OnRemove: func(it *prescription.Item) { st.Forget(it.Exercise) },
	}
	solver.Solve(sess)

	return &Session{
		Session:          *sess,
		FatigueState:     state.String(),
		LoadFactor:       engine.LoadFactor(),
		TargetMinutes:    target,
		EstimatedSeconds: sess.EstimatedSeconds(),
	}
}

// supportPredicate keeps interval conditioning out of warmup and cooldown.
func supportPredicate(ex *catalog.Exercise) bool {
	return ex.ConditioningStyle != catalog.StyleInterval
}

func mainPredicate(st *selection.State, state fatigue.State, intensityCap *int) selection.Predicate {
	return func(ex *catalog.Exercise) bool {
		if state == fatigue.StateOverreached && ex.MetabolicIntensity >= highMetabolicIntensity {
			return false
		}
		if intensityCap != nil && ex.Difficulty > *intensityCap {
			return false
		}
		return st.CategorySession[ex.Category] < MainCategoryCap
	}
}

// SectionCounts is how many exercises each section starts with.
type SectionCounts struct {
	Warmup   int
	Main     int
	Cooldown int
}

// Counts derives section sizes from target duration, component bias and
// severity.
func Counts(p *profile.UserProfile, severe bool) SectionCounts {
	target := targetMinutes(p)
	c := SectionCounts{
		Warmup:   2,
		Main:     int(math.Max(2, math.Round(float64(target-10)/5))),
		Cooldown: 2,
	}
	if target >= 30 {
		c.Warmup++
	}

	if p.Bias(profile.ComponentMobility) == profile.BiasHigh {
		c.Warmup++
		c.Cooldown++
		c.Main--
	}
	if p.Bias(profile.ComponentStrength) == profile.BiasHigh || p.Bias(profile.ComponentConditioning) == profile.BiasHigh {
		c.Main++
	}
	if severe {
		c.Warmup++
		c.Main--
	}

	c.Warmup = clamp(c.Warmup, 1, 4)
	c.Cooldown = clamp(c.Cooldown, 1, 4)
	c.Main = clamp(c.Main, 2, 8)
	return c
}

var defaultPatterns = map[int][]time.Weekday{
	1: {time.Monday},
	2: {time.Monday, time.Thursday},
	3: {time.Monday, time.Wednesday, time.Friday},
	4: {time.Monday, time.Tuesday, time.Thursday, time.Friday},
	5: {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	6: {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
	7: {time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
}

// Pattern returns the training weekdays: explicit schedule days, otherwise a
// spread derived from sessions per week (three when unset).
func Pattern(p *profile.UserProfile) map[time.Weekday]bool {
	var days []time.Weekday
	if p != nil && len(p.ScheduleDays) > 0 {
		days = p.ScheduleDays
	} else {
		n := 3
		if p != nil && p.SessionsPerWeek > 0 {
			n = clamp(p.SessionsPerWeek, 1, 7)
		}
		days = defaultPatterns[n]
	}
	out := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		out[d] = true
	}
	return out
}

func forcedRest(p *profile.UserProfile) map[string]bool {
	out := make(map[string]bool)
	if p == nil {
		return out
	}
	for _, d := range p.ForcedRestDates {
		out[d] = true
	}
	return out
}

func targetMinutes(p *profile.UserProfile) int {
	if p == nil || p.TargetMinutes <= 0 {
		return DefaultTargetMinutes
	}
	return p.TargetMinutes
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
