// Package prescription turns a selected exercise into sets, reps or time,
// rest and transition for one section of one session.
package prescription

import (
	"fmt"
	"math"

	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/fatigue"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
	"github.com/ripixel/fitglue-planner/pkg/domain/selection"
)

const (
	MinLoadFactor = 0.45
	MaxLoadFactor = 1.35

	// GlobalMaxReps caps reps when the record has no lower cap.
	GlobalMaxReps = 20

	minReps            = 4
	minTimedSeconds    = 15
	severeBreathingAdd = 30
	intervalTarget     = 480
	minIntervalSets    = 3
	maxIntervalSets    = 20
	minMainSets        = 1
	maxMainSets        = 5
)

var experienceBase = map[string]float64{
	profile.ExperienceNone:       0.75,
	profile.ExperienceOccasional: 0.85,
	profile.ExperienceRegular:    1.0,
	profile.ExperienceAdvanced:   1.15,
}

var fatigueFactor = map[fatigue.State]float64{
	fatigue.StateFresh:       1.0,
	fatigue.StateFatigued:    0.9,
	fatigue.StateOverreached: 0.8,
}

var breathingSeconds = map[selection.Section]int{
	selection.SectionWarmup:   60,
	selection.SectionMain:     90,
	selection.SectionCooldown: 120,
}

var timedSeconds = map[selection.Section]float64{
	selection.SectionWarmup:   30,
	selection.SectionMain:     40,
	selection.SectionCooldown: 45,
}

var baseReps = map[selection.Section]float64{
	selection.SectionWarmup:   8,
	selection.SectionMain:     10,
	selection.SectionCooldown: 8,
}

// Inputs are the per-day values the load factor depends on.
type Inputs struct {
	Experience      string
	Severity        float64
	IsSevere        bool
	SessionsPerWeek int
	FatigueState    fatigue.State
	VolumeModifier  float64
	RestMultiplier  float64
	Stats           map[string]selection.ExerciseStats
}

// LoadFactor scales volume for one day, clamped to [0.45, 1.35].
func LoadFactor(in Inputs) float64 {
	base, ok := experienceBase[in.Experience]
	if !ok {
		base = experienceBase[profile.ExperienceOccasional]
	}

	severity := 1 - 0.04*math.Max(0, in.Severity-3)

	frequency := 1.0
	switch {
	case in.SessionsPerWeek >= 5:
		frequency = 0.9
	case in.SessionsPerWeek > 0 && in.SessionsPerWeek <= 2:
		frequency = 1.05
	}

	state, ok := fatigueFactor[in.FatigueState]
	if !ok {
		state = 1.0
	}

	volume := in.VolumeModifier
	if volume <= 0 {
		volume = 1.0
	}

	lf := base * severity * frequency * state * volume
	return math.Min(MaxLoadFactor, math.Max(MinLoadFactor, lf))
}

// Item is one prescribed exercise within a session.
type Item struct {
	Exercise   *catalog.Exercise `json:"-"`
	ExerciseID string            `json:"exercise_id"`
	Name       string            `json:"name"`
	Category   string            `json:"category"`
	Section    selection.Section `json:"section"`

	Sets int `json:"sets"`
	// Reps is zero for timed items.
	Reps int `json:"reps,omitempty"`
	// DurationSeconds is the work time per set (per side when PerSide).
	DurationSeconds   int     `json:"duration_seconds,omitempty"`
	PerSide           bool    `json:"per_side"`
	RestSeconds       int     `json:"rest_seconds"`
	TransitionSeconds int     `json:"transition_seconds"`
	SecondsPerRep     float64 `json:"seconds_per_rep,omitempty"`
	Interval          bool    `json:"interval"`
}

// Timed reports whether the item is prescribed in seconds.
func (i *Item) Timed() bool {
	return i.Reps == 0
}

// WorkSeconds is the time under work for one set, both sides included.
func (i *Item) WorkSeconds() int {
	var work float64
	if i.Timed() {
		work = float64(i.DurationSeconds)
	} else {
		pace := i.SecondsPerRep
		if pace <= 0 {
			pace = DefaultSecondsPerRep
		}
		work = float64(i.Reps) * pace
	}
	if i.PerSide {
		work *= 2
	}
	return int(math.Round(work))
}

// EstimatedSeconds is sets x work plus rest between sets and the transition.
// Interval rounds rest after every round.
func (i *Item) EstimatedSeconds() int {
	if i.Sets <= 0 {
		return 0
	}
	if i.Interval {
		return i.Sets*(i.WorkSeconds()+i.RestSeconds) + i.TransitionSeconds
	}
	return i.Sets*i.WorkSeconds() + (i.Sets-1)*i.RestSeconds + i.TransitionSeconds
}

// Display renders the dose, e.g. "3 x 10/side" or "2 x 40s".
func (i *Item) Display() string {
	suffix := ""
	if i.PerSide {
		suffix = "/side"
	}
	if i.Timed() {
		return fmt.Sprintf("%d x %ds%s", i.Sets, i.DurationSeconds, suffix)
	}
	return fmt.Sprintf("%d x %d%s", i.Sets, i.Reps, suffix)
}

// Engine prescribes items for one day.
type Engine struct {
	in         Inputs
	loadFactor float64
}

// NewEngine computes the day's load factor once.
func NewEngine(in Inputs) *Engine {
	return &Engine{in: in, loadFactor: LoadFactor(in)}
}

// LoadFactor returns the day's load factor.
func (e *Engine) LoadFactor() float64 {
	return e.loadFactor
}

// Prescribe doses an exercise for a section.
func (e *Engine) Prescribe(ex *catalog.Exercise, section selection.Section) *Item {
	item := &Item{
		Exercise:          ex,
		ExerciseID:        ex.ID,
		Name:              ex.Name,
		Category:          ex.Category,
		Section:           section,
		Sets:              1,
		PerSide:           ex.Unilateral,
		RestSeconds:       RestSeconds(ex, e.in.RestMultiplier),
		TransitionSeconds: TransitionSeconds(ex),
	}

	switch {
	case ex.Category == catalog.CategoryBreathing:
		item.DurationSeconds = breathingSeconds[section]
		if e.in.IsSevere {
			item.DurationSeconds += severeBreathingAdd
		}
		return item

	case ex.ConditioningStyle == catalog.StyleInterval && ex.Interval != nil:
		item.Interval = true
		item.DurationSeconds = ex.Interval.WorkSeconds
		item.RestSeconds = ex.Interval.RestSeconds
		round := ex.Interval.WorkSeconds + ex.Interval.RestSeconds
		item.Sets = clampInt(int(math.Round(intervalTarget*e.loadFactor/float64(round))), minIntervalSets, maxIntervalSets)
		return item

	case ex.Timed:
		secs := roundTo(timedSeconds[section]*e.loadFactor, 5)
		if secs < minTimedSeconds {
			secs = minTimedSeconds
		}
		if ex.MaxDurationSeconds > 0 && secs > ex.MaxDurationSeconds {
			secs = ex.MaxDurationSeconds
		}
		item.DurationSeconds = secs

	default:
		limit := GlobalMaxReps
		if ex.MaxReps > 0 && ex.MaxReps < limit {
			limit = ex.MaxReps
		}
		reps := int(math.Round(baseReps[section] * e.loadFactor))
		if reps < minReps {
			reps = minReps
		}
		if reps > limit {
			reps = limit
		}
		item.Reps = reps
		item.SecondsPerRep = e.pace(ex)
	}

	if section == selection.SectionMain {
		item.Sets = e.mainSets()
	}
	return item
}

func (e *Engine) mainSets() int {
	base := 2.0
	switch e.in.Experience {
	case profile.ExperienceRegular, profile.ExperienceAdvanced:
		base = 3.0
	}
	return clampInt(int(math.Round(base*e.loadFactor)), minMainSets, maxMainSets)
}

func (e *Engine) pace(ex *catalog.Exercise) float64 {
	if s, ok := e.in.Stats[ex.ID]; ok && s.SecondsPerRep > 0 {
		return s.SecondsPerRep
	}
	return DefaultSecondsPerRep
}

func roundTo(v float64, step int) int {
	return int(math.Round(v/float64(step))) * step
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
