// Package budget fits a session to its target duration and orders it into an
// intensity wave.
package budget

import (
	"math"
	"sort"

	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/prescription"
)

const (
	MaxExpandIterations  = 30
	MaxEnforceIterations = 60
	ExpandRatio          = 0.95
	HardLimitSlack       = 30
	DefaultMinMain       = 2

	shrinkStep       = 0.9
	minShrinkSeconds = 5
)

var setCaps = map[catalog.Group]int{
	catalog.GroupStrength:     5,
	catalog.GroupCore:         4,
	catalog.GroupConditioning: 4,
	catalog.GroupMobility:     3,
	catalog.GroupBreathing:    2,
	catalog.GroupOther:        3,
}

// SetCap is the most sets the expansion loop gives an item of this category.
func SetCap(category string) int {
	return setCaps[catalog.GroupOf(category)]
}

// Session is the three ordered blocks of a workout.
type Session struct {
	Warmup   []*prescription.Item `json:"warmup"`
	Main     []*prescription.Item `json:"main"`
	Cooldown []*prescription.Item `json:"cooldown"`
}

// EstimatedSeconds sums every item.
func (s *Session) EstimatedSeconds() int {
	return sumSeconds(s.Warmup) + sumSeconds(s.Main) + sumSeconds(s.Cooldown)
}

// Items returns warmup, main and cooldown in order.
func (s *Session) Items() []*prescription.Item {
	out := make([]*prescription.Item, 0, len(s.Warmup)+len(s.Main)+len(s.Cooldown))
	out = append(out, s.Warmup...)
	out = append(out, s.Main...)
	return append(out, s.Cooldown...)
}

func sumSeconds(items []*prescription.Item) int {
	total := 0
	for _, it := range items {
		total += it.EstimatedSeconds()
	}
	return total
}

// Solver adjusts a session toward TargetMinutes.
type Solver struct {
	TargetMinutes int
	MinMain       int
	// AddMain returns a freshly selected main item, or nil when none is left.
	AddMain func() *prescription.Item
	// OnRemove is told about every main item the hard limit drops.
	OnRemove func(*prescription.Item)
}

// HardLimitSeconds is target x 60 + 30.
func (s *Solver) HardLimitSeconds() int {
	return s.TargetMinutes*60 + HardLimitSlack
}

// Solve expands, enforces the hard limit and reorders the session.
func (s *Solver) Solve(sess *Session) {
	s.Expand(sess)
	s.Enforce(sess)
	Wave(sess)
}

// Expand grows the session until it reaches 95% of the target. Adding a set
// to an existing main item is preferred over adding an exercise.
func (s *Solver) Expand(sess *Session) {
	goal := int(math.Ceil(float64(s.TargetMinutes*60) * ExpandRatio))
	for i := 0; i < MaxExpandIterations && sess.EstimatedSeconds() < goal; i++ {
		if it := raisable(sess.Main); it != nil {
			it.Sets++
			continue
		}
		if s.AddMain == nil {
			return
		}
		it := s.AddMain()
		if it == nil {
			return
		}
		sess.Main = append(sess.Main, it)
	}
}

// raisable returns the main item with the fewest sets still below its cap.
func raisable(items []*prescription.Item) *prescription.Item {
	var best *prescription.Item
	for _, it := range items {
		if it.Interval || it.Sets >= SetCap(it.Exercise.Category) {
			continue
		}
		if best == nil || it.Sets < best.Sets {
			best = it
		}
	}
	return best
}

// Enforce trims the session below the hard limit. When nothing legal is
// left it accepts an over-time session.
func (s *Solver) Enforce(sess *Session) {
	limit := s.HardLimitSeconds()
	minMain := s.MinMain
	if minMain <= 0 {
		minMain = DefaultMinMain
	}

	for i := 0; i < MaxEnforceIterations && sess.EstimatedSeconds() > limit; i++ {
		if s.trimMain(sess, minMain) {
			continue
		}
		if reduceSets(sess.Cooldown) || reduceSets(sess.Warmup) {
			continue
		}
		if !shrink(sess) {
			return
		}
	}
}

func (s *Solver) trimMain(sess *Session, minMain int) bool {
	order := make([]int, len(sess.Main))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sess.Main[order[a]].EstimatedSeconds() > sess.Main[order[b]].EstimatedSeconds()
	})

	support := sumSeconds(sess.Warmup) + sumSeconds(sess.Cooldown)
	mainTotal := sumSeconds(sess.Main)
	for _, idx := range order {
		it := sess.Main[idx]
		if it.Sets > 1 {
			it.Sets--
			return true
		}
		if len(sess.Main) > minMain && mainTotal-it.EstimatedSeconds() >= support {
			sess.Main = append(sess.Main[:idx], sess.Main[idx+1:]...)
			if s.OnRemove != nil {
				s.OnRemove(it)
			}
			return true
		}
	}
	return false
}

func reduceSets(items []*prescription.Item) bool {
	var best *prescription.Item
	for _, it := range items {
		if it.Sets > 1 && (best == nil || it.EstimatedSeconds() > best.EstimatedSeconds()) {
			best = it
		}
	}
	if best == nil {
		return false
	}
	best.Sets--
	return true
}

// shrink cuts every item's reps or time by 10%. It reports whether anything
// changed.
func shrink(sess *Session) bool {
	changed := false
	for _, it := range sess.Items() {
		if it.Timed() {
			next := int(float64(it.DurationSeconds) * shrinkStep)
			if next < minShrinkSeconds {
				next = minShrinkSeconds
			}
			if next < it.DurationSeconds {
				it.DurationSeconds = next
				changed = true
			}
			continue
		}
		next := int(float64(it.Reps) * shrinkStep)
		if next < 1 {
			next = 1
		}
		if next < it.Reps {
			it.Reps = next
			changed = true
		}
	}
	return changed
}
