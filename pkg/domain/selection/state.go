// Package selection scores candidate exercises and draws them by weighted
// random choice.
package selection

import (
	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
)

// Section of a session.
type Section string

const (
	SectionWarmup   Section = "warmup"
	SectionMain     Section = "main"
	SectionCooldown Section = "cooldown"
)

// Sections in session order.
var Sections = []Section{SectionWarmup, SectionMain, SectionCooldown}

// Anchor exposure targets per week.
const (
	DefaultAnchorTarget  = 2
	StrengthAnchorTarget = 3
)

// State is the bookkeeping of one planning run. It is created per run and
// discarded with it.
type State struct {
	UsedThisWeek    map[string]bool
	UsedThisSession map[string]bool
	FamilyWeek      map[string]int
	FamilySession   map[string]int
	CategorySession map[string]int
	Anchors         map[string]bool
	AnchorTarget    int
}

// NewState creates the bookkeeping for a planning run.
func NewState(anchorFamilies []string, anchorTarget int) *State {
	if anchorTarget <= 0 {
		anchorTarget = DefaultAnchorTarget
	}
	anchors := make(map[string]bool, len(anchorFamilies))
	for _, f := range anchorFamilies {
		anchors[f] = true
	}
	s := &State{
		UsedThisWeek: make(map[string]bool),
		FamilyWeek:   make(map[string]int),
		Anchors:      anchors,
		AnchorTarget: anchorTarget,
	}
	s.StartSession()
	return s
}

// StartSession clears the per-session counters.
func (s *State) StartSession() {
	s.UsedThisSession = make(map[string]bool)
	s.FamilySession = make(map[string]int)
	s.CategorySession = make(map[string]int)
}

// Record marks an exercise as chosen in the current session.
func (s *State) Record(ex *catalog.Exercise) {
	family := ex.FamilyKey()
	s.UsedThisWeek[ex.ID] = true
	s.UsedThisSession[ex.ID] = true
	s.FamilyWeek[family]++
	s.FamilySession[family]++
	s.CategorySession[ex.Category]++
}

// Forget reverses Record, used when the time budget drops an exercise.
func (s *State) Forget(ex *catalog.Exercise) {
	family := ex.FamilyKey()
	delete(s.UsedThisSession, ex.ID)
	decrement(s.FamilyWeek, family)
	decrement(s.FamilySession, family)
	decrement(s.CategorySession, ex.Category)
}

func decrement(m map[string]int, key string) {
	if m[key] <= 1 {
		delete(m, key)
		return
	}
	m[key]--
}
