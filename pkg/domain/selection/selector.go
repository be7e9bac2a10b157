package selection

import (
	"sort"

	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/weights"
)

// Rand is the randomness source used for draws. *math/rand/v2.Rand
// satisfies it; tests inject scripted values.
type Rand interface {
	Float64() float64
}

// Candidate pairs an exercise with its score.
type Candidate struct {
	Exercise *catalog.Exercise
	Score    float64
}

// Predicate filters candidates for a section.
type Predicate func(ex *catalog.Exercise) bool

// Draw picks one candidate with probability proportional to its score using
// a single cumulative-weight pass. Non-positive scores are never drawn.
func Draw(candidates []Candidate, rng Rand) *catalog.Exercise {
	var total float64
	for _, c := range candidates {
		if c.Score > 0 {
			total += c.Score
		}
	}
	if total <= 0 {
		return nil
	}
	r := rng.Float64() * total
	var cumulative float64
	var last *catalog.Exercise
	for _, c := range candidates {
		if c.Score <= 0 {
			continue
		}
		cumulative += c.Score
		last = c.Exercise
		if r < cumulative {
			return c.Exercise
		}
	}
	// Float rounding can leave r == total.
	return last
}

// Candidates scores every pool entry that is unused this session and passes
// the predicate.
func (sc *Scorer) Candidates(pool []*catalog.Exercise, section Section, state *State, pred Predicate) []Candidate {
	out := make([]Candidate, 0, len(pool))
	for _, ex := range pool {
		if state != nil && state.UsedThisSession[ex.ID] {
			continue
		}
		if pred != nil && !pred(ex) {
			continue
		}
		out = append(out, Candidate{Exercise: ex, Score: sc.Score(ex, section, state)})
	}
	return out
}

// Select draws one exercise for the section and records it in state.
// It returns nil when no candidate remains.
func (sc *Scorer) Select(pool []*catalog.Exercise, section Section, state *State, rng Rand, pred Predicate) *catalog.Exercise {
	ex := Draw(sc.Candidates(pool, section, state, pred), rng)
	if ex != nil && state != nil {
		state.Record(ex)
	}
	return ex
}

// ChooseAnchors draws up to n distinct anchor families among main-section
// groups, with probability proportional to the family's category weight.
func ChooseAnchors(pool []*catalog.Exercise, w weights.Map, n int, rng Rand) []string {
	familyWeight := make(map[string]float64)
	for _, ex := range pool {
		switch catalog.GroupOf(ex.Category) {
		case catalog.GroupCore, catalog.GroupStrength, catalog.GroupConditioning:
		default:
			continue
		}
		familyWeight[ex.FamilyKey()] = w.Get(ex.Category)
	}

	families := make([]string, 0, len(familyWeight))
	for f := range familyWeight {
		families = append(families, f)
	}
	sort.Strings(families)

	var anchors []string
	for len(anchors) < n && len(families) > 0 {
		var total float64
		for _, f := range families {
			total += familyWeight[f]
		}
		if total <= 0 {
			break
		}
		r := rng.Float64() * total
		pick := len(families) - 1
		var cumulative float64
		for i, f := range families {
			cumulative += familyWeight[f]
			if r < cumulative {
				pick = i
				break
			}
		}
		anchors = append(anchors, families[pick])
		families = append(families[:pick], families[pick+1:]...)
	}
	return anchors
}
