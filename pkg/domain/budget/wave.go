package budget

import (
	"sort"

	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
)

var positionRank = map[string]int{
	catalog.PositionSupine:       1,
	catalog.PositionProne:        1,
	catalog.PositionSideLying:    1,
	catalog.PositionFloorSitting: 2,
	catalog.PositionQuadruped:    2,
	catalog.PositionKneeling:     3,
	catalog.PositionHalfKneeling: 3,
	catalog.PositionSitting:      3,
	catalog.PositionStanding:     4,
}

// PositionRank is the body-position energy rank, lying lowest.
func PositionRank(position string) int {
	if r, ok := positionRank[position]; ok {
		return r
	}
	return 2
}

// Wave reorders the session: warmup climbs from the floor, main goes hardest
// first, cooldown returns to the floor.
func Wave(sess *Session) {
	sort.SliceStable(sess.Warmup, func(i, j int) bool {
		a, b := sess.Warmup[i].Exercise, sess.Warmup[j].Exercise
		if ra, rb := PositionRank(a.Position), PositionRank(b.Position); ra != rb {
			return ra < rb
		}
		return a.Difficulty < b.Difficulty
	})
	sort.SliceStable(sess.Main, func(i, j int) bool {
		a, b := sess.Main[i].Exercise, sess.Main[j].Exercise
		if a.Difficulty != b.Difficulty {
			return a.Difficulty > b.Difficulty
		}
		return a.MetabolicIntensity > b.MetabolicIntensity
	})
	sort.SliceStable(sess.Cooldown, func(i, j int) bool {
		a, b := sess.Cooldown[i].Exercise, sess.Cooldown[j].Exercise
		if ra, rb := PositionRank(a.Position), PositionRank(b.Position); ra != rb {
			return ra > rb
		}
		return a.Difficulty < b.Difficulty
	})
}
