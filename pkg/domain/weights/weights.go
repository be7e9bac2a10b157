// Package weights builds per-category weights from a user profile using a
// declarative rule table.
package weights

import (
	"sort"
	"strings"

	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
)

// Floor is the minimum weight of any category.
const Floor = 0.05

// Map holds one weight per category present in the catalog.
type Map map[string]float64

// Get returns the weight of a category, or 1.0 for categories the map has
// never seen.
func (m Map) Get(category string) float64 {
	if w, ok := m[category]; ok {
		return w
	}
	return 1.0
}

// Scale multiplies every category matched by Match.
type Scale struct {
	Match  func(category string) bool
	Factor float64
}

// Rule applies its boosts and then its scales when Condition holds.
type Rule struct {
	Name      string
	Condition func(p *profile.UserProfile) bool
	Boosts    map[string]float64
	Scales    []Scale
}

// Build starts every category at 1.0, applies the rule table in order and
// floors the result at Floor.
func Build(p *profile.UserProfile, categories []string) Map {
	return BuildWithRules(p, categories, DefaultRules())
}

// BuildWithRules is Build with an explicit table.
func BuildWithRules(p *profile.UserProfile, categories []string, rules []Rule) Map {
	m := make(Map, len(categories))
	for _, c := range categories {
		m[c] = 1.0
	}
	if p == nil {
		return m
	}
	for _, r := range rules {
		if !r.Condition(p) {
			continue
		}
		for category, delta := range r.Boosts {
			if _, ok := m[category]; ok {
				m[category] += delta
			}
		}
		for _, s := range r.Scales {
			for category := range m {
				if s.Match(category) {
					m[category] *= s.Factor
				}
			}
		}
	}
	for c, w := range m {
		if w < Floor {
			m[c] = Floor
		}
	}
	return m
}

// Categories extracts the distinct, sorted categories of a catalog.
func Categories(exercises []*catalog.Exercise) []string {
	set := make(map[string]bool)
	for _, ex := range exercises {
		set[ex.Category] = true
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// --- predicates ---

func has(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.ReplaceAll(strings.TrimSpace(item), " ", "_"), v) {
			return true
		}
	}
	return false
}

func painAt(zone string) func(*profile.UserProfile) bool {
	return func(p *profile.UserProfile) bool { return has(p.PainLocations, zone) }
}

func focusOn(area string) func(*profile.UserProfile) bool {
	return func(p *profile.UserProfile) bool { return has(p.FocusAreas, area) }
}

func diagnosed(d string) func(*profile.UserProfile) bool {
	return func(p *profile.UserProfile) bool { return has(p.Diagnoses, d) }
}

func restricted(r string) func(*profile.UserProfile) bool {
	return func(p *profile.UserProfile) bool { return has(p.Restrictions, r) }
}

func worksAs(w string) func(*profile.UserProfile) bool {
	return func(p *profile.UserProfile) bool { return strings.EqualFold(p.WorkType, w) }
}

func hobby(h string) func(*profile.UserProfile) bool {
	return func(p *profile.UserProfile) bool { return has(p.Hobbies, h) }
}

func biased(component, level string) func(*profile.UserProfile) bool {
	return func(p *profile.UserProfile) bool { return p.Bias(component) == level }
}

func primaryGoal(g string) func(*profile.UserProfile) bool {
	return func(p *profile.UserProfile) bool { return strings.EqualFold(p.PrimaryGoal, g) }
}

func secondaryGoal(g string) func(*profile.UserProfile) bool {
	return func(p *profile.UserProfile) bool {
		return strings.EqualFold(p.SecondaryGoal, g) && !strings.EqualFold(p.PrimaryGoal, g)
	}
}

func inGroup(groups ...catalog.Group) func(string) bool {
	return func(category string) bool {
		g := catalog.GroupOf(category)
		for _, want := range groups {
			if g == want {
				return true
			}
		}
		return false
	}
}

func isCategory(categories ...string) func(string) bool {
	return func(category string) bool {
		for _, c := range categories {
			if c == category {
				return true
			}
		}
		return false
	}
}
