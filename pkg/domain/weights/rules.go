package weights

import (
	c "github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
)

// goalBoosts is shared by the primary and secondary goal rules; the
// secondary goal receives half of each boost.
var goalBoosts = map[string]map[string]float64{
	profile.GoalPainRelief: {c.CategoryBreathing: 0.3, c.CategorySpineMobility: 0.3, c.CategoryNerveFlossing: 0.2},
	profile.GoalMobility: {
		c.CategorySpineMobility: 0.3, c.CategoryHipMobility: 0.3,
		c.CategoryThoracicMobility: 0.3, c.CategoryStretching: 0.3,
	},
	profile.GoalStrength: {c.CategoryLowerBodyStrength: 0.4, c.CategoryUpperBodyStrength: 0.4, c.CategoryGluteActivation: 0.2},
	profile.GoalPosture:  {c.CategoryThoracicMobility: 0.3, c.CategoryUpperBodyStrength: 0.3},
	profile.GoalFitness:  {c.CategoryConditioningLowImpact: 0.4, c.CategoryConditioningIntervals: 0.3},
	profile.GoalPrevention: {
		c.CategoryCoreAntiExtension: 0.2, c.CategoryCoreAntiRotation: 0.2,
		c.CategoryCoreAntiLateralFlexion: 0.2, c.CategoryBalance: 0.2,
	},
}

var goalOrder = []string{
	profile.GoalPainRelief,
	profile.GoalMobility,
	profile.GoalStrength,
	profile.GoalPosture,
	profile.GoalFitness,
	profile.GoalPrevention,
}

// DefaultRules returns the rule table in evaluation order: pain locations,
// focus areas, diagnoses, restrictions, work type, hobbies, component bias,
// primary goal, secondary goal.
func DefaultRules() []Rule {
	rules := []Rule{
		// Pain locations
		{Name: "pain_lumbar", Condition: painAt("lumbar_general"), Boosts: map[string]float64{
			c.CategoryCoreAntiExtension: 0.4, c.CategoryCoreAntiRotation: 0.3,
			c.CategoryGluteActivation: 0.3, c.CategorySpineMobility: 0.2,
		}},
		{Name: "pain_si_joint", Condition: painAt("si_joint"), Boosts: map[string]float64{
			c.CategoryGluteActivation: 0.4, c.CategoryCoreAntiLateralFlexion: 0.3, c.CategoryHipMobility: 0.2,
		}},
		{Name: "pain_hip", Condition: painAt("hip"), Boosts: map[string]float64{
			c.CategoryHipMobility: 0.4, c.CategoryGluteActivation: 0.3,
		}},
		{Name: "pain_thoracic", Condition: painAt("thoracic"), Boosts: map[string]float64{
			c.CategoryThoracicMobility: 0.5, c.CategoryUpperBodyStrength: 0.2,
		}},
		{Name: "pain_cervical", Condition: painAt("cervical"),
			Boosts: map[string]float64{c.CategoryThoracicMobility: 0.3, c.CategoryBreathing: 0.2},
			Scales: []Scale{{Match: isCategory(c.CategoryUpperBodyStrength), Factor: 0.8}},
		},
		{Name: "pain_knee", Condition: painAt("knee"),
			Boosts: map[string]float64{c.CategoryBalance: 0.2, c.CategoryGluteActivation: 0.3},
			Scales: []Scale{{Match: isCategory(c.CategoryLowerBodyStrength), Factor: 0.8}},
		},
		{Name: "pain_sciatica", Condition: painAt("sciatica"),
			Boosts: map[string]float64{c.CategoryNerveFlossing: 0.6},
			Scales: []Scale{{Match: inGroup(c.GroupConditioning), Factor: 0.85}},
		},

		// Focus areas
		{Name: "focus_core", Condition: focusOn("core"), Boosts: map[string]float64{
			c.CategoryCoreAntiExtension: 0.3, c.CategoryCoreAntiRotation: 0.3, c.CategoryCoreAntiLateralFlexion: 0.3,
		}},
		{Name: "focus_mobility", Condition: focusOn("mobility"), Boosts: map[string]float64{
			c.CategorySpineMobility: 0.3, c.CategoryHipMobility: 0.3, c.CategoryThoracicMobility: 0.3,
		}},
		{Name: "focus_posture", Condition: focusOn("posture"), Boosts: map[string]float64{
			c.CategoryThoracicMobility: 0.3, c.CategoryUpperBodyStrength: 0.2,
		}},
		{Name: "focus_glutes", Condition: focusOn("glutes"), Boosts: map[string]float64{
			c.CategoryGluteActivation: 0.4, c.CategoryLowerBodyStrength: 0.2,
		}},
		{Name: "focus_balance", Condition: focusOn("balance"), Boosts: map[string]float64{
			c.CategoryBalance: 0.4,
		}},

		// Diagnoses
		{Name: "dx_disc_herniation", Condition: diagnosed("disc_herniation"),
			Boosts: map[string]float64{c.CategoryCoreAntiExtension: 0.3, c.CategoryNerveFlossing: 0.3},
			Scales: []Scale{{Match: inGroup(c.GroupConditioning), Factor: 0.85}},
		},
		{Name: "dx_spinal_stenosis", Condition: diagnosed("spinal_stenosis"),
			Boosts: map[string]float64{c.CategorySpineMobility: 0.3},
			Scales: []Scale{{Match: inGroup(c.GroupConditioning), Factor: 0.85}},
		},
		{Name: "dx_spondylolisthesis", Condition: diagnosed("spondylolisthesis"),
			Boosts: map[string]float64{c.CategoryCoreAntiExtension: 0.4},
			Scales: []Scale{{Match: isCategory(c.CategorySpineMobility), Factor: 0.8}},
		},
		{Name: "dx_scoliosis", Condition: diagnosed("scoliosis"), Boosts: map[string]float64{
			c.CategoryCoreAntiLateralFlexion: 0.3, c.CategoryThoracicMobility: 0.2,
		}},
		{Name: "dx_osteoarthritis", Condition: diagnosed("osteoarthritis"),
			Boosts: map[string]float64{c.CategoryConditioningLowImpact: 0.3},
			Scales: []Scale{{Match: isCategory(c.CategoryConditioningIntervals), Factor: 0.7}},
		},
		{Name: "dx_piriformis", Condition: diagnosed("piriformis_syndrome"), Boosts: map[string]float64{
			c.CategoryHipMobility: 0.4, c.CategoryNerveFlossing: 0.2,
		}},

		// Restrictions
		{Name: "restriction_no_high_impact", Condition: restricted("no_high_impact"),
			Scales: []Scale{{Match: isCategory(c.CategoryConditioningIntervals), Factor: 0.6}},
		},
		{Name: "restriction_foot_injury", Condition: restricted("foot_injury"),
			Scales: []Scale{
				{Match: inGroup(c.GroupConditioning), Factor: 0.5},
				{Match: isCategory(c.CategoryBalance), Factor: 0.5},
			},
		},

		// Work type
		{Name: "work_sedentary", Condition: worksAs("sedentary"), Boosts: map[string]float64{
			c.CategoryHipMobility: 0.3, c.CategoryThoracicMobility: 0.3, c.CategoryGluteActivation: 0.2,
		}},
		{Name: "work_standing", Condition: worksAs("standing"), Boosts: map[string]float64{
			c.CategorySpineMobility: 0.2, c.CategoryStretching: 0.2, c.CategoryBreathing: 0.1,
		}},

		// Hobbies
		{Name: "hobby_running", Condition: hobby("running"), Boosts: map[string]float64{
			c.CategoryGluteActivation: 0.3, c.CategoryBalance: 0.2, c.CategoryHipMobility: 0.2,
		}},
		{Name: "hobby_cycling", Condition: hobby("cycling"), Boosts: map[string]float64{
			c.CategoryHipMobility: 0.3, c.CategoryThoracicMobility: 0.3, c.CategoryStretching: 0.2,
		}},

		// Component bias
		{Name: "bias_mobility_high", Condition: biased(profile.ComponentMobility, profile.BiasHigh),
			Scales: []Scale{{Match: inGroup(c.GroupMobility), Factor: 1.3}}},
		{Name: "bias_mobility_low", Condition: biased(profile.ComponentMobility, profile.BiasLow),
			Scales: []Scale{{Match: inGroup(c.GroupMobility), Factor: 0.7}}},
		{Name: "bias_strength_high", Condition: biased(profile.ComponentStrength, profile.BiasHigh),
			Scales: []Scale{{Match: inGroup(c.GroupStrength, c.GroupCore), Factor: 1.3}}},
		{Name: "bias_strength_low", Condition: biased(profile.ComponentStrength, profile.BiasLow),
			Scales: []Scale{{Match: inGroup(c.GroupStrength, c.GroupCore), Factor: 0.7}}},
		{Name: "bias_conditioning_high", Condition: biased(profile.ComponentConditioning, profile.BiasHigh),
			Scales: []Scale{{Match: inGroup(c.GroupConditioning), Factor: 1.3}}},
		{Name: "bias_conditioning_low", Condition: biased(profile.ComponentConditioning, profile.BiasLow),
			Scales: []Scale{{Match: inGroup(c.GroupConditioning), Factor: 0.6}}},
	}

	for _, g := range goalOrder {
		rules = append(rules, Rule{Name: "goal_primary_" + g, Condition: primaryGoal(g), Boosts: goalBoosts[g]})
	}
	for _, g := range goalOrder {
		rules = append(rules, Rule{Name: "goal_secondary_" + g, Condition: secondaryGoal(g), Boosts: halve(goalBoosts[g])})
	}
	return rules
}

func halve(boosts map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(boosts))
	for k, v := range boosts {
		out[k] = v / 2
	}
	return out
}
