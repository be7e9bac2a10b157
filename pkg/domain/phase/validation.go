package phase

import (
	"fmt"

	apperrors "github.com/ripixel/fitglue-planner/pkg/errors"
)

func validate(doc *document) error {
	for id, def := range doc.Phases {
		if err := validateDefinition(id, def); err != nil {
			return err
		}
	}
	for _, id := range doc.Overrides {
		if _, ok := doc.Phases[id]; !ok {
			return invalid(fmt.Sprintf("override %q has no phase definition", id))
		}
	}
	seen := make(map[string]bool, len(doc.Blueprints))
	for _, b := range doc.Blueprints {
		if seen[b.ID] {
			return invalid(fmt.Sprintf("duplicate blueprint %q", b.ID))
		}
		seen[b.ID] = true
		if err := validateBlueprint(b, doc.Phases); err != nil {
			return err
		}
	}
	return nil
}

func validateDefinition(id string, def *Definition) error {
	if def == nil {
		return invalid(fmt.Sprintf("phase %q is empty", id))
	}
	for _, band := range []string{BandBeginner, BandIntermediate, BandAdvanced} {
		if def.Targets[band] <= 0 {
			return invalid(fmt.Sprintf("phase %q needs a positive %s target", id, band))
		}
	}
	if def.RestMultiplier <= 0 {
		return invalid(fmt.Sprintf("phase %q needs a positive rest_multiplier", id))
	}
	if def.AnchorTarget <= 0 {
		return invalid(fmt.Sprintf("phase %q needs a positive anchor_target", id))
	}
	return nil
}

func validateBlueprint(b *Blueprint, defs map[string]*Definition) error {
	if b == nil || b.ID == "" {
		return invalid("blueprint id is required")
	}
	if len(b.Sequence) == 0 {
		return invalid(fmt.Sprintf("blueprint %q has no phases", b.ID))
	}
	seen := make(map[string]bool, len(b.Sequence))
	for _, p := range b.Sequence {
		if _, ok := defs[p]; !ok {
			return unknownPhase(b.ID, p)
		}
		if seen[p] {
			return invalid(fmt.Sprintf("blueprint %q repeats phase %q", b.ID, p))
		}
		seen[p] = true
	}
	if b.LoopTo != "" && !seen[b.LoopTo] {
		return invalid(fmt.Sprintf("blueprint %q loops to %q outside its sequence", b.ID, b.LoopTo))
	}
	return nil
}

func invalid(msg string) error {
	return apperrors.ErrConfigInvalid.WithMessage(msg)
}
