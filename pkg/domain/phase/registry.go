package phase

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	apperrors "github.com/ripixel/fitglue-planner/pkg/errors"
)

//go:embed blueprints.yaml
var defaultBlueprints []byte

// Experience bands used to pick phase targets.
const (
	BandBeginner     = "beginner"
	BandIntermediate = "intermediate"
	BandAdvanced     = "advanced"
)

// Definition describes one phase independent of the blueprint using it.
type Definition struct {
	ID             string         `yaml:"-"`
	Targets        map[string]int `yaml:"targets"`
	RestMultiplier float64        `yaml:"rest_multiplier"`
	AnchorTarget   int            `yaml:"anchor_target"`
}

// Target returns the session target for a band.
func (d *Definition) Target(band string) int {
	if t, ok := d.Targets[band]; ok {
		return t
	}
	return d.Targets[BandIntermediate]
}

// Blueprint is an ordered phase sequence for a training goal.
type Blueprint struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Sequence []string `yaml:"sequence"`
	LoopTo   string   `yaml:"loop_to"`
}

// Next returns the phase after id, wrapping to LoopTo at the end.
func (b *Blueprint) Next(id string) (string, error) {
	for i, p := range b.Sequence {
		if p != id {
			continue
		}
		if i+1 < len(b.Sequence) {
			return b.Sequence[i+1], nil
		}
		if b.LoopTo != "" {
			return b.LoopTo, nil
		}
		return b.Sequence[0], nil
	}
	return "", unknownPhase(b.ID, id)
}

// Contains reports whether the phase is part of the blueprint.
func (b *Blueprint) Contains(id string) bool {
	for _, p := range b.Sequence {
		if p == id {
			return true
		}
	}
	return false
}

type document struct {
	Phases     map[string]*Definition `yaml:"phases"`
	Overrides  []string               `yaml:"overrides"`
	Blueprints []*Blueprint           `yaml:"blueprints"`
}

var (
	registryMu  sync.RWMutex
	definitions = make(map[string]*Definition)
	overrides   = make(map[string]bool)
	blueprints  = make(map[string]*Blueprint)
)

func init() {
	if err := LoadDefaults(); err != nil {
		panic(fmt.Sprintf("phase: invalid embedded blueprints: %v", err))
	}
}

// LoadDefaults registers the embedded blueprints.
func LoadDefaults() error {
	return Load(defaultBlueprints)
}

// Load parses a blueprint document and registers everything in it.
// Nothing is registered if the document is invalid.
func Load(data []byte) error {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return apperrors.ErrConfigInvalid.WithCause(err).WithMessage("blueprint document is not valid YAML")
	}
	for id, def := range doc.Phases {
		def.ID = id
	}
	if err := validate(&doc); err != nil {
		return err
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	for id, def := range doc.Phases {
		definitions[id] = def
	}
	for _, id := range doc.Overrides {
		overrides[id] = true
	}
	for _, b := range doc.Blueprints {
		blueprints[b.ID] = b
	}
	return nil
}

// RegisterBlueprint adds a blueprint whose phases are already registered.
func RegisterBlueprint(b *Blueprint) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if err := validateBlueprint(b, definitions); err != nil {
		return err
	}
	blueprints[b.ID] = b
	return nil
}

// GetBlueprint returns a registered blueprint.
func GetBlueprint(id string) (*Blueprint, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := blueprints[id]
	if !ok {
		return nil, apperrors.ErrConfigInvalid.
			WithMessage(fmt.Sprintf("unknown blueprint %q", id)).
			WithMetadata("blueprint_id", id)
	}
	return b, nil
}

// GetDefinition returns a registered phase definition.
func GetDefinition(id string) (*Definition, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := definitions[id]
	if !ok {
		return nil, unknownPhase("", id)
	}
	return d, nil
}

// IsOverrideMode reports whether the phase may be used as a safety override.
func IsOverrideMode(id string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return overrides[id]
}

// ClearRegistry removes every registration (useful for tests).
func ClearRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	definitions = make(map[string]*Definition)
	overrides = make(map[string]bool)
	blueprints = make(map[string]*Blueprint)
}

func unknownPhase(blueprintID, phaseID string) error {
	return apperrors.ErrConfigInvalid.
		WithMessage(fmt.Sprintf("unknown phase %q", phaseID)).
		WithMetadata("phase_id", phaseID).
		WithMetadata("blueprint_id", blueprintID)
}
