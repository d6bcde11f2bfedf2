package tuning

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"focusfire.ai/internal/registry"
)

// Tuning holds every constant the decision core consults. Keys missing from
// the YAML keep their Defaults value.
type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version" json:"protocol_version"`

	// Seed is mixed with the agent id to seed each agent's PRNG.
	Seed int64 `yaml:"seed" json:"seed"`

	// SharedSlots is the channel capacity the core expects from the host.
	SharedSlots int `yaml:"shared_slots" json:"shared_slots"`
	// Every agent resets the channel on its first turn. ResetWindowRounds,
	// when positive, limits that to agents whose first turn is at or before
	// this round.
	ResetWindowRounds int `yaml:"reset_window_rounds" json:"reset_window_rounds"`

	// LowHealth is the health at or below which an observed target is
	// retracted from the registry.
	LowHealth int `yaml:"low_health" json:"low_health"`
	// EvictAfterVacantTurns clears the priority target after this many
	// rounds in which an in-range observer found its cell empty. 0 disables
	// eviction.
	EvictAfterVacantTurns int `yaml:"evict_after_vacant_turns" json:"evict_after_vacant_turns"`

	Commander CommanderTuning `yaml:"commander" json:"commander"`
	Harvester HarvesterTuning `yaml:"harvester" json:"harvester"`
	Builder   BuilderTuning   `yaml:"builder" json:"builder"`
}

type CommanderTuning struct {
	// Harvesters are built while the turn count is below EarlyHarvesterTurns
	// and strictly inside (ResurgenceStart, ResurgenceEnd).
	EarlyHarvesterTurns int `yaml:"early_harvester_turns" json:"early_harvester_turns"`
	ResurgenceStart     int `yaml:"resurgence_start" json:"resurgence_start"`
	ResurgenceEnd       int `yaml:"resurgence_end" json:"resurgence_end"`
}

type HarvesterTuning struct {
	// PrimaryFloor is left in every primary cell so the field regenerates.
	PrimaryFloor int `yaml:"primary_floor" json:"primary_floor"`
	// RichPrimary is the primary amount above which a cell is worth walking to.
	RichPrimary int `yaml:"rich_primary" json:"rich_primary"`
}

type BuilderTuning struct {
	CasterSecondaryCost int `yaml:"caster_secondary_cost" json:"caster_secondary_cost"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:       "1.0",
		Seed:                  6597,
		SharedSlots:           64,
		ResetWindowRounds:     0,
		LowHealth:             3,
		EvictAfterVacantTurns: 3,
		Commander: CommanderTuning{
			EarlyHarvesterTurns: 50,
			ResurgenceStart:     500,
			ResurgenceEnd:       550,
		},
		Harvester: HarvesterTuning{
			PrimaryFloor: 1,
			RichPrimary:  15,
		},
		Builder: BuilderTuning{
			CasterSecondaryCost: 50,
		},
	}
}

func (t Tuning) Validate() error {
	if t.SharedSlots < 4 || t.SharedSlots > 64 {
		return fmt.Errorf("shared_slots must be in [4,64], got %d", t.SharedSlots)
	}
	if t.ResetWindowRounds < 0 {
		return fmt.Errorf("reset_window_rounds must be >= 0")
	}
	if t.LowHealth < 0 {
		return fmt.Errorf("low_health must be >= 0")
	}
	if t.EvictAfterVacantTurns < 0 || t.EvictAfterVacantTurns > registry.MaxEvictAfterVacant {
		return fmt.Errorf("evict_after_vacant_turns must be in [0,%d]", registry.MaxEvictAfterVacant)
	}
	if t.Commander.ResurgenceEnd < t.Commander.ResurgenceStart {
		return fmt.Errorf("commander resurgence window is inverted: %d..%d", t.Commander.ResurgenceStart, t.Commander.ResurgenceEnd)
	}
	if t.Harvester.PrimaryFloor < 0 {
		return fmt.Errorf("harvester primary_floor must be >= 0")
	}
	return nil
}

func Load(path string) (Tuning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, err
	}
	return Parse(raw)
}

// Parse decodes tuning YAML. Unknown keys are rejected so typos surface at
// startup rather than as silently ignored constants.
func Parse(raw []byte) (Tuning, error) {
	t := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return Tuning{}, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
