package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/OCAP2/battlesim/internal/battle"
	"gopkg.in/yaml.v3"
)

// ArmySpec describes one army of a roster file.
type ArmySpec struct {
	Name     string `yaml:"name"`
	Squads   int    `yaml:"squads"`
	Units    int    `yaml:"units"`
	Strategy string `yaml:"strategy"`
}

// Roster lists the armies taking part in a battle.
type Roster struct {
	Armies []ArmySpec `yaml:"armies"`
}

// LoadRoster reads a YAML roster and validates it.
func LoadRoster(path string) (*Roster, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}
	var r Roster
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parsing roster %s: %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// UniformRoster builds a roster of n armies with the same squad and unit
// counts. Strategies are assigned in order and the last one repeats.
func UniformRoster(n, squads, units int, strategies []string) *Roster {
	r := &Roster{Armies: make([]ArmySpec, n)}
	for i := range r.Armies {
		strategy := strconv.Itoa(int(battle.StrategyStrongest))
		if len(strategies) > 0 {
			strategy = strategies[min(i, len(strategies)-1)]
		}
		r.Armies[i] = ArmySpec{
			Name:     fmt.Sprintf("army-%d", i+1),
			Squads:   squads,
			Units:    units,
			Strategy: strategy,
		}
	}
	return r
}

// Validate checks every army and reports all problems at once.
func (r *Roster) Validate() error {
	if len(r.Armies) < 2 {
		return fmt.Errorf("roster has %d armies: %w", len(r.Armies), battle.ErrInvalidArmyCount)
	}

	var errs []error
	seen := make(map[string]bool, len(r.Armies))
	for i, a := range r.Armies {
		name := a.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}
		if seen[a.Name] && a.Name != "" {
			errs = append(errs, fmt.Errorf("army %s: duplicate name", name))
		}
		seen[a.Name] = true

		if a.Squads < battle.MinSquadsPerArmy {
			errs = append(errs, fmt.Errorf("army %s: %d squads: %w", name, a.Squads, battle.ErrInvalidSquadCount))
		}
		if a.Units < battle.MinUnitsPerSquad || a.Units > battle.MaxUnitsPerSquad {
			errs = append(errs, fmt.Errorf("army %s: %d units: %w", name, a.Units, battle.ErrInvalidUnitCount))
		}
		if _, err := battle.ParseStrategy(a.Strategy); err != nil {
			errs = append(errs, fmt.Errorf("army %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Build creates the armies of the roster sharing env.
func (r *Roster) Build(env *battle.Env) ([]*battle.Army, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	armies := make([]*battle.Army, 0, len(r.Armies))
	for i, a := range r.Armies {
		strategy, err := battle.ParseStrategy(a.Strategy)
		if err != nil {
			return nil, err
		}
		name := a.Name
		if name == "" {
			name = fmt.Sprintf("army-%d", i+1)
		}
		army, err := battle.NewArmy(i+1, a.Squads, a.Units, name, strategy, env)
		if err != nil {
			return nil, err
		}
		armies = append(armies, army)
	}
	return armies, nil
}
