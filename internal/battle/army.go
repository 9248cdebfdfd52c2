package battle

import (
	"context"
	"fmt"
	"time"

	"github.com/OCAP2/battlesim/pkg/core"
	"golang.org/x/sync/errgroup"
)

// MinSquadsPerArmy is the smallest valid army.
const MinSquadsPerArmy = 2

// Army owns a set of squads that fight every other army's squads.
type Army struct {
	id       int
	name     string
	strategy Strategy
	squads   []*Squad
	env      *Env
}

// NewArmy builds numOfSquads squads of numOfUnits random units each.
func NewArmy(id, numOfSquads, numOfUnits int, name string, strategy Strategy, env *Env) (*Army, error) {
	if numOfSquads < MinSquadsPerArmy {
		return nil, fmt.Errorf("army %s: %d squads: %w", name, numOfSquads, ErrInvalidSquadCount)
	}
	if numOfUnits < MinUnitsPerSquad || numOfUnits > MaxUnitsPerSquad {
		return nil, fmt.Errorf("army %s: %d units per squad: %w", name, numOfUnits, ErrInvalidUnitCount)
	}
	if !strategy.Valid() {
		return nil, fmt.Errorf("army %s: %w", name, ErrInvalidStrategy)
	}

	env = env.normalize()
	squads := make([]*Squad, numOfSquads)
	for i := range squads {
		squadName := fmt.Sprintf("%s/squad-%d", name, i+1)
		sq, err := NewSquad(squadName, name, strategy, RandomUnits(numOfUnits, squadName, env.Rng), env)
		if err != nil {
			return nil, err
		}
		squads[i] = sq
	}

	return &Army{id: id, name: name, strategy: strategy, squads: squads, env: env}, nil
}

// NewArmyFromSquads wraps squads that were built by the caller.
func NewArmyFromSquads(id int, name string, strategy Strategy, squads []*Squad, env *Env) (*Army, error) {
	if len(squads) < MinSquadsPerArmy {
		return nil, fmt.Errorf("army %s: %d squads: %w", name, len(squads), ErrInvalidSquadCount)
	}
	if !strategy.Valid() {
		return nil, fmt.Errorf("army %s: %w", name, ErrInvalidStrategy)
	}
	return &Army{id: id, name: name, strategy: strategy, squads: squads, env: env.normalize()}, nil
}

func (a *Army) ID() int            { return a.id }
func (a *Army) Name() string       { return a.name }
func (a *Army) Strategy() Strategy { return a.strategy }

// Squads returns the army's squads in creation order.
func (a *Army) Squads() []*Squad {
	return append([]*Squad(nil), a.squads...)
}

// ActiveSquads returns the squads that still have an active unit.
func (a *Army) ActiveSquads() []*Squad {
	var active []*Squad
	for _, s := range a.squads {
		if s.IsActive() {
			active = append(active, s)
		}
	}
	return active
}

// IsActive reports whether any squad is still active.
func (a *Army) IsActive() bool {
	return len(a.ActiveSquads()) > 0
}

// Enemies pools the squads of every other army in armies.
func (a *Army) Enemies(armies []*Army) []*Squad {
	var pool []*Squad
	for _, other := range armies {
		if other == a {
			continue
		}
		pool = append(pool, other.squads...)
	}
	return pool
}

// JoinBattle starts every squad's combat loop against the other armies'
// squads. The returned channel yields once all loops have returned, with a
// non-nil error only when ctx ended the fight early.
func (a *Army) JoinBattle(ctx context.Context, armies []*Army) <-chan error {
	enemies := a.Enemies(armies)
	done := make(chan error, 1)

	a.env.Logger.Info("army joining battle",
		"army", a.name,
		"strategy", a.strategy.String(),
		"squads", len(a.squads),
		"enemySquads", len(enemies),
	)

	var g errgroup.Group
	for _, s := range a.squads {
		g.Go(func() error {
			_, err := s.Fight(ctx, enemies)
			return err
		})
	}

	go func() {
		err := g.Wait()
		a.env.Logger.Info("army finished fighting",
			"army", a.name,
			"activeSquads", len(a.ActiveSquads()),
		)
		done <- err
		close(done)
	}()

	return done
}

// Snapshot captures the army's current figures.
func (a *Army) Snapshot() core.ArmyRecord {
	squads := make([]core.SquadRecord, len(a.squads))
	for i, s := range a.squads {
		squads[i] = s.Snapshot()
	}
	return core.ArmyRecord{
		ID:       a.id,
		Name:     a.name,
		Strategy: a.strategy.String(),
		Squads:   squads,
	}
}

// Status samples the army's remaining strength at t.
func (a *Army) Status(t time.Time) core.ArmyStatus {
	st := core.ArmyStatus{
		Time:        t,
		Army:        a.name,
		TotalSquads: len(a.squads),
	}
	for _, s := range a.squads {
		if s.IsActive() {
			st.ActiveSquads++
		}
		for _, u := range s.units {
			st.TotalUnits++
			if u.IsActive() {
				st.ActiveUnits++
			}
		}
		st.TotalHealth += s.TotalHealth()
	}
	return st
}
