package battle

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/OCAP2/battlesim/internal/util"
	"github.com/OCAP2/battlesim/pkg/core"
)

const (
	MinUnitsPerSquad = 5
	MaxUnitsPerSquad = 10
)

// State is a squad's position in its lifecycle.
type State int32

const (
	StateForming State = iota
	StateFighting
	StateDestroyed
	StateVictorious
)

func (s State) String() string {
	switch s {
	case StateForming:
		return "forming"
	case StateFighting:
		return "fighting"
	case StateDestroyed:
		return "destroyed"
	case StateVictorious:
		return "victorious"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateDestroyed || s == StateVictorious
}

// Squad is a group of units sharing a target-selection strategy.
type Squad struct {
	name     string
	army     string
	strategy Strategy
	units    []Unit
	env      *Env

	state atomic.Int32
}

// NewSquad takes ownership of units. It fails with ErrInvalidUnitCount unless
// there are between 5 and 10 units, and with ErrInvalidStrategy on an
// unknown strategy.
func NewSquad(name, army string, strategy Strategy, units []Unit, env *Env) (*Squad, error) {
	if len(units) < MinUnitsPerSquad || len(units) > MaxUnitsPerSquad {
		return nil, fmt.Errorf("squad %s: %d units: %w", name, len(units), ErrInvalidUnitCount)
	}
	if !strategy.Valid() {
		return nil, fmt.Errorf("squad %s: %w", name, ErrInvalidStrategy)
	}
	for _, u := range units {
		u.setSquad(name)
	}
	return &Squad{
		name:     name,
		army:     army,
		strategy: strategy,
		units:    units,
		env:      env.normalize(),
	}, nil
}

func (s *Squad) Name() string       { return s.name }
func (s *Squad) Army() string       { return s.army }
func (s *Squad) Strategy() Strategy { return s.strategy }
func (s *Squad) State() State       { return State(s.state.Load()) }

// Units returns the squad's units in creation order.
func (s *Squad) Units() []Unit {
	return append([]Unit(nil), s.units...)
}

// IsActive reports whether any unit is still active. The first time it
// observes every unit down, the squad moves to the destroyed state.
func (s *Squad) IsActive() bool {
	for _, u := range s.units {
		if u.IsActive() {
			return true
		}
	}
	s.transition(StateDestroyed)
	return false
}

// AttackDamage sums every unit's damage, dead units included.
func (s *Squad) AttackDamage() float64 {
	total := 0.0
	for _, u := range s.units {
		total += u.Damage()
	}
	return total
}

// TotalHealth sums unit health. Vehicles count their hull only.
func (s *Squad) TotalHealth() float64 {
	total := 0.0
	for _, u := range s.units {
		total += u.Health()
	}
	return total
}

// TotalExperience sums soldier experience and vehicle crew experience.
func (s *Squad) TotalExperience() float64 {
	total := 0.0
	for _, u := range s.units {
		total += u.Experience()
	}
	return total
}

// Points ranks squads for target selection.
func (s *Squad) Points() float64 {
	return s.TotalHealth() + s.TotalExperience() + s.AttackDamage()
}

// AttackSuccessProbability is the geometric mean of the units' probabilities.
func (s *Squad) AttackSuccessProbability() float64 {
	probs := make([]float64, len(s.units))
	for i, u := range s.units {
		probs[i] = u.AttackSuccessProbability()
	}
	p, err := util.GeometricMean(probs)
	if err != nil {
		panic(fmt.Sprintf("squad %s: %v", s.name, err))
	}
	return p
}

type rankedSquad struct {
	squad  *Squad
	points float64
}

// SquadToAttack picks a target among the active squads in enemies according
// to the squad's strategy. Ties go to the squad listed first. It returns nil
// when no enemy is active.
func (s *Squad) SquadToAttack(enemies []*Squad) *Squad {
	ranked := make([]rankedSquad, 0, len(enemies))
	for _, e := range enemies {
		if e.IsActive() {
			ranked = append(ranked, rankedSquad{squad: e, points: e.Points()})
		}
	}
	if len(ranked) == 0 {
		return nil
	}

	slices.SortStableFunc(ranked, func(a, b rankedSquad) int {
		return cmp.Compare(b.points, a.points)
	})

	switch s.strategy {
	case StrategyWeakest:
		lowest := ranked[len(ranked)-1].points
		for _, r := range ranked {
			if r.points == lowest {
				return r.squad
			}
		}
		return ranked[len(ranked)-1].squad
	case StrategyRandom:
		return ranked[s.env.Rng.Intn(len(ranked))].squad
	default:
		return ranked[0].squad
	}
}

// ReceiveDamage splits total evenly across the currently active units.
func (s *Squad) ReceiveDamage(total float64) {
	active := s.activeUnits()
	if len(active) == 0 {
		return
	}
	share := total / float64(len(active))
	for _, u := range active {
		var destroyed bool
		if v, ok := u.(*Vehicle); ok {
			destroyed = v.takeHit(share, func(op *Soldier) { s.unitDestroyed(op) })
		} else {
			destroyed = u.ReceiveDamage(share)
		}
		if destroyed {
			s.unitDestroyed(u)
		}
	}
}

// RechargeForNextAttack starts the recharge of every active unit.
func (s *Squad) RechargeForNextAttack() {
	for _, u := range s.activeUnits() {
		u.RechargeForNextAttack(s.env.Clock, s.env.TimeScale)
	}
}

// IsReady reports whether every active unit has recharged.
func (s *Squad) IsReady() bool {
	for _, u := range s.units {
		if u.IsActive() && !u.IsReady() {
			return false
		}
	}
	return true
}

// Fight runs the squad's combat loop against enemies until the squad is
// destroyed, no enemy is left, or ctx is done. Enemies are only read.
func (s *Squad) Fight(ctx context.Context, enemies []*Squad) (State, error) {
	s.transition(StateFighting)

	ticker := s.env.Clock.NewTicker(s.env.tick())
	defer ticker.Stop()
	defer s.cancelRecharges()

	for {
		if done := s.step(enemies); done {
			return s.State(), nil
		}

		select {
		case <-ctx.Done():
			s.env.Logger.Debug("squad stopped", "squad", s.name, "army", s.army, "reason", ctx.Err())
			return s.State(), ctx.Err()
		case <-ticker.Chan():
		}
	}
}

// step runs one tick of the combat loop and reports whether the loop is over.
func (s *Squad) step(enemies []*Squad) bool {
	if !s.IsActive() {
		return true
	}

	targets := make([]*Squad, 0, len(enemies))
	for _, e := range enemies {
		if e.IsActive() {
			targets = append(targets, e)
		}
	}
	if len(targets) == 0 {
		s.transition(StateVictorious)
		return true
	}

	if !s.IsReady() {
		return false
	}

	target := s.SquadToAttack(targets)
	if target == nil {
		return false
	}
	s.env.Resolver.Resolve(s, target)
	return false
}

// Snapshot captures the squad's current figures.
func (s *Squad) Snapshot() core.SquadRecord {
	units := make([]core.UnitRecord, len(s.units))
	for i, u := range s.units {
		units[i] = u.Record()
	}
	health, exp, dmg := s.TotalHealth(), s.TotalExperience(), s.AttackDamage()
	return core.SquadRecord{
		Name:            s.name,
		Army:            s.army,
		Strategy:        s.strategy.String(),
		State:           s.State().String(),
		Active:          s.IsActive(),
		TotalHealth:     health,
		TotalExperience: exp,
		AttackDamage:    dmg,
		Points:          health + exp + dmg,
		Units:           units,
	}
}

func (s *Squad) activeUnits() []Unit {
	active := make([]Unit, 0, len(s.units))
	for _, u := range s.units {
		if u.IsActive() {
			active = append(active, u)
		}
	}
	return active
}

func (s *Squad) cancelRecharges() {
	for _, u := range s.units {
		u.CancelRecharge()
	}
}

func (s *Squad) unitDestroyed(u Unit) {
	s.env.Logger.Info("unit destroyed", "unit", u.Name(), "kind", u.Kind(), "squad", s.name, "army", s.army)
	s.env.Observer.OnUnitDestroyed(core.UnitDestroyedEvent{
		Time:  s.env.Clock.Now(),
		Unit:  u.Name(),
		Kind:  u.Kind(),
		Squad: s.name,
		Army:  s.army,
	})
}

// transition moves the squad to next unless it already reached a terminal
// state. Each transition is reported once.
func (s *Squad) transition(next State) {
	for {
		cur := State(s.state.Load())
		if cur == next || cur.Terminal() {
			return
		}
		if s.state.CompareAndSwap(int32(cur), int32(next)) {
			s.stateChanged(cur, next)
			return
		}
	}
}

func (s *Squad) stateChanged(from, to State) {
	log := s.env.Logger.With("squad", s.name, "army", s.army, "from", from.String(), "to", to.String())
	switch to {
	case StateDestroyed, StateVictorious:
		log.Info("squad " + to.String())
	default:
		log.Debug("squad state changed")
	}
	s.env.Observer.OnSquadState(core.SquadStateEvent{
		Time:  s.env.Clock.Now(),
		Squad: s.name,
		Army:  s.army,
		From:  from.String(),
		To:    to.String(),
	})
}
