package battle

import (
	"fmt"
	"sync"

	"github.com/OCAP2/battlesim/pkg/core"
)

// Resolution selects how concurrent attacks are applied.
type Resolution string

const (
	// ResolutionConcurrent lets attackers compare and apply damage without
	// coordination. Two attackers may judge the same defender state before
	// either applies damage; health updates themselves are never lost.
	ResolutionConcurrent Resolution = "concurrent"
	// ResolutionSerialized runs each compare-and-apply step under one lock.
	ResolutionSerialized Resolution = "serialized"
)

// ParseResolution maps a config value to a Resolution.
func ParseResolution(v string) (Resolution, error) {
	switch Resolution(v) {
	case "", ResolutionConcurrent:
		return ResolutionConcurrent, nil
	case ResolutionSerialized:
		return ResolutionSerialized, nil
	}
	return "", fmt.Errorf("unknown resolution mode %q", v)
}

// Resolver settles a single attack of attacker against defender.
type Resolver interface {
	Resolve(attacker, defender *Squad) core.AttackEvent
}

// NewResolver returns the resolver for mode. Unknown modes resolve concurrently.
func NewResolver(mode Resolution) Resolver {
	if mode == ResolutionSerialized {
		return &serializedResolver{}
	}
	return concurrentResolver{}
}

type concurrentResolver struct{}

func (concurrentResolver) Resolve(attacker, defender *Squad) core.AttackEvent {
	return resolveAttack(attacker, defender)
}

type serializedResolver struct {
	mu sync.Mutex
}

func (r *serializedResolver) Resolve(attacker, defender *Squad) core.AttackEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return resolveAttack(attacker, defender)
}

// resolveAttack succeeds when the attacker's success probability beats the
// defender's, both drawn now. On success the defender takes the attacker's
// damage and both squads start recharging. A miss changes nothing.
func resolveAttack(attacker, defender *Squad) core.AttackEvent {
	env := attacker.env
	ap := attacker.AttackSuccessProbability()
	dp := defender.AttackSuccessProbability()

	ev := core.AttackEvent{
		Time:                env.Clock.Now(),
		Attacker:            attacker.Name(),
		AttackerArmy:        attacker.Army(),
		Defender:            defender.Name(),
		DefenderArmy:        defender.Army(),
		Strategy:            attacker.Strategy().String(),
		AttackerProbability: ap,
		DefenderProbability: dp,
	}

	if ap > dp {
		ev.Success = true
		ev.Damage = attacker.AttackDamage() * env.DamageMultiplier
		defender.ReceiveDamage(ev.Damage)
		attacker.RechargeForNextAttack()
		defender.RechargeForNextAttack()
	}

	env.Logger.Debug("attack resolved",
		"attacker", ev.Attacker,
		"defender", ev.Defender,
		"success", ev.Success,
		"damage", ev.Damage,
	)
	env.Observer.OnAttack(ev)
	return ev
}
