package battle

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/battlesim/pkg/core"
	"github.com/jonboulle/clockwork"
)

// Unit kinds.
const (
	KindSoldier = "soldier"
	KindVehicle = "vehicle"
)

const (
	maxHealth = 100.0

	minSoldierRecharge = 100 * time.Millisecond
	maxRecharge        = 2000 * time.Millisecond
	minVehicleRecharge = 1000 * time.Millisecond
)

// Unit is the capability set shared by soldiers and vehicles.
type Unit interface {
	Name() string
	SquadName() string
	Kind() string

	Health() float64
	Experience() float64
	Recharge() time.Duration

	// IsActive reports whether the unit can still fight.
	IsActive() bool
	// IsReady reports whether the unit has recharged since its last attack.
	IsReady() bool

	// ReceiveDamage applies damage and reports whether this call destroyed the unit.
	ReceiveDamage(amount float64) bool
	// RechargeForNextAttack marks the unit not ready and schedules readiness
	// after its recharge time divided by timeScale.
	RechargeForNextAttack(clock clockwork.Clock, timeScale float64)
	// CancelRecharge stops a pending recharge timer.
	CancelRecharge()

	Damage() float64
	AttackSuccessProbability() float64

	Record() core.UnitRecord

	setSquad(name string)
}

// atomicFloat is a float64 updated with compare-and-swap.
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

// subClamped subtracts amount without going below zero. ok is false when
// the value was already zero, in which case nothing changes.
func (f *atomicFloat) subClamped(amount float64) (after float64, ok bool) {
	for {
		oldBits := f.bits.Load()
		old := math.Float64frombits(oldBits)
		if old <= 0 {
			return old, false
		}
		next := math.Max(old-amount, 0)
		if f.bits.CompareAndSwap(oldBits, math.Float64bits(next)) {
			return next, true
		}
	}
}

// unit holds the state shared by soldiers and vehicles.
type unit struct {
	name     string
	recharge time.Duration

	squad     atomic.Value // string
	health    atomicFloat
	ready     atomic.Bool
	destroyed atomic.Bool

	mu    sync.Mutex
	timer clockwork.Timer
	gen   uint64
}

func newUnit(name string, health float64, recharge time.Duration) (*unit, error) {
	if health < 0 || health > maxHealth || math.IsNaN(health) {
		return nil, fmt.Errorf("%s: health %.2f: %w", name, health, ErrInvalidHealth)
	}
	u := &unit{name: name, recharge: recharge}
	u.health.Store(health)
	u.ready.Store(true)
	u.squad.Store("")
	if health == 0 {
		u.destroyed.Store(true)
	}
	return u, nil
}

func (u *unit) Name() string            { return u.name }
func (u *unit) SquadName() string       { return u.squad.Load().(string) }
func (u *unit) setSquad(name string)    { u.squad.Store(name) }
func (u *unit) Health() float64         { return u.health.Load() }
func (u *unit) Recharge() time.Duration { return u.recharge }
func (u *unit) IsReady() bool           { return u.ready.Load() }

// receiveDamage is a no-op on a unit that is already at zero health.
// It reports true exactly once, for the call that brings health to zero.
func (u *unit) receiveDamage(amount float64) bool {
	if amount <= 0 || math.IsNaN(amount) {
		return false
	}
	after, ok := u.health.subClamped(amount)
	if !ok || after > 0 {
		return false
	}
	return u.destroyed.CompareAndSwap(false, true)
}

func (u *unit) RechargeForNextAttack(clock clockwork.Clock, timeScale float64) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.timer != nil {
		u.timer.Stop()
	}
	u.ready.Store(false)
	u.gen++
	gen := u.gen
	u.timer = clock.AfterFunc(scaleDuration(u.recharge, timeScale), func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		// A newer recharge or a cancel superseded this timer.
		if u.gen != gen {
			return
		}
		u.ready.Store(true)
		u.timer = nil
	})
}

func (u *unit) CancelRecharge() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.timer != nil {
		u.timer.Stop()
		u.timer = nil
	}
	u.gen++
}
