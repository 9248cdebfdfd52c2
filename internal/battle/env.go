package battle

import (
	"log/slog"
	"time"

	"github.com/OCAP2/battlesim/internal/rng"
	"github.com/OCAP2/battlesim/pkg/core"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultTickInterval is how often a squad re-evaluates the battlefield.
	DefaultTickInterval = 500 * time.Millisecond

	// minDelay keeps heavily scaled tickers and timers from spinning.
	minDelay = 50 * time.Microsecond
)

// Observer receives combat events as they happen. Implementations must be
// safe for concurrent use; every squad loop calls into it from its own goroutine.
type Observer interface {
	OnAttack(e core.AttackEvent)
	OnUnitDestroyed(e core.UnitDestroyedEvent)
	OnSquadState(e core.SquadStateEvent)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) OnAttack(core.AttackEvent)               {}
func (NopObserver) OnUnitDestroyed(core.UnitDestroyedEvent) {}
func (NopObserver) OnSquadState(core.SquadStateEvent)       {}

// Env carries the collaborators shared by every army, squad and unit of a battle.
// Zero fields are filled with defaults when an army is built.
type Env struct {
	Clock    clockwork.Clock
	Rng      *rng.Source
	Logger   *slog.Logger
	Observer Observer
	Resolver Resolver

	// TickInterval is the squad polling period before time scaling.
	TickInterval time.Duration
	// TimeScale divides tick and recharge delays. 1 runs in real time.
	TimeScale float64
	// DamageMultiplier scales damage applied by successful attacks.
	DamageMultiplier float64
}

// normalize returns a copy of e with every unset field defaulted.
func (e *Env) normalize() *Env {
	out := Env{}
	if e != nil {
		out = *e
	}
	if out.Clock == nil {
		out.Clock = clockwork.NewRealClock()
	}
	if out.Rng == nil {
		out.Rng = rng.New(0)
	}
	if out.Logger == nil {
		out.Logger = slog.New(slog.DiscardHandler)
	}
	if out.Observer == nil {
		out.Observer = NopObserver{}
	}
	if out.Resolver == nil {
		out.Resolver = NewResolver(ResolutionConcurrent)
	}
	if out.TickInterval <= 0 {
		out.TickInterval = DefaultTickInterval
	}
	if out.TimeScale <= 0 {
		out.TimeScale = 1
	}
	if out.DamageMultiplier <= 0 {
		out.DamageMultiplier = 1
	}
	return &out
}

func (e *Env) tick() time.Duration {
	return scaleDuration(e.TickInterval, e.TimeScale)
}

func scaleDuration(d time.Duration, scale float64) time.Duration {
	if scale > 0 && scale != 1 {
		d = time.Duration(float64(d) / scale)
	}
	return max(d, minDelay)
}
