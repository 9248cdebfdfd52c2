package battle

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/OCAP2/battlesim/internal/rng"
	"github.com/OCAP2/battlesim/pkg/core"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

// recordingObserver collects every event for assertions.
type recordingObserver struct {
	mu        sync.Mutex
	attacks   []core.AttackEvent
	destroyed []core.UnitDestroyedEvent
	states    []core.SquadStateEvent
}

func (o *recordingObserver) OnAttack(e core.AttackEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attacks = append(o.attacks, e)
}

func (o *recordingObserver) OnUnitDestroyed(e core.UnitDestroyedEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.destroyed = append(o.destroyed, e)
}

func (o *recordingObserver) OnSquadState(e core.SquadStateEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, e)
}

func (o *recordingObserver) attackCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.attacks)
}

func (o *recordingObserver) statesFor(squad string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []string
	for _, e := range o.states {
		if e.Squad == squad {
			out = append(out, e.To)
		}
	}
	return out
}

func newTestEnv(seed int64) (*Env, *clockwork.FakeClock, *recordingObserver) {
	fc := clockwork.NewFakeClock()
	obs := &recordingObserver{}
	return &Env{
		Clock:    fc,
		Rng:      rng.New(seed),
		Observer: obs,
	}, fc, obs
}

func newTestSoldier(t *testing.T, name string, health, experience float64) *Soldier {
	t.Helper()
	s, err := NewSoldier(name, health, time.Second, experience, rng.New(1))
	require.NoError(t, err)
	return s
}

// newUniformSquad builds a squad of n soldiers with identical stats.
func newUniformSquad(t *testing.T, name string, n int, health, experience float64, strategy Strategy, env *Env) *Squad {
	t.Helper()
	units := make([]Unit, n)
	for i := range units {
		units[i] = newTestSoldier(t, fmt.Sprintf("%s/%d", name, i+1), health, experience)
	}
	sq, err := NewSquad(name, "army-"+name, strategy, units, env)
	require.NoError(t, err)
	return sq
}
