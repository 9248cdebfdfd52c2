package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/OCAP2/battlesim/internal/battle"
	"github.com/OCAP2/battlesim/internal/rng"
	"github.com/OCAP2/battlesim/pkg/core"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu       sync.Mutex
	statuses []core.ArmyStatus
}

func (r *recordingSink) OnStatus(s core.ArmyStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.statuses)
}

func testArmies(t *testing.T, clock clockwork.Clock) []*battle.Army {
	t.Helper()
	env := &battle.Env{Clock: clock, Rng: rng.New(5)}

	red, err := battle.NewArmy(1, 2, 5, "red", battle.StrategyStrongest, env)
	require.NoError(t, err)
	blue, err := battle.NewArmy(2, 3, 6, "blue", battle.StrategyWeakest, env)
	require.NoError(t, err)
	return []*battle.Army{red, blue}
}

func TestNewServiceDefaults(t *testing.T) {
	s := NewService(Dependencies{}, nil)
	assert.NotNil(t, s.deps.Logger)
	assert.NotNil(t, s.deps.Clock)
	assert.Equal(t, defaultInterval, s.deps.Interval)
	assert.False(t, s.IsRunning())
}

func TestSample(t *testing.T) {
	fc := clockwork.NewFakeClock()
	sink := &recordingSink{}
	s := NewService(Dependencies{Clock: fc, Sink: sink}, testArmies(t, fc))

	statuses := s.Sample()
	require.Len(t, statuses, 2)

	assert.Equal(t, "red", statuses[0].Army)
	assert.Equal(t, 2, statuses[0].TotalSquads)
	assert.Equal(t, 2, statuses[0].ActiveSquads)
	assert.Equal(t, 10, statuses[0].TotalUnits)
	assert.Equal(t, "blue", statuses[1].Army)
	assert.Equal(t, 18, statuses[1].TotalUnits)
	assert.Equal(t, fc.Now(), statuses[1].Time)
	assert.Positive(t, statuses[1].TotalHealth)

	assert.Equal(t, 2, sink.count())
}

func TestStartSamplesOnTick(t *testing.T) {
	fc := clockwork.NewFakeClock()
	sink := &recordingSink{}
	s := NewService(Dependencies{Clock: fc, Sink: sink, Interval: time.Second}, testArmies(t, fc))

	s.Start(context.Background())
	s.Start(context.Background())
	assert.True(t, s.IsRunning())

	fc.Advance(time.Second)
	assert.Eventually(t, func() bool { return sink.count() == 2 }, 2*time.Second, 5*time.Millisecond)

	fc.Advance(time.Second)
	assert.Eventually(t, func() bool { return sink.count() == 4 }, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestStartStopsWithContext(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := NewService(Dependencies{Clock: fc}, testArmies(t, fc))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 5*time.Millisecond)
	s.Stop()
}
