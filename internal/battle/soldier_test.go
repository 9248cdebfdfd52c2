package battle

import (
	"sync"
	"testing"
	"time"

	"github.com/OCAP2/battlesim/internal/rng"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSoldier_Validation(t *testing.T) {
	tests := []struct {
		name       string
		health     float64
		recharge   time.Duration
		experience float64
		wantErr    error
	}{
		{"valid", 50, time.Second, 10, nil},
		{"bounds", 100, 100 * time.Millisecond, 50, nil},
		{"zero health allowed", 0, 2 * time.Second, 0, nil},
		{"negative experience", 50, time.Second, -1, ErrInvalidExperience},
		{"experience above 50", 50, time.Second, 51, ErrInvalidExperience},
		{"health above 100", 101, time.Second, 10, ErrInvalidHealth},
		{"negative health", -1, time.Second, 10, ErrInvalidHealth},
		{"recharge too short", 50, 99 * time.Millisecond, 10, ErrInvalidRecharge},
		{"recharge too long", 50, 2001 * time.Millisecond, 10, ErrInvalidRecharge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSoldier("s", tt.health, tt.recharge, tt.experience, rng.New(1))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.health, s.Health())
			assert.True(t, s.IsReady())
		})
	}
}

func TestSoldier_Damage(t *testing.T) {
	assert.InDelta(t, 0.05, newTestSoldier(t, "a", 50, 0).Damage(), 1e-12)
	assert.InDelta(t, 0.55, newTestSoldier(t, "b", 50, 50).Damage(), 1e-12)
	assert.InDelta(t, 0.25, newTestSoldier(t, "c", 1, 20).Damage(), 1e-12)
}

func TestSoldier_AttackSuccessProbabilityBounds(t *testing.T) {
	veteran := newTestSoldier(t, "vet", 100, 50)
	recruit := newTestSoldier(t, "rec", 0, 0)

	for i := 0; i < 500; i++ {
		p := veteran.AttackSuccessProbability()
		assert.GreaterOrEqual(t, p, 0.8)
		assert.LessOrEqual(t, p, 1.0)

		q := recruit.AttackSuccessProbability()
		assert.GreaterOrEqual(t, q, 0.15)
		assert.LessOrEqual(t, q, 0.5)
	}
}

func TestSoldier_ReceiveDamageClampsAtZero(t *testing.T) {
	s := newTestSoldier(t, "s", 30, 5)

	assert.False(t, s.ReceiveDamage(10))
	assert.InDelta(t, 20, s.Health(), 1e-12)
	assert.True(t, s.IsActive())

	assert.True(t, s.ReceiveDamage(500), "lethal hit reports destruction")
	assert.Equal(t, 0.0, s.Health())
	assert.False(t, s.IsActive())

	assert.False(t, s.ReceiveDamage(5), "damage on a dead unit is a no-op")
	assert.Equal(t, 0.0, s.Health())
}

func TestSoldier_ReceiveDamageIgnoresNonPositive(t *testing.T) {
	s := newTestSoldier(t, "s", 30, 5)
	assert.False(t, s.ReceiveDamage(0))
	assert.False(t, s.ReceiveDamage(-10))
	assert.Equal(t, 30.0, s.Health())
}

func TestSoldier_ConcurrentDamageLosesNoUpdates(t *testing.T) {
	s := newTestSoldier(t, "s", 100, 0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ReceiveDamage(0.5)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50.0, s.Health())
}

func TestSoldier_DestroyedReportedOnce(t *testing.T) {
	s := newTestSoldier(t, "s", 10, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	reports := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.ReceiveDamage(5) {
				mu.Lock()
				reports++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, reports)
	assert.Equal(t, 0.0, s.Health())
}

func TestUnit_RechargeForNextAttack(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := newTestSoldier(t, "s", 50, 0)

	s.RechargeForNextAttack(fc, 1)
	assert.False(t, s.IsReady())

	fc.Advance(500 * time.Millisecond)
	assert.False(t, s.IsReady())

	fc.Advance(500 * time.Millisecond)
	assert.Eventually(t, s.IsReady, time.Second, time.Millisecond)
}

func TestUnit_RechargeHonoursTimeScale(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := newTestSoldier(t, "s", 50, 0)

	s.RechargeForNextAttack(fc, 10)
	fc.Advance(100 * time.Millisecond)
	assert.Eventually(t, s.IsReady, time.Second, time.Millisecond)
}

func TestUnit_RechargeRestartSupersedesPendingTimer(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := newTestSoldier(t, "s", 50, 0)

	s.RechargeForNextAttack(fc, 1)
	fc.Advance(800 * time.Millisecond)
	s.RechargeForNextAttack(fc, 1)

	fc.Advance(400 * time.Millisecond)
	assert.Never(t, s.IsReady, 50*time.Millisecond, 5*time.Millisecond)

	fc.Advance(600 * time.Millisecond)
	assert.Eventually(t, s.IsReady, time.Second, time.Millisecond)
}

func TestUnit_CancelRecharge(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := newTestSoldier(t, "s", 50, 0)

	s.RechargeForNextAttack(fc, 1)
	s.CancelRecharge()
	fc.Advance(5 * time.Second)

	assert.Never(t, s.IsReady, 50*time.Millisecond, 5*time.Millisecond)
}
