package battle

import (
	"fmt"
	"math"
	"time"

	"github.com/OCAP2/battlesim/internal/rng"
	"github.com/OCAP2/battlesim/pkg/core"
)

const maxExperience = 50.0

// Soldier is a single combatant. Operators of a vehicle are soldiers too.
type Soldier struct {
	*unit
	experience float64
	rng        *rng.Source
}

var _ Unit = (*Soldier)(nil)

// NewSoldier validates health in [0,100], recharge in [100ms,2000ms] and
// experience in [0,50].
func NewSoldier(name string, health float64, recharge time.Duration, experience float64, src *rng.Source) (*Soldier, error) {
	if recharge < minSoldierRecharge || recharge > maxRecharge {
		return nil, fmt.Errorf("%s: recharge %s: %w", name, recharge, ErrInvalidRecharge)
	}
	if experience < 0 || experience > maxExperience || math.IsNaN(experience) {
		return nil, fmt.Errorf("%s: experience %.2f: %w", name, experience, ErrInvalidExperience)
	}
	u, err := newUnit(name, health, recharge)
	if err != nil {
		return nil, err
	}
	if src == nil {
		src = rng.New(0)
	}
	return &Soldier{unit: u, experience: experience, rng: src}, nil
}

func (s *Soldier) Kind() string        { return KindSoldier }
func (s *Soldier) Experience() float64 { return s.experience }
func (s *Soldier) IsActive() bool      { return s.Health() > 0 }

func (s *Soldier) ReceiveDamage(amount float64) bool {
	return s.receiveDamage(amount)
}

// Damage is 0.05 + experience/100.
func (s *Soldier) Damage() float64 {
	return 0.05 + s.experience/100
}

// AttackSuccessProbability is 0.5 * (1 + health/100) * U[30+experience, 100] / 100.
func (s *Soldier) AttackSuccessProbability() float64 {
	return 0.5 * (1 + s.Health()/100) * s.rng.Between(30+s.experience, 100) / 100
}

func (s *Soldier) Record() core.UnitRecord {
	return core.UnitRecord{
		Name:       s.Name(),
		Squad:      s.SquadName(),
		Kind:       KindSoldier,
		Health:     s.Health(),
		Recharge:   s.Recharge(),
		Experience: s.experience,
		Active:     s.IsActive(),
	}
}
