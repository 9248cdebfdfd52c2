package battle

import (
	"fmt"
	"time"

	"github.com/OCAP2/battlesim/internal/rng"
	"github.com/OCAP2/battlesim/internal/util"
	"github.com/OCAP2/battlesim/pkg/core"
)

// Incoming damage split for vehicles.
const (
	vehicleShare      = 0.3
	mainOperatorShare = 0.5
	crewShare         = 0.2
)

// Vehicle is a unit crewed by one or more operator soldiers.
type Vehicle struct {
	*unit
	operators []*Soldier
	rng       *rng.Source
}

var _ Unit = (*Vehicle)(nil)

// NewVehicle builds a vehicle with numOperators freshly generated operators.
func NewVehicle(name string, health float64, recharge time.Duration, numOperators int, src *rng.Source) (*Vehicle, error) {
	if numOperators < 1 {
		return nil, fmt.Errorf("%s: %d operators: %w", name, numOperators, ErrInvalidOperatorCount)
	}
	if src == nil {
		src = rng.New(0)
	}
	operators := make([]*Soldier, numOperators)
	for i := range operators {
		operators[i] = RandomSoldier(fmt.Sprintf("%s/op-%d", name, i+1), src)
	}
	return NewVehicleWithOperators(name, health, recharge, operators, src)
}

// NewVehicleWithOperators builds a vehicle around an existing crew.
// Recharge must be above 1000ms and at most 2000ms.
func NewVehicleWithOperators(name string, health float64, recharge time.Duration, operators []*Soldier, src *rng.Source) (*Vehicle, error) {
	if recharge <= minVehicleRecharge || recharge > maxRecharge {
		return nil, fmt.Errorf("%s: recharge %s: %w", name, recharge, ErrInvalidVehicleRecharge)
	}
	if len(operators) < 1 {
		return nil, fmt.Errorf("%s: %d operators: %w", name, len(operators), ErrInvalidOperatorCount)
	}
	u, err := newUnit(name, health, recharge)
	if err != nil {
		return nil, err
	}
	if src == nil {
		src = rng.New(0)
	}
	return &Vehicle{unit: u, operators: operators, rng: src}, nil
}

func (v *Vehicle) Kind() string { return KindVehicle }

// Operators returns the crew in creation order.
func (v *Vehicle) Operators() []*Soldier {
	return append([]*Soldier(nil), v.operators...)
}

func (v *Vehicle) setSquad(name string) {
	v.unit.setSquad(name)
	for _, op := range v.operators {
		op.setSquad(name)
	}
}

// Experience is the crew's combined experience; vehicles carry none of their own.
func (v *Vehicle) Experience() float64 {
	total := 0.0
	for _, op := range v.operators {
		total += op.Experience()
	}
	return total
}

// IsActive requires the hull and at least one operator to be alive.
func (v *Vehicle) IsActive() bool {
	if v.Health() <= 0 {
		return false
	}
	crew := 0.0
	for _, op := range v.operators {
		crew += op.Health()
	}
	return crew > 0
}

// TotalHealth is the mean of the hull's and the operators' health.
func (v *Vehicle) TotalHealth() float64 {
	total := v.Health()
	for _, op := range v.operators {
		total += op.Health()
	}
	return total / float64(len(v.operators)+1)
}

// ReceiveDamage gives 30% to the hull, 50% to one random operator and splits
// the remaining 20% across the other operators. A lone operator leaves that
// 20% to the hull.
func (v *Vehicle) ReceiveDamage(total float64) bool {
	return v.takeHit(total, nil)
}

// takeHit is ReceiveDamage reporting every operator killed by this hit
// to crewLost.
func (v *Vehicle) takeHit(total float64, crewLost func(*Soldier)) bool {
	if !v.IsActive() {
		return false
	}

	hit := func(op *Soldier, amount float64) {
		if op.ReceiveDamage(amount) && crewLost != nil {
			crewLost(op)
		}
	}

	own := total * vehicleShare
	chosen := v.rng.Intn(len(v.operators))
	hit(v.operators[chosen], total*mainOperatorShare)

	if len(v.operators) == 1 {
		own += total * crewShare
	} else {
		share := total * crewShare / float64(len(v.operators)-1)
		for i, op := range v.operators {
			if i != chosen {
				hit(op, share)
			}
		}
	}
	v.health.subClamped(own)

	if v.IsActive() {
		return false
	}
	return v.destroyed.CompareAndSwap(false, true)
}

// Damage is 0.1 plus each operator's experience/100.
func (v *Vehicle) Damage() float64 {
	d := 0.1
	for _, op := range v.operators {
		d += op.Experience() / 100
	}
	return d
}

// AttackSuccessProbability is 0.5 * (1 + health/100) * gavg(operator probabilities).
func (v *Vehicle) AttackSuccessProbability() float64 {
	probs := make([]float64, len(v.operators))
	for i, op := range v.operators {
		probs[i] = op.AttackSuccessProbability()
	}
	crew, err := util.GeometricMean(probs)
	if err != nil {
		panic(fmt.Sprintf("vehicle %s: %v", v.Name(), err))
	}
	return 0.5 * (1 + v.Health()/100) * crew
}

func (v *Vehicle) Record() core.UnitRecord {
	ops := make([]core.UnitRecord, len(v.operators))
	for i, op := range v.operators {
		ops[i] = op.Record()
	}
	return core.UnitRecord{
		Name:       v.Name(),
		Squad:      v.SquadName(),
		Kind:       KindVehicle,
		Health:     v.Health(),
		Recharge:   v.Recharge(),
		Experience: v.Experience(),
		Active:     v.IsActive(),
		Operators:  ops,
	}
}
