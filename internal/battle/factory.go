package battle

import (
	"fmt"
	"time"

	"github.com/OCAP2/battlesim/internal/rng"
)

// RandomSoldier draws health in [1,100], recharge in [1000,2000]ms and
// experience in [0,50].
func RandomSoldier(name string, src *rng.Source) *Soldier {
	s, err := NewSoldier(
		name,
		float64(src.IntBetween(1, 100)),
		time.Duration(src.IntBetween(1000, 2000))*time.Millisecond,
		float64(src.IntBetween(0, 50)),
		src,
	)
	if err != nil {
		panic(err)
	}
	return s
}

// RandomVehicle draws health in [1,100], recharge in (1000,2000]ms and a crew
// of one to three operators.
func RandomVehicle(name string, src *rng.Source) *Vehicle {
	v, err := NewVehicle(
		name,
		float64(src.IntBetween(1, 100)),
		time.Duration(src.IntBetween(1001, 2000))*time.Millisecond,
		src.IntBetween(1, 3),
		src,
	)
	if err != nil {
		panic(err)
	}
	return v
}

// RandomUnit returns a soldier or a vehicle with even odds.
func RandomUnit(name string, src *rng.Source) Unit {
	if src.Chance(0.5) {
		return RandomSoldier(name+"/soldier", src)
	}
	return RandomVehicle(name+"/vehicle", src)
}

// RandomUnits builds n units named after prefix.
func RandomUnits(n int, prefix string, src *rng.Source) []Unit {
	units := make([]Unit, n)
	for i := range units {
		units[i] = RandomUnit(fmt.Sprintf("%s/%d", prefix, i+1), src)
	}
	return units
}
