// pkg/core/battle.go
package core

import "time"

// Battle is the header of a recorded battle.
type Battle struct {
	ID               string
	StartTime        time.Time
	Seed             int64
	Resolution       string
	TickInterval     time.Duration
	TimeScale        float64
	DamageMultiplier float64
}

// ArmyRecord describes an army as it was built, before fighting.
type ArmyRecord struct {
	ID       int
	Name     string
	Strategy string
	Squads   []SquadRecord
}

// SquadRecord describes a squad and its units at a point in time.
type SquadRecord struct {
	Name            string
	Army            string
	Strategy        string
	State           string
	Active          bool
	TotalHealth     float64
	TotalExperience float64
	AttackDamage    float64
	Points          float64
	Units           []UnitRecord
}

// UnitRecord describes a soldier or a vehicle.
// Operators is only set for vehicles.
type UnitRecord struct {
	Name       string
	Squad      string
	Kind       string
	Health     float64
	Recharge   time.Duration
	Experience float64
	Active     bool
	Operators  []UnitRecord
}

// Outcome is the result of a finished battle.
// Winner is empty when no army or more than one army survived.
type Outcome struct {
	BattleID  string
	EndTime   time.Time
	Duration  time.Duration
	Winner    string
	Survivors []string
	Cancelled bool
	Armies    []ArmyRecord
}
