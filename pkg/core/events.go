// pkg/core/events.go
package core

import "time"

// AttackEvent is one attack attempt by a squad against an enemy squad.
// Damage is zero when the attack missed.
type AttackEvent struct {
	Time                time.Time
	Attacker            string
	AttackerArmy        string
	Defender            string
	DefenderArmy        string
	Strategy            string
	AttackerProbability float64
	DefenderProbability float64
	Success             bool
	Damage              float64
}

// UnitDestroyedEvent is emitted when a unit's health first reaches zero.
type UnitDestroyedEvent struct {
	Time  time.Time
	Unit  string
	Kind  string
	Squad string
	Army  string
}

// SquadStateEvent is emitted on every squad state transition.
type SquadStateEvent struct {
	Time  time.Time
	Squad string
	Army  string
	From  string
	To    string
}
