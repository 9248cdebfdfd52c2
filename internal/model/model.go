package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Battle{},
	&Army{},
	&Squad{},
	&Unit{},
	&AttackEvent{},
	&UnitDestroyedEvent{},
	&SquadStateEvent{},
	&ArmyStatus{},
	&BattleOutcome{},
}

////////////////////////
// BATTLE MODELS
////////////////////////

// Battle is one simulation run
type Battle struct {
	gorm.Model
	UUID             string         `json:"uuid" gorm:"size:36;uniqueIndex:idx_battle_uuid"`
	StartTime        time.Time      `json:"startTime" gorm:"index:idx_battle_start"`
	Seed             int64          `json:"seed"`
	Resolution       string         `json:"resolution" gorm:"size:16"`
	TickIntervalMs   int64          `json:"tickIntervalMs"`
	TimeScale        float64        `json:"timeScale" gorm:"default:1"`
	DamageMultiplier float64        `json:"damageMultiplier" gorm:"default:1"`
	Config           datatypes.JSON `json:"config"`
}

func (*Battle) TableName() string {
	return "battles"
}

// Army is an army as it entered the battle
type Army struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	BattleID uint   `json:"battleId" gorm:"index:idx_army_battle_id"`
	ArmyID   int    `json:"armyId"`
	Name     string `json:"name" gorm:"size:64"`
	Strategy string `json:"strategy" gorm:"size:16"`
}

func (*Army) TableName() string {
	return "armies"
}

// Squad is a squad as it entered the battle
type Squad struct {
	ID              uint    `json:"id" gorm:"primaryKey"`
	BattleID        uint    `json:"battleId" gorm:"index:idx_squad_battle_id"`
	Army            string  `json:"army" gorm:"size:64"`
	Name            string  `json:"name" gorm:"size:64"`
	Strategy        string  `json:"strategy" gorm:"size:16"`
	TotalHealth     float64 `json:"totalHealth"`
	TotalExperience float64 `json:"totalExperience"`
	AttackDamage    float64 `json:"attackDamage"`
	Points          float64 `json:"points"`
}

func (*Squad) TableName() string {
	return "squads"
}

// Unit is a soldier or vehicle. Vehicle is set for crew members.
type Unit struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	BattleID   uint    `json:"battleId" gorm:"index:idx_unit_battle_id"`
	Squad      string  `json:"squad" gorm:"size:64"`
	Vehicle    string  `json:"vehicle" gorm:"size:64"`
	Name       string  `json:"name" gorm:"size:64"`
	Kind       string  `json:"kind" gorm:"size:16"`
	Health     float64 `json:"health"`
	RechargeMs int64   `json:"rechargeMs"`
	Experience float64 `json:"experience"`
}

func (*Unit) TableName() string {
	return "units"
}

////////////////////////
// EVENT MODELS
////////////////////////

// AttackEvent is a single attack attempt
//
// Command: :ATTACK:
type AttackEvent struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	BattleID            uint      `json:"battleId" gorm:"index:idx_attack_battle_id"`
	Time                time.Time `json:"time" gorm:"index:idx_attack_time"`
	Attacker            string    `json:"attacker" gorm:"size:64"`
	AttackerArmy        string    `json:"attackerArmy" gorm:"size:64"`
	Defender            string    `json:"defender" gorm:"size:64"`
	DefenderArmy        string    `json:"defenderArmy" gorm:"size:64"`
	Strategy            string    `json:"strategy" gorm:"size:16"`
	AttackerProbability float64   `json:"attackerProbability"`
	DefenderProbability float64   `json:"defenderProbability"`
	Success             bool      `json:"success"`
	Damage              float64   `json:"damage"`
}

func (*AttackEvent) TableName() string {
	return "attack_events"
}

// UnitDestroyedEvent marks the moment a unit dropped to zero health
//
// Command: :UNIT:DESTROYED:
type UnitDestroyedEvent struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	BattleID uint      `json:"battleId" gorm:"index:idx_destroyed_battle_id"`
	Time     time.Time `json:"time"`
	Unit     string    `json:"unit" gorm:"size:64"`
	Kind     string    `json:"kind" gorm:"size:16"`
	Squad    string    `json:"squad" gorm:"size:64"`
	Army     string    `json:"army" gorm:"size:64"`
}

func (*UnitDestroyedEvent) TableName() string {
	return "unit_destroyed_events"
}

// SquadStateEvent is a squad state transition
//
// Command: :SQUAD:STATE:
type SquadStateEvent struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	BattleID uint      `json:"battleId" gorm:"index:idx_squadstate_battle_id"`
	Time     time.Time `json:"time"`
	Squad    string    `json:"squad" gorm:"size:64"`
	Army     string    `json:"army" gorm:"size:64"`
	From     string    `json:"from" gorm:"size:16"`
	To       string    `json:"to" gorm:"size:16"`
}

func (*SquadStateEvent) TableName() string {
	return "squad_state_events"
}

// ArmyStatus is a periodic strength sample
//
// Command: :ARMY:STATUS:
type ArmyStatus struct {
	Time         time.Time `json:"time" gorm:"index:idx_status_time"`
	BattleID     uint      `json:"battleId" gorm:"index:idx_status_battle_id"`
	Army         string    `json:"army" gorm:"size:64"`
	ActiveSquads int       `json:"activeSquads"`
	TotalSquads  int       `json:"totalSquads"`
	ActiveUnits  int       `json:"activeUnits"`
	TotalUnits   int       `json:"totalUnits"`
	TotalHealth  float64   `json:"totalHealth"`
}

func (*ArmyStatus) TableName() string {
	return "army_statuses"
}

// BattleOutcome is written once when a battle ends
type BattleOutcome struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	BattleID   uint           `json:"battleId" gorm:"uniqueIndex:idx_outcome_battle_id"`
	EndTime    time.Time      `json:"endTime"`
	DurationMs int64          `json:"durationMs"`
	Winner     string         `json:"winner" gorm:"size:64"`
	Survivors  datatypes.JSON `json:"survivors"`
	Cancelled  bool           `json:"cancelled"`
}

func (*BattleOutcome) TableName() string {
	return "battle_outcomes"
}
