// Package convert provides functions to convert core battle records into GORM models
package convert

import (
	"encoding/json"

	"github.com/OCAP2/battlesim/internal/model"
	"github.com/OCAP2/battlesim/pkg/core"
	"gorm.io/datatypes"
)

// toJSON marshals v for a JSON column, falling back to fallback on error or nil.
func toJSON(v any, fallback string) datatypes.JSON {
	if v == nil {
		return datatypes.JSON(fallback)
	}
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return datatypes.JSON(fallback)
	}
	return datatypes.JSON(data)
}

// CoreToBattle converts a core.Battle to a GORM model.Battle.
// settings is stored as-is in the Config column.
func CoreToBattle(b core.Battle, settings any) model.Battle {
	return model.Battle{
		UUID:             b.ID,
		StartTime:        b.StartTime,
		Seed:             b.Seed,
		Resolution:       b.Resolution,
		TickIntervalMs:   b.TickInterval.Milliseconds(),
		TimeScale:        b.TimeScale,
		DamageMultiplier: b.DamageMultiplier,
		Config:           toJSON(settings, "{}"),
	}
}

// CoreToArmy converts a core.ArmyRecord to a GORM model.Army without its squads.
func CoreToArmy(a core.ArmyRecord) model.Army {
	return model.Army{
		ArmyID:   a.ID,
		Name:     a.Name,
		Strategy: a.Strategy,
	}
}

// CoreToSquads flattens the squads of an army.
func CoreToSquads(a core.ArmyRecord) []model.Squad {
	squads := make([]model.Squad, 0, len(a.Squads))
	for _, s := range a.Squads {
		army := s.Army
		if army == "" {
			army = a.Name
		}
		squads = append(squads, model.Squad{
			Army:            army,
			Name:            s.Name,
			Strategy:        s.Strategy,
			TotalHealth:     s.TotalHealth,
			TotalExperience: s.TotalExperience,
			AttackDamage:    s.AttackDamage,
			Points:          s.Points,
		})
	}
	return squads
}

// CoreToUnits flattens every unit of an army, crew members included.
// Crew rows carry the name of their vehicle.
func CoreToUnits(a core.ArmyRecord) []model.Unit {
	var units []model.Unit
	for _, s := range a.Squads {
		for _, u := range s.Units {
			units = append(units, coreToUnit(u, s.Name, ""))
			for _, op := range u.Operators {
				units = append(units, coreToUnit(op, s.Name, u.Name))
			}
		}
	}
	return units
}

func coreToUnit(u core.UnitRecord, squad, vehicle string) model.Unit {
	if u.Squad != "" {
		squad = u.Squad
	}
	return model.Unit{
		Squad:      squad,
		Vehicle:    vehicle,
		Name:       u.Name,
		Kind:       u.Kind,
		Health:     u.Health,
		RechargeMs: u.Recharge.Milliseconds(),
		Experience: u.Experience,
	}
}

// CoreToAttackEvent converts a core.AttackEvent to a GORM model.AttackEvent.
func CoreToAttackEvent(e core.AttackEvent) model.AttackEvent {
	return model.AttackEvent{
		Time:                e.Time,
		Attacker:            e.Attacker,
		AttackerArmy:        e.AttackerArmy,
		Defender:            e.Defender,
		DefenderArmy:        e.DefenderArmy,
		Strategy:            e.Strategy,
		AttackerProbability: e.AttackerProbability,
		DefenderProbability: e.DefenderProbability,
		Success:             e.Success,
		Damage:              e.Damage,
	}
}

// CoreToUnitDestroyedEvent converts a core.UnitDestroyedEvent to a GORM model.UnitDestroyedEvent.
func CoreToUnitDestroyedEvent(e core.UnitDestroyedEvent) model.UnitDestroyedEvent {
	return model.UnitDestroyedEvent{
		Time:  e.Time,
		Unit:  e.Unit,
		Kind:  e.Kind,
		Squad: e.Squad,
		Army:  e.Army,
	}
}

// CoreToSquadStateEvent converts a core.SquadStateEvent to a GORM model.SquadStateEvent.
func CoreToSquadStateEvent(e core.SquadStateEvent) model.SquadStateEvent {
	return model.SquadStateEvent{
		Time:  e.Time,
		Squad: e.Squad,
		Army:  e.Army,
		From:  e.From,
		To:    e.To,
	}
}

// CoreToArmyStatus converts a core.ArmyStatus to a GORM model.ArmyStatus.
func CoreToArmyStatus(s core.ArmyStatus) model.ArmyStatus {
	return model.ArmyStatus{
		Time:         s.Time,
		Army:         s.Army,
		ActiveSquads: s.ActiveSquads,
		TotalSquads:  s.TotalSquads,
		ActiveUnits:  s.ActiveUnits,
		TotalUnits:   s.TotalUnits,
		TotalHealth:  s.TotalHealth,
	}
}

// CoreToOutcome converts a core.Outcome to a GORM model.BattleOutcome.
func CoreToOutcome(o core.Outcome) model.BattleOutcome {
	var survivors any
	if o.Survivors != nil {
		survivors = o.Survivors
	}
	return model.BattleOutcome{
		EndTime:    o.EndTime,
		DurationMs: o.Duration.Milliseconds(),
		Winner:     o.Winner,
		Survivors:  toJSON(survivors, "[]"),
		Cancelled:  o.Cancelled,
	}
}
