// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OCAP2/battlesim/pkg/core"
)

// exportVersion is bumped whenever the export layout changes.
const exportVersion = 1

// BattleExport is the root JSON structure of an after-action file.
type BattleExport struct {
	Version          int      `json:"version"`
	BattleID         string   `json:"battleId"`
	StartTime        string   `json:"startTime"`
	EndTime          string   `json:"endTime,omitempty"`
	DurationMs       int64    `json:"durationMs"`
	Seed             int64    `json:"seed"`
	Resolution       string   `json:"resolution"`
	TimeScale        float64  `json:"timeScale"`
	DamageMultiplier float64  `json:"damageMultiplier"`
	Winner           string   `json:"winner,omitempty"`
	Survivors        []string `json:"survivors"`
	Cancelled        bool     `json:"cancelled"`

	Stats Stats `json:"stats"`

	// Roster is the armies as they entered the battle, Final as they left it.
	Roster []ArmyJSON `json:"roster"`
	Final  []ArmyJSON `json:"final"`

	// Events hold [offsetMs, type, ...] rows in arrival order per type.
	Attacks     [][]any `json:"attacks"`
	Losses      [][]any `json:"losses"`
	SquadStates [][]any `json:"squadStates"`
	Status      [][]any `json:"status"`
}

// Stats summarises the attack log.
type Stats struct {
	Attacks     int     `json:"attacks"`
	Hits        int     `json:"hits"`
	TotalDamage float64 `json:"totalDamage"`
	UnitsLost   int     `json:"unitsLost"`
}

// ArmyJSON is an army and its squads.
type ArmyJSON struct {
	ID       int         `json:"id"`
	Name     string      `json:"name"`
	Strategy string      `json:"strategy"`
	Squads   []SquadJSON `json:"squads"`
}

// SquadJSON is a squad and its units.
type SquadJSON struct {
	Name   string     `json:"name"`
	State  string     `json:"state"`
	Active bool       `json:"active"`
	Health float64    `json:"health"`
	Exp    float64    `json:"experience"`
	Damage float64    `json:"damage"`
	Points float64    `json:"points"`
	Units  []UnitJSON `json:"units"`
}

// UnitJSON is a soldier or a vehicle with its crew.
type UnitJSON struct {
	Name       string     `json:"name"`
	Kind       string     `json:"kind"`
	Health     float64    `json:"health"`
	RechargeMs int64      `json:"rechargeMs"`
	Experience float64    `json:"experience"`
	Active     bool       `json:"active"`
	Operators  []UnitJSON `json:"operators,omitempty"`
}

// exportJSON writes the battle to <outputDir>/battle_<id>_<start>.json[.gz].
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	id := strings.ReplaceAll(b.battle.ID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	name := fmt.Sprintf("battle_%s_%s.json", id, b.battle.StartTime.Format("20060102_150405"))
	if b.cfg.CompressOutput {
		name += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, name)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeExport(outputPath, export, b.cfg.CompressOutput); err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() BattleExport {
	start := b.battle.StartTime
	offset := func(t time.Time) int64 { return t.Sub(start).Milliseconds() }

	export := BattleExport{
		Version:          exportVersion,
		BattleID:         b.battle.ID,
		StartTime:        start.UTC().Format(time.RFC3339Nano),
		Seed:             b.battle.Seed,
		Resolution:       b.battle.Resolution,
		TimeScale:        b.battle.TimeScale,
		DamageMultiplier: b.battle.DamageMultiplier,
		Survivors:        []string{},
		Roster:           armiesJSON(b.armies),
		Final:            []ArmyJSON{},
		Attacks:          make([][]any, 0, len(b.attacks)),
		Losses:           make([][]any, 0, len(b.destroyed)),
		SquadStates:      make([][]any, 0, len(b.squadStates)),
		Status:           make([][]any, 0, len(b.status)),
	}

	if o := b.outcome; o != nil {
		export.EndTime = o.EndTime.UTC().Format(time.RFC3339Nano)
		export.DurationMs = o.Duration.Milliseconds()
		export.Winner = o.Winner
		export.Cancelled = o.Cancelled
		if o.Survivors != nil {
			export.Survivors = o.Survivors
		}
		export.Final = armiesJSON(o.Armies)
	}

	for _, a := range b.attacks {
		export.Stats.Attacks++
		if a.Success {
			export.Stats.Hits++
			export.Stats.TotalDamage += a.Damage
		}
		export.Attacks = append(export.Attacks, []any{
			offset(a.Time), a.Attacker, a.Defender, a.Strategy,
			a.AttackerProbability, a.DefenderProbability, a.Success, a.Damage,
		})
	}
	for _, d := range b.destroyed {
		export.Stats.UnitsLost++
		export.Losses = append(export.Losses, []any{offset(d.Time), d.Unit, d.Kind, d.Squad, d.Army})
	}
	for _, s := range b.squadStates {
		export.SquadStates = append(export.SquadStates, []any{offset(s.Time), s.Squad, s.From, s.To})
	}
	for _, s := range b.status {
		export.Status = append(export.Status, []any{
			offset(s.Time), s.Army, s.ActiveSquads, s.TotalSquads, s.ActiveUnits, s.TotalUnits, s.TotalHealth,
		})
	}

	return export
}

func armiesJSON(armies []core.ArmyRecord) []ArmyJSON {
	out := make([]ArmyJSON, 0, len(armies))
	for _, a := range armies {
		aj := ArmyJSON{ID: a.ID, Name: a.Name, Strategy: a.Strategy, Squads: make([]SquadJSON, 0, len(a.Squads))}
		for _, s := range a.Squads {
			aj.Squads = append(aj.Squads, SquadJSON{
				Name:   s.Name,
				State:  s.State,
				Active: s.Active,
				Health: s.TotalHealth,
				Exp:    s.TotalExperience,
				Damage: s.AttackDamage,
				Points: s.Points,
				Units:  unitsJSON(s.Units),
			})
		}
		out = append(out, aj)
	}
	return out
}

func unitsJSON(units []core.UnitRecord) []UnitJSON {
	if len(units) == 0 {
		return nil
	}
	out := make([]UnitJSON, 0, len(units))
	for _, u := range units {
		out = append(out, UnitJSON{
			Name:       u.Name,
			Kind:       u.Kind,
			Health:     u.Health,
			RechargeMs: u.Recharge.Milliseconds(),
			Experience: u.Experience,
			Active:     u.Active,
			Operators:  unitsJSON(u.Operators),
		})
	}
	return out
}

func writeExport(path string, data BattleExport, compress bool) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if !compress {
		return json.NewEncoder(f).Encode(data)
	}

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(data); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}
