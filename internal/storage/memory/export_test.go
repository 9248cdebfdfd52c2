// internal/storage/memory/export_test.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OCAP2/battlesim/internal/config"
	"github.com/OCAP2/battlesim/pkg/core"
)

func recordSampleBattle(t *testing.T, b *Backend) *core.Battle {
	t.Helper()

	battle := testBattle()
	if err := b.StartBattle(battle); err != nil {
		t.Fatalf("StartBattle failed: %v", err)
	}

	army := &core.ArmyRecord{
		ID:       1,
		Name:     "red",
		Strategy: "strongest",
		Squads: []core.SquadRecord{{
			Name:   "red-1",
			Army:   "red",
			State:  "idle",
			Active: true,
			Units: []core.UnitRecord{
				{Name: "s1", Kind: "soldier", Health: 100, Recharge: 200 * time.Millisecond, Active: true},
				{Name: "v1", Kind: "vehicle", Health: 300, Recharge: 1500 * time.Millisecond, Active: true,
					Operators: []core.UnitRecord{{Name: "op1", Kind: "soldier", Health: 100, Active: true}}},
			},
		}},
	}
	_ = b.AddArmy(army)

	at := battle.StartTime.Add(250 * time.Millisecond)
	_ = b.RecordAttack(&core.AttackEvent{Time: at, Attacker: "red-1", Defender: "blue-1", Strategy: "strongest",
		AttackerProbability: 0.4, DefenderProbability: 0.2, Success: true, Damage: 5.5})
	_ = b.RecordAttack(&core.AttackEvent{Time: at.Add(time.Second), Attacker: "blue-1", Defender: "red-1",
		Strategy: "random", AttackerProbability: 0.1, DefenderProbability: 0.3})
	_ = b.RecordUnitDestroyed(&core.UnitDestroyedEvent{Time: at.Add(2 * time.Second), Unit: "b1", Kind: "soldier", Squad: "blue-1", Army: "blue"})
	_ = b.RecordSquadState(&core.SquadStateEvent{Time: at, Squad: "red-1", Army: "red", From: "idle", To: "attacking"})
	_ = b.RecordStatus(&core.ArmyStatus{Time: at, Army: "red", ActiveSquads: 1, TotalSquads: 1, ActiveUnits: 2, TotalUnits: 2, TotalHealth: 400})

	return battle
}

func TestBuildExport(t *testing.T) {
	b := New(config.MemoryConfig{})
	battle := recordSampleBattle(t, b)
	b.outcome = &core.Outcome{
		BattleID:  battle.ID,
		EndTime:   battle.StartTime.Add(90 * time.Second),
		Duration:  90 * time.Second,
		Winner:    "red",
		Survivors: []string{"red"},
	}

	export := b.buildExport()

	if export.Version != exportVersion {
		t.Errorf("expected version %d, got %d", exportVersion, export.Version)
	}
	if export.BattleID != battle.ID {
		t.Errorf("expected battle id %s, got %s", battle.ID, export.BattleID)
	}
	if export.DurationMs != 90000 {
		t.Errorf("expected 90000ms, got %d", export.DurationMs)
	}
	if export.Winner != "red" {
		t.Errorf("expected winner red, got %s", export.Winner)
	}
	if export.Stats.Attacks != 2 || export.Stats.Hits != 1 {
		t.Errorf("unexpected stats: %+v", export.Stats)
	}
	if export.Stats.TotalDamage != 5.5 {
		t.Errorf("expected total damage 5.5, got %v", export.Stats.TotalDamage)
	}
	if export.Stats.UnitsLost != 1 {
		t.Errorf("expected 1 unit lost, got %d", export.Stats.UnitsLost)
	}
	if got := export.Attacks[0][0]; got != int64(250) {
		t.Errorf("expected offset 250ms, got %v", got)
	}
	if len(export.Roster) != 1 || len(export.Roster[0].Squads[0].Units) != 2 {
		t.Fatalf("unexpected roster: %+v", export.Roster)
	}
	vehicle := export.Roster[0].Squads[0].Units[1]
	if vehicle.RechargeMs != 1500 || len(vehicle.Operators) != 1 {
		t.Errorf("unexpected vehicle: %+v", vehicle)
	}
	if len(export.Status) != 1 || len(export.SquadStates) != 1 {
		t.Errorf("expected one status and one squad state row")
	}
}

func TestBuildExportWithoutOutcome(t *testing.T) {
	b := New(config.MemoryConfig{})
	_ = b.StartBattle(testBattle())

	export := b.buildExport()

	if export.EndTime != "" {
		t.Errorf("expected empty end time, got %s", export.EndTime)
	}
	if export.Survivors == nil || export.Final == nil || export.Attacks == nil {
		t.Error("expected empty slices instead of nil")
	}
}

func TestEndBattleWritesJSON(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir})
	battle := recordSampleBattle(t, b)

	err := b.EndBattle(&core.Outcome{BattleID: battle.ID, EndTime: battle.StartTime.Add(time.Minute), Survivors: []string{"red", "blue"}})
	if err != nil {
		t.Fatalf("EndBattle failed: %v", err)
	}

	path := b.ExportedFilePath()
	if want := filepath.Join(dir, "battle_0f8fad5b_20240115_103000.json"); path != want {
		t.Errorf("expected %s, got %s", want, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}

	var export BattleExport
	if err := json.Unmarshal(data, &export); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if export.Winner != "" {
		t.Errorf("expected no winner, got %s", export.Winner)
	}
	if len(export.Survivors) != 2 {
		t.Errorf("expected 2 survivors, got %v", export.Survivors)
	}
}

func TestEndBattleWritesGzip(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: filepath.Join(dir, "nested"), CompressOutput: true})
	battle := recordSampleBattle(t, b)

	if err := b.EndBattle(&core.Outcome{BattleID: battle.ID, Winner: "red"}); err != nil {
		t.Fatalf("EndBattle failed: %v", err)
	}

	path := b.ExportedFilePath()
	if !strings.HasSuffix(path, ".json.gz") {
		t.Fatalf("expected .json.gz path, got %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open export: %v", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("not a gzip file: %v", err)
	}
	defer gz.Close()

	var export BattleExport
	if err := json.NewDecoder(gz).Decode(&export); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if export.Winner != "red" {
		t.Errorf("expected winner red, got %s", export.Winner)
	}
}

func TestEndBattleBadOutputDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	b := New(config.MemoryConfig{OutputDir: filepath.Join(blocker, "sub")})
	_ = b.StartBattle(testBattle())

	if err := b.EndBattle(&core.Outcome{}); err == nil {
		t.Error("expected error for unusable output dir")
	}
	if b.ExportedFilePath() != "" {
		t.Error("export path set after failed export")
	}
}
