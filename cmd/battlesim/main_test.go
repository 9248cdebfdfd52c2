package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/OCAP2/battlesim/internal/config"
	"github.com/OCAP2/battlesim/internal/storage"
	"github.com/OCAP2/battlesim/internal/storage/memory"
	sqlitestorage "github.com/OCAP2/battlesim/internal/storage/sqlite"
	"github.com/fatih/color"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStorageBackend(t *testing.T) {
	deps := storageDeps{Logger: zerolog.Nop(), Clock: clockwork.NewFakeClock()}

	tests := []struct {
		name    string
		cfg     config.StorageConfig
		check   func(t *testing.T, b storage.Backend)
		wantErr bool
	}{
		{
			name: "memory",
			cfg:  config.StorageConfig{Type: "memory"},
			check: func(t *testing.T, b storage.Backend) {
				assert.IsType(t, &memory.Backend{}, b)
			},
		},
		{
			name: "empty type defaults to memory",
			cfg:  config.StorageConfig{},
			check: func(t *testing.T, b storage.Backend) {
				assert.IsType(t, &memory.Backend{}, b)
			},
		},
		{
			name: "none",
			cfg:  config.StorageConfig{Type: "none"},
			check: func(t *testing.T, b storage.Backend) {
				assert.Equal(t, storage.Nop{}, b)
			},
		},
		{
			name: "sqlite",
			cfg: config.StorageConfig{
				Type:   "sqlite",
				SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "b.db")},
			},
			check: func(t *testing.T, b storage.Backend) {
				assert.IsType(t, &sqlitestorage.Backend{}, b)
				_, ok := b.(storage.Exportable)
				assert.True(t, ok)
			},
		},
		{
			name:    "unknown",
			cfg:     config.StorageConfig{Type: "redis"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := createStorageBackend(tt.cfg, deps)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, b)
		})
	}
}

func TestOptionsRoster_FromFlags(t *testing.T) {
	opts := &options{armies: 3, squads: 2, units: 5, strategies: []string{"weakest"}}
	r, err := opts.roster()
	require.NoError(t, err)
	require.Len(t, r.Armies, 3)
	for _, a := range r.Armies {
		assert.Equal(t, "weakest", a.Strategy)
	}
}

func TestOptionsRoster_InvalidFlags(t *testing.T) {
	opts := &options{armies: 1, squads: 2, units: 5}
	_, err := opts.roster()
	assert.Error(t, err)
}

func TestOptionsRoster_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`armies:
  - name: red
    squads: 2
    units: 5
    strategy: strongest
  - name: blue
    squads: 3
    units: 6
    strategy: random
`), 0644))

	opts := &options{rosterPath: path, armies: 9}
	r, err := opts.roster()
	require.NoError(t, err)
	require.Len(t, r.Armies, 2)
	assert.Equal(t, "red", r.Armies[0].Name)
	assert.Equal(t, 3, r.Armies[1].Squads)
}

func TestRootCmd_FlagsBound(t *testing.T) {
	cmd := newRootCmd()
	for flag := range flagKeys {
		assert.NotNil(t, cmd.Flags().Lookup(flag), flag)
	}
}

func TestRun_MemoryBattle(t *testing.T) {
	t.Cleanup(viper.Reset)
	color.NoColor = true

	dir := t.TempDir()
	outDir := filepath.Join(dir, "battles")
	viper.Set("logsDir", filepath.Join(dir, "logs"))
	viper.Set("storage.type", "memory")
	viper.Set("storage.memory.outputDir", outDir)
	viper.Set("battle.seed", 42)
	viper.Set("battle.timeScale", 1000.0)
	viper.Set("battle.damageMultiplier", 10.0)
	viper.Set("battle.timeout", "30s")

	var out bytes.Buffer
	opts := &options{configDir: dir, armies: 2, squads: 2, units: 5}
	require.NoError(t, run(t.Context(), opts, &out))

	report := out.String()
	assert.Contains(t, report, "Battle Simulator")
	assert.Contains(t, report, "Seed:       42")
	assert.Contains(t, report, "army-1")
	assert.Contains(t, report, "Report:")

	exports, err := filepath.Glob(filepath.Join(outDir, "battle_*.json.gz"))
	require.NoError(t, err)
	assert.Len(t, exports, 1)

	logs, err := filepath.Glob(filepath.Join(dir, "logs", "battlesim.*.log"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestRun_RecordsClosingStatusOncePerArmy(t *testing.T) {
	t.Cleanup(viper.Reset)
	color.NoColor = true

	dir := t.TempDir()
	outDir := filepath.Join(dir, "battles")
	viper.Set("logsDir", filepath.Join(dir, "logs"))
	viper.Set("storage.type", "memory")
	viper.Set("storage.memory.outputDir", outDir)
	viper.Set("storage.memory.compressOutput", false)
	viper.Set("monitor.interval", "1h")
	viper.Set("battle.seed", 7)
	viper.Set("battle.timeScale", 1000.0)
	viper.Set("battle.damageMultiplier", 10.0)
	viper.Set("battle.timeout", "30s")

	opts := &options{configDir: dir, armies: 2, squads: 2, units: 5}
	require.NoError(t, run(t.Context(), opts, &bytes.Buffer{}))

	exports, err := filepath.Glob(filepath.Join(outDir, "battle_*.json"))
	require.NoError(t, err)
	require.Len(t, exports, 1)

	raw, err := os.ReadFile(exports[0])
	require.NoError(t, err)
	var export memory.BattleExport
	require.NoError(t, json.Unmarshal(raw, &export))

	require.Len(t, export.Status, 2)
	perArmy := map[any]int{}
	for _, row := range export.Status {
		require.Greater(t, len(row), 1)
		perArmy[row[1]]++
	}
	assert.Equal(t, map[any]int{"army-1": 1, "army-2": 1}, perArmy)
}
