package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"logLevel": "debug",
		"battle": { "tickInterval": "100ms", "timeScale": 10, "resolution": "serialized", "seed": 42 },
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(cfg), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "10.0.0.1", GetDBConfig().Host)
	assert.Equal(t, "5433", GetDBConfig().Port)

	bc := GetBattleConfig()
	assert.Equal(t, 100*time.Millisecond, bc.TickInterval)
	assert.Equal(t, 10.0, bc.TimeScale)
	assert.Equal(t, "serialized", bc.Resolution)
	assert.Equal(t, int64(42), bc.Seed)
	assert.Equal(t, 1.0, bc.DamageMultiplier, "unset keys keep their defaults")
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{}`), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./battlelogs", viper.GetString("logsDir"))

	bc := GetBattleConfig()
	assert.Equal(t, 500*time.Millisecond, bc.TickInterval)
	assert.Equal(t, 1.0, bc.TimeScale)
	assert.Equal(t, "concurrent", bc.Resolution)
	assert.Equal(t, int64(0), bc.Seed)
	assert.Equal(t, time.Duration(0), bc.Timeout)

	sc := GetStorageConfig()
	assert.Equal(t, "memory", sc.Type)
	assert.Equal(t, "./battles", sc.Memory.OutputDir)
	assert.True(t, sc.Memory.CompressOutput)
	assert.Equal(t, time.Minute, sc.SQLite.DumpInterval)

	db := GetDBConfig()
	assert.Equal(t, "localhost", db.Host)
	assert.Equal(t, "5432", db.Port)
	assert.Equal(t, "postgres", db.Username)
	assert.Equal(t, "battlesim", db.Database)

	ic := GetInfluxConfig()
	assert.False(t, ic.Enabled)
	assert.Equal(t, "http://localhost:8086", ic.URL())

	assert.False(t, GetGraylogConfig().Enabled)
	assert.Equal(t, "localhost:12201", GetGraylogConfig().Address)

	oc := GetOTelConfig()
	assert.False(t, oc.Enabled)
	assert.Equal(t, "battlesim", oc.ServiceName)
	assert.Equal(t, 5*time.Second, oc.BatchTimeout)
	assert.True(t, oc.Insecure)

	assert.Equal(t, time.Second, GetMonitorInterval())
}

func TestLoad_MissingFileKeepsDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
	assert.Equal(t, "memory", GetStorageConfig().Type)
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{"logLevel":`), 0644))

	assert.Error(t, Load(dir))
}

func TestGetters(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	viper.Set("flag", true)

	assert.Equal(t, "testValue", GetString("testKey"))
	assert.True(t, GetBool("flag"))
}
