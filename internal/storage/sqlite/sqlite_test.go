package sqlitestorage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/battlesim/internal/database"
	"github.com/OCAP2/battlesim/internal/model"
	"github.com/OCAP2/battlesim/internal/storage"
	"github.com/OCAP2/battlesim/pkg/core"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks
var (
	_ storage.Backend    = (*Backend)(nil)
	_ storage.Exportable = (*Backend)(nil)
)

func TestCloseWritesFinalDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "battles.db")

	b, err := New(Config{DumpPath: path}, zerolog.Nop(), nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	assert.Empty(t, b.ExportedFilePath())

	require.NoError(t, b.StartBattle(&core.Battle{ID: "sqlite-battle", StartTime: time.Now()}))
	require.NoError(t, b.RecordAttack(&core.AttackEvent{Attacker: "a"}))
	require.NoError(t, b.Close())

	assert.Equal(t, path, b.ExportedFilePath())

	disk, err := database.GetSqliteDB(path, zerolog.Nop())
	require.NoError(t, err)

	var n int64
	require.NoError(t, disk.Model(&model.AttackEvent{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestDumpLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battles.db")
	fc := clockwork.NewFakeClock()

	b, err := New(Config{DumpPath: path, DumpInterval: time.Minute}, zerolog.Nop(), fc)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, fc.BlockUntilContext(t.Context(), 2))
	fc.Advance(time.Minute)

	assert.Eventually(t, func() bool {
		return b.ExportedFilePath() == path
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNoDumpPath(t *testing.T) {
	b, err := New(Config{}, zerolog.Nop(), nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	assert.NoError(t, b.Close())
	assert.Empty(t, b.ExportedFilePath())
}
