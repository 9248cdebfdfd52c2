// internal/storage/storage_test.go
package storage_test

import (
	"testing"

	"github.com/OCAP2/battlesim/internal/storage"
	"github.com/OCAP2/battlesim/pkg/core"
	"github.com/stretchr/testify/assert"
)

var _ storage.Backend = storage.Nop{}

func TestNopAcceptsEverything(t *testing.T) {
	var b storage.Backend = storage.Nop{}

	assert.NoError(t, b.Init())
	assert.NoError(t, b.StartBattle(&core.Battle{ID: "b"}))
	assert.NoError(t, b.AddArmy(&core.ArmyRecord{Name: "red"}))
	assert.NoError(t, b.RecordAttack(&core.AttackEvent{}))
	assert.NoError(t, b.RecordUnitDestroyed(&core.UnitDestroyedEvent{}))
	assert.NoError(t, b.RecordSquadState(&core.SquadStateEvent{}))
	assert.NoError(t, b.RecordStatus(&core.ArmyStatus{}))
	assert.NoError(t, b.EndBattle(&core.Outcome{}))
	assert.NoError(t, b.Close())

	_, ok := b.(storage.Exportable)
	assert.False(t, ok)
}
