// internal/storage/storage.go
package storage

import (
	"errors"

	"github.com/OCAP2/battlesim/pkg/core"
)

// ErrNoBattle is returned when events arrive before StartBattle.
var ErrNoBattle = errors.New("no battle started")

// Backend is the interface all storage implementations must satisfy.
// Record methods may be called from several goroutines.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Battle management
	StartBattle(b *core.Battle) error
	EndBattle(o *core.Outcome) error

	// Roster as built, before the first attack
	AddArmy(a *core.ArmyRecord) error

	// Event recording
	RecordAttack(e *core.AttackEvent) error
	RecordUnitDestroyed(e *core.UnitDestroyedEvent) error
	RecordSquadState(e *core.SquadStateEvent) error
	RecordStatus(s *core.ArmyStatus) error
}

// Exportable is implemented by backends that write an after-action file
// when the battle ends.
type Exportable interface {
	ExportedFilePath() string
}

// Nop discards everything. It backs storage.type "none".
type Nop struct{}

func (Nop) Init() error                                        { return nil }
func (Nop) Close() error                                       { return nil }
func (Nop) StartBattle(*core.Battle) error                     { return nil }
func (Nop) EndBattle(*core.Outcome) error                      { return nil }
func (Nop) AddArmy(*core.ArmyRecord) error                     { return nil }
func (Nop) RecordAttack(*core.AttackEvent) error               { return nil }
func (Nop) RecordUnitDestroyed(*core.UnitDestroyedEvent) error { return nil }
func (Nop) RecordSquadState(*core.SquadStateEvent) error       { return nil }
func (Nop) RecordStatus(*core.ArmyStatus) error                { return nil }
