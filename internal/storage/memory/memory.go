// internal/storage/memory/memory.go
package memory

import (
	"sync"

	"github.com/OCAP2/battlesim/internal/config"
	"github.com/OCAP2/battlesim/internal/storage"
	"github.com/OCAP2/battlesim/pkg/core"
)

// Backend keeps the whole battle in memory and exports it as JSON when the
// battle ends.
type Backend struct {
	cfg    config.MemoryConfig
	battle *core.Battle

	armies      []core.ArmyRecord
	attacks     []core.AttackEvent
	destroyed   []core.UnitDestroyedEvent
	squadStates []core.SquadStateEvent
	status      []core.ArmyStatus
	outcome     *core.Outcome

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

func (b *Backend) Init() error  { return nil }
func (b *Backend) Close() error { return nil }

// StartBattle begins recording and drops anything left from a previous battle.
func (b *Backend) StartBattle(battle *core.Battle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.battle = battle
	b.armies = nil
	b.attacks = nil
	b.destroyed = nil
	b.squadStates = nil
	b.status = nil
	b.outcome = nil
	b.lastExportPath = ""
	return nil
}

// EndBattle stores the outcome and writes the export file.
func (b *Backend) EndBattle(o *core.Outcome) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.battle == nil {
		return storage.ErrNoBattle
	}
	b.outcome = o
	return b.exportJSON()
}

func (b *Backend) AddArmy(a *core.ArmyRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.battle == nil {
		return storage.ErrNoBattle
	}
	b.armies = append(b.armies, *a)
	return nil
}

func (b *Backend) RecordAttack(e *core.AttackEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.battle == nil {
		return storage.ErrNoBattle
	}
	b.attacks = append(b.attacks, *e)
	return nil
}

func (b *Backend) RecordUnitDestroyed(e *core.UnitDestroyedEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.battle == nil {
		return storage.ErrNoBattle
	}
	b.destroyed = append(b.destroyed, *e)
	return nil
}

func (b *Backend) RecordSquadState(e *core.SquadStateEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.battle == nil {
		return storage.ErrNoBattle
	}
	b.squadStates = append(b.squadStates, *e)
	return nil
}

func (b *Backend) RecordStatus(s *core.ArmyStatus) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.battle == nil {
		return storage.ErrNoBattle
	}
	b.status = append(b.status, *s)
	return nil
}

// ExportedFilePath returns the path of the last export, empty before one.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// Attacks returns a copy of the recorded attacks.
func (b *Backend) Attacks() []core.AttackEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.AttackEvent(nil), b.attacks...)
}

// Destroyed returns a copy of the recorded unit losses.
func (b *Backend) Destroyed() []core.UnitDestroyedEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.UnitDestroyedEvent(nil), b.destroyed...)
}
