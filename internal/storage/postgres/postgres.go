// Package postgres implements the storage.Backend interface using GORM/PostgreSQL
// with internal queues and a background DB writer goroutine.
package postgres

import (
	"fmt"

	"github.com/OCAP2/battlesim/internal/config"
	"github.com/OCAP2/battlesim/internal/database"
	gormstorage "github.com/OCAP2/battlesim/internal/storage/gorm"
	"github.com/OCAP2/battlesim/pkg/core"
	"github.com/rs/zerolog"
)

// Dependencies holds all dependencies for the postgres storage backend.
type Dependencies struct {
	DB       config.DBConfig
	Logger   zerolog.Logger
	Settings any
}

// Backend connects to postgres on Init and delegates everything else to the
// GORM backend.
type Backend struct {
	deps Dependencies
	gorm *gormstorage.Backend
}

// New creates a new postgres storage backend. No connection is made until Init.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init connects, migrates and starts the DB writer.
func (b *Backend) Init() error {
	db, err := database.GetPostgresDB(b.deps.DB, b.deps.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}

	b.gorm = gormstorage.New(gormstorage.Dependencies{
		DB:       db,
		Logger:   b.deps.Logger,
		Settings: b.deps.Settings,
	})
	return b.gorm.Init()
}

// Close flushes pending rows and closes the connection.
func (b *Backend) Close() error {
	if b.gorm == nil {
		return nil
	}
	err := b.gorm.Close()
	if sqlDB, dbErr := b.gorm.DB().DB(); dbErr == nil {
		sqlDB.Close()
	}
	return err
}

func (b *Backend) StartBattle(battle *core.Battle) error {
	return b.gorm.StartBattle(battle)
}

func (b *Backend) EndBattle(o *core.Outcome) error {
	return b.gorm.EndBattle(o)
}

func (b *Backend) AddArmy(a *core.ArmyRecord) error {
	return b.gorm.AddArmy(a)
}

func (b *Backend) RecordAttack(e *core.AttackEvent) error {
	return b.gorm.RecordAttack(e)
}

func (b *Backend) RecordUnitDestroyed(e *core.UnitDestroyedEvent) error {
	return b.gorm.RecordUnitDestroyed(e)
}

func (b *Backend) RecordSquadState(e *core.SquadStateEvent) error {
	return b.gorm.RecordSquadState(e)
}

func (b *Backend) RecordStatus(s *core.ArmyStatus) error {
	return b.gorm.RecordStatus(s)
}
