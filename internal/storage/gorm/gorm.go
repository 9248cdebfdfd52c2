// Package gormstorage implements storage.Backend on top of GORM with internal
// queues and a background DB writer goroutine. The postgres and sqlite
// backends wrap it and only differ in how the connection is made.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/battlesim/internal/database"
	"github.com/OCAP2/battlesim/internal/model"
	"github.com/OCAP2/battlesim/internal/model/convert"
	"github.com/OCAP2/battlesim/internal/queue"
	"github.com/OCAP2/battlesim/internal/storage"
	"github.com/OCAP2/battlesim/pkg/core"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	defaultFlushInterval = 2 * time.Second
	defaultBatchSize     = 1000
)

// ErrNoDB is returned by Init when no connection was injected.
var ErrNoDB = errors.New("gorm backend has no database")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        zerolog.Logger
	Clock         clockwork.Clock
	FlushInterval time.Duration
	BatchSize     int
	// Settings is stored with the battle row.
	Settings any
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Attacks     *queue.Queue[model.AttackEvent]
	Destroyed   *queue.Queue[model.UnitDestroyedEvent]
	SquadStates *queue.Queue[model.SquadStateEvent]
	Status      *queue.Queue[model.ArmyStatus]
}

func newQueues() *queues {
	return &queues{
		Attacks:     queue.New[model.AttackEvent](),
		Destroyed:   queue.New[model.UnitDestroyedEvent](),
		SquadStates: queue.New[model.SquadStateEvent](),
		Status:      queue.New[model.ArmyStatus](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps     Dependencies
	queues   *queues
	battleID atomic.Uint64

	writeMu sync.Mutex
	stop    chan struct{}
	done    chan struct{}
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = defaultBatchSize
	}
	return &Backend{
		deps:   deps,
		queues: newQueues(),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return ErrNoDB
	}
	if err := database.Migrate(b.deps.DB, b.deps.Logger); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	b.startDBWriter()
	return nil
}

// Close stops the DB writer goroutine and writes whatever is still queued.
func (b *Backend) Close() error {
	if b.stop == nil {
		return nil
	}
	close(b.stop)
	<-b.done
	b.stop = nil
	return b.Flush()
}

// StartBattle inserts the battle row synchronously so later rows can
// reference its ID.
func (b *Backend) StartBattle(battle *core.Battle) error {
	row := convert.CoreToBattle(*battle, b.deps.Settings)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert battle: %w", err)
	}
	b.battleID.Store(uint64(row.ID))
	b.deps.Logger.Info().Str("battle", battle.ID).Uint("rowId", row.ID).Msg("Battle row created")
	return nil
}

// EndBattle flushes the queues and writes the outcome row.
func (b *Backend) EndBattle(o *core.Outcome) error {
	id := b.currentBattle()
	if id == 0 {
		return storage.ErrNoBattle
	}

	flushErr := b.Flush()

	row := convert.CoreToOutcome(*o)
	row.BattleID = id
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return errors.Join(flushErr, fmt.Errorf("failed to insert outcome: %w", err))
	}
	return flushErr
}

// AddArmy inserts an army with its squads and units in one transaction.
// Rosters are small, so this is not queued.
func (b *Backend) AddArmy(a *core.ArmyRecord) error {
	id := b.currentBattle()
	if id == 0 {
		return storage.ErrNoBattle
	}

	army := convert.CoreToArmy(*a)
	army.BattleID = id
	squads := convert.CoreToSquads(*a)
	for i := range squads {
		squads[i].BattleID = id
	}
	units := convert.CoreToUnits(*a)
	for i := range units {
		units[i].BattleID = id
	}

	return b.deps.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&army).Error; err != nil {
			return fmt.Errorf("failed to insert army %s: %w", a.Name, err)
		}
		if len(squads) > 0 {
			if err := tx.Create(&squads).Error; err != nil {
				return fmt.Errorf("failed to insert squads of %s: %w", a.Name, err)
			}
		}
		if len(units) > 0 {
			if err := tx.CreateInBatches(&units, b.deps.BatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert units of %s: %w", a.Name, err)
			}
		}
		return nil
	})
}

// RecordAttack converts and queues an attack.
func (b *Backend) RecordAttack(e *core.AttackEvent) error {
	id := b.currentBattle()
	if id == 0 {
		return storage.ErrNoBattle
	}
	row := convert.CoreToAttackEvent(*e)
	row.BattleID = id
	b.queues.Attacks.Push(row)
	return nil
}

// RecordUnitDestroyed converts and queues a unit loss.
func (b *Backend) RecordUnitDestroyed(e *core.UnitDestroyedEvent) error {
	id := b.currentBattle()
	if id == 0 {
		return storage.ErrNoBattle
	}
	row := convert.CoreToUnitDestroyedEvent(*e)
	row.BattleID = id
	b.queues.Destroyed.Push(row)
	return nil
}

// RecordSquadState converts and queues a squad state transition.
func (b *Backend) RecordSquadState(e *core.SquadStateEvent) error {
	id := b.currentBattle()
	if id == 0 {
		return storage.ErrNoBattle
	}
	row := convert.CoreToSquadStateEvent(*e)
	row.BattleID = id
	b.queues.SquadStates.Push(row)
	return nil
}

// RecordStatus converts and queues an army status sample.
func (b *Backend) RecordStatus(s *core.ArmyStatus) error {
	id := b.currentBattle()
	if id == 0 {
		return storage.ErrNoBattle
	}
	row := convert.CoreToArmyStatus(*s)
	row.BattleID = id
	b.queues.Status.Push(row)
	return nil
}

// Pending returns the number of queued rows not yet written.
func (b *Backend) Pending() int {
	return b.queues.Attacks.Len() + b.queues.Destroyed.Len() + b.queues.SquadStates.Len() + b.queues.Status.Len()
}

// Flush writes every queue to the database. Rows of a queue that failed to
// write are put back for the next attempt.
func (b *Backend) Flush() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	log := b.deps.Logger
	size := b.deps.BatchSize
	return errors.Join(
		writeQueue(b.deps.DB, b.queues.Attacks, "attack events", size, log),
		writeQueue(b.deps.DB, b.queues.Destroyed, "unit destroyed events", size, log),
		writeQueue(b.deps.DB, b.queues.SquadStates, "squad state events", size, log),
		writeQueue(b.deps.DB, b.queues.Status, "army statuses", size, log),
	)
}

func (b *Backend) currentBattle() uint {
	return uint(b.battleID.Load())
}

// writeQueue writes all items from a queue to the database in a transaction.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, batchSize int, log zerolog.Logger) error {
	items := q.Drain()
	if len(items) == 0 {
		return nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&items, batchSize).Error
	})
	if err != nil {
		log.Error().Err(err).Str("queue", name).Int("count", len(items)).Msg("Error writing queue")
		q.Requeue(items...)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// startDBWriter starts the background goroutine that periodically drains
// queues into the DB.
func (b *Backend) startDBWriter() {
	ticker := b.deps.Clock.NewTicker(b.deps.FlushInterval)
	stop, done := b.stop, b.done

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				start := b.deps.Clock.Now()
				if err := b.Flush(); err != nil {
					continue
				}
				b.deps.Logger.Trace().Dur("duration", b.deps.Clock.Since(start)).Msg("DB write cycle complete")
			}
		}
	}()
}
