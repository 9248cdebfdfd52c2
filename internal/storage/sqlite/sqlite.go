// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend; the only SQLite-specific concerns are creating
// the in-memory DB and dumping it to disk.
package sqlitestorage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/OCAP2/battlesim/internal/database"
	gormstorage "github.com/OCAP2/battlesim/internal/storage/gorm"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
	Settings     any
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg   Config
	log   zerolog.Logger
	clock clockwork.Clock
	stop  chan struct{}
	done  chan struct{}
}

// New creates a new SQLite storage backend.
func New(cfg Config, log zerolog.Logger, clock clockwork.Clock) (*Backend, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	db, err := database.GetSqliteDB("", log)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:       db,
		Logger:   log,
		Clock:    clock,
		Settings: cfg.Settings,
	})

	return &Backend{
		Backend: gormBackend,
		cfg:     cfg,
		log:     log,
		clock:   clock,
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" {
		if err := os.MkdirAll(filepath.Dir(b.cfg.DumpPath), 0755); err != nil {
			return fmt.Errorf("failed to create dump directory: %w", err)
		}
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.stop = make(chan struct{})
		b.done = make(chan struct{})
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine, flushes the embedded GORM backend and
// writes a final dump.
func (b *Backend) Close() error {
	if b.stop != nil {
		close(b.stop)
		<-b.done
		b.stop = nil
	}

	if err := b.Backend.Close(); err != nil {
		return err
	}

	if b.cfg.DumpPath == "" {
		return nil
	}
	return b.Dump()
}

// Dump writes a point-in-time snapshot of the database to DumpPath.
func (b *Backend) Dump() error {
	return database.DumpMemoryDBToDisk(b.DB(), b.cfg.DumpPath, b.log)
}

// ExportedFilePath returns the dump path once a dump exists.
func (b *Backend) ExportedFilePath() string {
	if b.cfg.DumpPath == "" {
		return ""
	}
	if _, err := os.Stat(b.cfg.DumpPath); err != nil {
		return ""
	}
	return b.cfg.DumpPath
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer close(b.done)

	ticker := b.clock.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.Chan():
			if err := b.Flush(); err != nil {
				b.log.Warn().Err(err).Msg("Flush before dump failed")
			}
			if err := b.Dump(); err != nil {
				b.log.Error().Err(err).Msg("Error dumping to disk")
			}
		}
	}
}
