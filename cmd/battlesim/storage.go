package main

import (
	"fmt"

	"github.com/OCAP2/battlesim/internal/config"
	"github.com/OCAP2/battlesim/internal/storage"
	"github.com/OCAP2/battlesim/internal/storage/memory"
	pgstorage "github.com/OCAP2/battlesim/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/battlesim/internal/storage/sqlite"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// storageDeps carries what the database backends need besides their config.
type storageDeps struct {
	Logger   zerolog.Logger
	Clock    clockwork.Clock
	Settings any
}

func createStorageBackend(storageCfg config.StorageConfig, deps storageDeps) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		return pgstorage.New(pgstorage.Dependencies{
			DB:       config.GetDBConfig(),
			Logger:   deps.Logger,
			Settings: deps.Settings,
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     storageCfg.SQLite.Path,
			Settings:     deps.Settings,
		}, deps.Logger, deps.Clock)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		return backend, nil

	case "none":
		return storage.Nop{}, nil

	case "memory", "":
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}
