package history

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config selects and locates a ledger backend.
type Config struct {
	// Backend is one of "json", "sqlite" or "postgres".
	Backend string
	// Path of the JSON or SQLite file.
	Path string
	// DSN of the Postgres database.
	DSN string
	// LockTTL is the age after which a file lock counts as abandoned.
	LockTTL time.Duration
}

// Backend bundles an opened store with the lock that guards it.
type Backend struct {
	Store  Store
	Locker Locker
	close  func() error
}

func (b Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Backend {
	case "", "json":
		if cfg.Path == "" {
			return Backend{}, errors.New("json history needs a path")
		}
		return Backend{
			Store:  NewJSONFile(cfg.Path),
			Locker: FileLock{Path: cfg.Path + ".lock", TTL: cfg.LockTTL},
		}, nil

	case "sqlite":
		s, err := NewSQLite(cfg.Path)
		if err != nil {
			return Backend{}, err
		}
		return Backend{
			Store:  s,
			Locker: FileLock{Path: cfg.Path + ".lock", TTL: cfg.LockTTL},
			close:  s.Close,
		}, nil

	case "postgres":
		if cfg.DSN == "" {
			return Backend{}, errors.New("postgres history needs a DSN")
		}
		s, err := NewPostgres(ctx, cfg.DSN)
		if err != nil {
			return Backend{}, err
		}
		return Backend{Store: s, Locker: s, close: s.Close}, nil
	}
	return Backend{}, fmt.Errorf("unknown history backend %q", cfg.Backend)
}
