// Package history persists the ledger of every product observed so far.
//
// The ledger is append-only from the engine's point of view: it is read whole at the start of
// a cycle and rewritten whole at the end. Retention or compaction is the business of whoever
// operates the store.
package history

import (
	"context"
	"errors"

	"github.com/geniass/airpods-dealz/pkg/product"
	"github.com/sirupsen/logrus"
)

var (
	// ErrCorrupt marks a stored ledger that cannot be decoded. Stores log it and read as empty.
	ErrCorrupt = errors.New("history is corrupt")

	// ErrLocked means another cycle holds the ledger.
	ErrLocked = errors.New("history is locked by another writer")
)

// Store reads and overwrites the ledger.
type Store interface {
	// Read returns the whole ledger in append order. A missing or corrupt ledger reads as empty.
	Read(ctx context.Context) ([]product.Product, error)

	// Write replaces the stored ledger with ledger.
	Write(ctx context.Context, ledger []product.Product) error
}

// Locker guards the read-compute-write sequence of a cycle. The returned unlock must be
// called on every exit path.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// swallowCorrupt turns a corrupt ledger into an empty one.
func swallowCorrupt(backend string, ledger []product.Product, err error) ([]product.Product, error) {
	if errors.Is(err, ErrCorrupt) {
		logrus.WithField("backend", backend).WithError(err).Warn("Ignoring corrupt history, starting from an empty ledger")
		return nil, nil
	}
	return ledger, err
}
