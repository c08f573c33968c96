// Package snapshot persists the last-known-good registry so that it can be
// served when every mirror is unreachable.
//
// Absence of a snapshot is an ordinary condition: Load reports it with an
// error matching ErrNotFound, and the same applies to a snapshot that cannot
// be read or decoded. Save always replaces the whole snapshot atomically.
package snapshot

import (
	"context"
	"errors"

	"github.com/stacklok/usb-ids-registry/internal/registry"
)

// ErrNotFound is returned by Load when no usable snapshot exists
var ErrNotFound = errors.New("snapshot not found")

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store

// Store reads and writes the registry snapshot
type Store interface {
	// Load returns the persisted registry or an error matching ErrNotFound
	Load(ctx context.Context) (registry.Registry, error)

	// Save replaces the persisted registry
	Save(ctx context.Context, reg registry.Registry) error

	// Location describes where the snapshot lives
	Location() string
}

// notFound wraps cause so that it matches ErrNotFound
func notFound(cause error) error {
	return errors.Join(ErrNotFound, cause)
}
