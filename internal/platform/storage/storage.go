// Package storage provides the persistence gateway used by the domain
// services. The gateway is a small key-value abstraction: each logical
// collection (patients, visits, settings) is stored as one JSON document
// under a well-known key, and the backing store is swappable between an
// in-memory map, JSON files on disk, Postgres and MongoDB.
package storage

import (
	"context"
	"errors"
)

// Logical keys recognized by the gateway.
const (
	KeyPatients = "patients"
	KeyVisits   = "visits"
	KeySettings = "settings"
)

// ErrNotFound is returned by Load when no value exists for the key.
var ErrNotFound = errors.New("storage: key not found")

// Gateway is the persistence interface the domain services depend on.
// Save is atomic per key: it either fully replaces the stored value or
// reports an error leaving the previous value intact.
type Gateway interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}
