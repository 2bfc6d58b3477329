// Package storage provides the local key-value media the ledger snapshots
// and preferences are persisted to.
package storage

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

// KV is a string key-value store. Get returns ErrKeyNotFound for a key that
// was never written or has been deleted.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
