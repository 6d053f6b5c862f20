package store

import (
	"context"
	"fmt"
	"path/filepath"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
)

// KV is a namespaced key-value store. Each individual Put is atomic; there
// are no transactions across calls.
type KV interface {
	// Put writes value under key in namespace ns, replacing any old value.
	Put(ctx context.Context, ns, key string, value []byte) error

	// Get returns kerrors.ErrNotFound when the key is absent.
	Get(ctx context.Context, ns, key string) ([]byte, error)

	// Delete removes key. Deleting an absent key succeeds.
	Delete(ctx context.Context, ns, key string) error

	// Keys lists the keys in ns in ascending order.
	Keys(ctx context.Context, ns string) ([]string, error)

	// Drop removes the whole namespace. Dropping an absent namespace succeeds.
	Drop(ctx context.Context, ns string) error

	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
)

// Open creates the KV backend by name. File backends keep their database
// under dir.
func Open(backend, dir string) (KV, error) {
	switch backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendBolt:
		return OpenBolt(filepath.Join(dir, "vault.db"))
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dir, "vault.sqlite"))
	default:
		return nil, fmt.Errorf("%w: store %q", kerrors.ErrUnsupportedBackend, backend)
	}
}
