package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
)

// Bolt is a KV backed by a bbolt file, one bucket per namespace.
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt store: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Put(_ context.Context, ns, key string, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(ns))
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", ns, err)
		}
		return bucket.Put([]byte(key), value)
	})
}

func (b *Bolt) Get(_ context.Context, ns, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ns))
		if bucket == nil {
			return kerrors.ErrNotFound
		}
		v := bucket.Get([]byte(key))
		if v == nil {
			return kerrors.ErrNotFound
		}
		// Values are only valid inside the transaction.
		value = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		if errors.Is(err, kerrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", kerrors.ErrNotFound, ns, key)
		}
		return nil, err
	}
	return value, nil
}

func (b *Bolt) Delete(_ context.Context, ns, key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ns))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
}

func (b *Bolt) Keys(_ context.Context, ns string) ([]string, error) {
	var keys []string
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ns))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func (b *Bolt) Drop(_ context.Context, ns string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		err := tx.DeleteBucket([]byte(ns))
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
