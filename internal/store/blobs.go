package store

import (
	"context"
	"errors"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
)

// BlobStore persists encoded ciphertext under the service namespace.
type BlobStore struct {
	kv KV
}

func NewBlobStore(kv KV) *BlobStore {
	return &BlobStore{kv: kv}
}

func (s *BlobStore) Put(ctx context.Context, service, username, blob string) error {
	return s.kv.Put(ctx, service, username, []byte(blob))
}

// Get returns the blob and whether it exists.
func (s *BlobStore) Get(ctx context.Context, service, username string) (string, bool, error) {
	v, err := s.kv.Get(ctx, service, username)
	if errors.Is(err, kerrors.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(v), true, nil
}

func (s *BlobStore) Delete(ctx context.Context, service, username string) error {
	return s.kv.Delete(ctx, service, username)
}

// Usernames lists every username with a stored blob.
func (s *BlobStore) Usernames(ctx context.Context, service string) ([]string, error) {
	return s.kv.Keys(ctx, service)
}

// Clear removes the service namespace.
func (s *BlobStore) Clear(ctx context.Context, service string) error {
	return s.kv.Drop(ctx, service)
}
