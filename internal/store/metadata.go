package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/policy"
)

// MetadataSuffix is appended to the service name to form the metadata
// namespace.
const MetadataSuffix = ".metadata"

// Metadata records which level protects an entry.
type Metadata struct {
	Level policy.SecurityLevel
}

// metadataRecord is the persisted form. Older records carry a strategy
// name instead of a level.
type metadataRecord struct {
	Level    string `json:"sLevel,omitempty"`
	Strategy string `json:"strategy,omitempty"`
}

// MarshalJSON writes {"sLevel": "<level>"}.
func (m Metadata) MarshalJSON() ([]byte, error) {
	if !m.Level.Valid() {
		return nil, fmt.Errorf("%w: %d", kerrors.ErrInvalidLevel, int(m.Level))
	}
	return json.Marshal(metadataRecord{Level: m.Level.String()})
}

// UnmarshalJSON accepts both level and strategy records.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var rec metadataRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	name := rec.Level
	if name == "" {
		name = rec.Strategy
	}
	level, err := policy.ParseLevel(name)
	if err != nil {
		return err
	}
	m.Level = level
	return nil
}

// MetadataStore persists Metadata under service + MetadataSuffix.
type MetadataStore struct {
	kv KV
}

func NewMetadataStore(kv KV) *MetadataStore {
	return &MetadataStore{kv: kv}
}

func namespace(service string) string {
	return service + MetadataSuffix
}

func (s *MetadataStore) Put(ctx context.Context, service, username string, m Metadata) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, namespace(service), username, data)
}

// Get returns the metadata and whether it exists.
func (s *MetadataStore) Get(ctx context.Context, service, username string) (Metadata, bool, error) {
	data, err := s.kv.Get(ctx, namespace(service), username)
	if errors.Is(err, kerrors.ErrNotFound) {
		return Metadata{}, false, nil
	}
	if err != nil {
		return Metadata{}, false, err
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, false, fmt.Errorf("corrupt metadata for %s/%s: %w", service, username, err)
	}
	return m, true, nil
}

func (s *MetadataStore) Delete(ctx context.Context, service, username string) error {
	return s.kv.Delete(ctx, namespace(service), username)
}

// Usernames lists every username with a metadata record.
func (s *MetadataStore) Usernames(ctx context.Context, service string) ([]string, error) {
	return s.kv.Keys(ctx, namespace(service))
}

// Clear removes the metadata namespace for service.
func (s *MetadataStore) Clear(ctx context.Context, service string) error {
	return s.kv.Drop(ctx, namespace(service))
}
