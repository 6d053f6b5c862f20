package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Migrate rewrites metadata records that still name a strategy into level
// records. It returns how many records were rewritten. Records that
// already carry a level are left untouched, so running it twice is safe.
func (s *MetadataStore) Migrate(ctx context.Context, service string) (int, error) {
	names, err := s.Usernames(ctx, service)
	if err != nil {
		return 0, err
	}

	migrated := 0
	for _, name := range names {
		data, err := s.kv.Get(ctx, namespace(service), name)
		if err != nil {
			return migrated, err
		}

		var rec metadataRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return migrated, fmt.Errorf("corrupt metadata for %s/%s: %w", service, name, err)
		}
		if rec.Level != "" || rec.Strategy == "" {
			continue
		}

		var m Metadata
		if err := json.Unmarshal(data, &m); err != nil {
			return migrated, fmt.Errorf("cannot migrate %s/%s: %w", service, name, err)
		}
		if err := s.Put(ctx, service, name, m); err != nil {
			return migrated, err
		}
		migrated++
	}
	return migrated, nil
}
