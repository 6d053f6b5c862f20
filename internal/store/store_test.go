package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/policy"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()

	bolt, err := OpenBolt(filepath.Join(dir, "vault.db"))
	require.NoError(t, err)
	sqlite, err := OpenSQLite(filepath.Join(dir, "vault.sqlite"))
	require.NoError(t, err)

	kvs := map[string]KV{
		"memory": NewMemory(),
		"bolt":   bolt,
		"sqlite": sqlite,
	}
	t.Cleanup(func() {
		for _, kv := range kvs {
			kv.Close()
		}
	})
	return kvs
}

func TestKV_PutGetDelete(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := kv.Get(ctx, "mail", "alice")
			assert.ErrorIs(t, err, kerrors.ErrNotFound)

			require.NoError(t, kv.Put(ctx, "mail", "alice", []byte("one")))
			require.NoError(t, kv.Put(ctx, "mail", "alice", []byte("two")))
			got, err := kv.Get(ctx, "mail", "alice")
			require.NoError(t, err)
			assert.Equal(t, "two", string(got))

			require.NoError(t, kv.Delete(ctx, "mail", "alice"))
			require.NoError(t, kv.Delete(ctx, "mail", "alice"))
			require.NoError(t, kv.Delete(ctx, "nowhere", "alice"))
			_, err = kv.Get(ctx, "mail", "alice")
			assert.ErrorIs(t, err, kerrors.ErrNotFound)
		})
	}
}

func TestKV_KeysAndDrop(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, kv.Put(ctx, "mail", "carol", []byte("c")))
			require.NoError(t, kv.Put(ctx, "mail", "alice", []byte("a")))
			require.NoError(t, kv.Put(ctx, "mail.metadata", "alice", []byte("m")))
			require.NoError(t, kv.Put(ctx, "bank", "bob", []byte("b")))

			keys, err := kv.Keys(ctx, "mail")
			require.NoError(t, err)
			assert.Equal(t, []string{"alice", "carol"}, keys)

			require.NoError(t, kv.Drop(ctx, "mail"))
			require.NoError(t, kv.Drop(ctx, "mail"))

			keys, err = kv.Keys(ctx, "mail")
			require.NoError(t, err)
			assert.Empty(t, keys)

			keys, err = kv.Keys(ctx, "mail.metadata")
			require.NoError(t, err)
			assert.Equal(t, []string{"alice"}, keys, "dropping a namespace leaves others alone")

			_, err = kv.Get(ctx, "bank", "bob")
			assert.NoError(t, err)
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("redis", t.TempDir())
	assert.ErrorIs(t, err, kerrors.ErrUnsupportedBackend)
}

func TestOpen_KnownBackends(t *testing.T) {
	for _, backend := range []string{BackendMemory, BackendBolt, BackendSQLite} {
		kv, err := Open(backend, t.TempDir())
		require.NoError(t, err, backend)
		require.NoError(t, kv.Close())
	}
}

func TestBolt_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.db")
	ctx := context.Background()

	b, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, b.Put(ctx, "mail", "alice", []byte("blob")))
	require.NoError(t, b.Close())

	b, err = OpenBolt(path)
	require.NoError(t, err)
	defer b.Close()
	got, err := b.Get(ctx, "mail", "alice")
	require.NoError(t, err)
	assert.Equal(t, "blob", string(got))
}

func TestMetadata_JSON(t *testing.T) {
	data, err := json.Marshal(Metadata{Level: policy.L3UserPresence})
	require.NoError(t, err)
	assert.JSONEq(t, `{"sLevel":"L3_UserPresence"}`, string(data))

	var m Metadata
	require.NoError(t, json.Unmarshal([]byte(`{"strategy":"StrongUserPresence"}`), &m))
	assert.Equal(t, policy.L4Biometrics, m.Level)

	require.NoError(t, json.Unmarshal([]byte(`{"sLevel":"L2_DeviceUnlocked"}`), &m))
	assert.Equal(t, policy.L2DeviceUnlocked, m.Level)

	assert.ErrorIs(t, json.Unmarshal([]byte(`{}`), &m), kerrors.ErrInvalidLevel)

	_, err = json.Marshal(Metadata{})
	assert.Error(t, err)
}

func TestMetadataStore(t *testing.T) {
	kv := NewMemory()
	s := NewMetadataStore(kv)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "mail", "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "mail", "alice", Metadata{Level: policy.L4Biometrics}))
	m, ok, err := s.Get(ctx, "mail", "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, policy.L4Biometrics, m.Level)

	raw, err := kv.Get(ctx, "mail.metadata", "alice")
	require.NoError(t, err)
	assert.JSONEq(t, `{"sLevel":"L4_Biometrics"}`, string(raw))

	require.NoError(t, kv.Put(ctx, "mail.metadata", "bob", []byte("not json")))
	_, _, err = s.Get(ctx, "mail", "bob")
	assert.Error(t, err)

	require.NoError(t, s.Clear(ctx, "mail"))
	_, ok, err = s.Get(ctx, "mail", "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBlobStore(t *testing.T) {
	s := NewBlobStore(NewMemory())
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "mail", "bob", "YmxvYg=="))
	require.NoError(t, s.Put(ctx, "mail", "alice", "YQ=="))

	blob, ok, err := s.Get(ctx, "mail", "bob")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "YmxvYg==", blob)

	names, err := s.Usernames(ctx, "mail")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, names)

	require.NoError(t, s.Delete(ctx, "mail", "bob"))
	_, ok, err = s.Get(ctx, "mail", "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Clear(ctx, "mail"))
	names, err = s.Usernames(ctx, "mail")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMetadataStore_Migrate(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := NewMetadataStore(kv)
			ctx := context.Background()

			require.NoError(t, kv.Put(ctx, "mail.metadata", "alice", []byte(`{"strategy":"PinUserPresence"}`)))
			require.NoError(t, kv.Put(ctx, "mail.metadata", "bob", []byte(`{"strategy":"StrongUserPresence"}`)))
			require.NoError(t, s.Put(ctx, "mail", "carol", Metadata{Level: policy.L2DeviceUnlocked}))

			n, err := s.Migrate(ctx, "mail")
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			raw, err := kv.Get(ctx, "mail.metadata", "alice")
			require.NoError(t, err)
			assert.JSONEq(t, `{"sLevel":"L3_UserPresence"}`, string(raw))

			raw, err = kv.Get(ctx, "mail.metadata", "bob")
			require.NoError(t, err)
			assert.JSONEq(t, `{"sLevel":"L4_Biometrics"}`, string(raw))

			n, err = s.Migrate(ctx, "mail")
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestMetadataStore_MigrateUnknownStrategy(t *testing.T) {
	kv := NewMemory()
	s := NewMetadataStore(kv)
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "mail.metadata", "alice", []byte(`{"strategy":"Telepathy"}`)))
	_, err := s.Migrate(ctx, "mail")
	assert.Error(t, err)
}
