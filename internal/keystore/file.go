package keystore

import (
	"context"
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/PolarWolf314/credvault/internal/configs"
	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/gate"
	logger "github.com/PolarWolf314/credvault/internal/logging"
	"github.com/PolarWolf314/credvault/internal/policy"
	"github.com/PolarWolf314/credvault/internal/secrets"
)

const (
	masterKeyFile   = "master.key"
	sealedKeyFile   = "key.sealed"
	keyMetadataFile = "metadata.toml"
)

// keyRecord is the metadata.toml written next to each sealed key.
type keyRecord struct {
	Alias     string         `toml:"alias"`
	CreatedAt time.Time      `toml:"created_at"`
	PublicKey string         `toml:"public_key"`
	Spec      policy.KeySpec `toml:"spec"`
}

// FileProvider is a software keystore on disk. Each alias gets its own
// directory holding the private key sealed under a master key. The keys
// enforce the same auth and validity rules as a hardware keystore but are
// never reported as hardware backed.
type FileProvider struct {
	dir     string
	sealKey []byte
	log     logger.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewFileProvider opens the keystore under dir, creating it and its master
// key on first use.
func NewFileProvider(dir string, log logger.Logger) (*FileProvider, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}

	masterPath := filepath.Join(dir, masterKeyFile)
	sealKey, err := os.ReadFile(masterPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		sealKey, err = secrets.CreateSealKey()
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(masterPath, sealKey, 0600); err != nil {
			return nil, fmt.Errorf("failed to write master key: %w", err)
		}
		log.Infof("Created keystore master key at %s", masterPath)
	case err != nil:
		return nil, fmt.Errorf("failed to read master key: %w", err)
	case len(sealKey) != secrets.SealKeySize:
		return nil, fmt.Errorf("%w: master key has %d bytes", kerrors.ErrInvalidPrivateKey, len(sealKey))
	}

	return &FileProvider{dir: dir, sealKey: sealKey, log: log}, nil
}

// SetClock replaces the time source used for validity checks.
func (p *FileProvider) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

func (p *FileProvider) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// keyDir maps an alias onto a directory name safe for any username.
func (p *FileProvider) keyDir(alias string) string {
	return filepath.Join(p.dir, base64.RawURLEncoding.EncodeToString([]byte(alias)))
}

func (p *FileProvider) CreateKey(ctx context.Context, alias string, spec policy.KeySpec) (*KeyHandle, error) {
	if err := checkSpec(spec); err != nil {
		return nil, err
	}
	if err := p.DeleteKey(ctx, alias); err != nil {
		p.log.Warnf("Failed to delete previous key %s: %v", alias, err)
	}

	key, err := secrets.GenerateRSAKey(spec.Bits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyGenerationFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sealed, err := secrets.SealPrivateKey(key, p.sealKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyGenerationFailed, err)
	}
	pubPEM, err := secrets.MarshalPublicKeyPEM(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyGenerationFailed, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	record := keyRecord{
		Alias:     alias,
		CreatedAt: p.clock().UTC(),
		PublicKey: string(pubPEM),
		Spec:      spec,
	}

	dir := p.keyDir(alias)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyGenerationFailed, err)
	}
	if err := os.WriteFile(filepath.Join(dir, sealedKeyFile), sealed, 0600); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: failed to write sealed key: %v", kerrors.ErrKeyGenerationFailed, err)
	}
	if err := configs.SaveTOML(filepath.Join(dir, keyMetadataFile), record); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: failed to write key metadata: %v", kerrors.ErrKeyGenerationFailed, err)
	}

	p.log.Debugf("Created %d-bit key %s for %s in %s", spec.Bits, alias, spec.Level, dir)
	return &KeyHandle{
		Alias:     alias,
		Spec:      spec,
		Public:    &key.PublicKey,
		CreatedAt: record.CreatedAt,
	}, nil
}

func (p *FileProvider) GetKey(_ context.Context, alias string) (*KeyHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadHandle(alias)
}

func (p *FileProvider) loadHandle(alias string) (*KeyHandle, error) {
	path := filepath.Join(p.keyDir(alias), keyMetadataFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	var record keyRecord
	if err := configs.LoadTOML(path, &record); err != nil {
		return nil, fmt.Errorf("failed to load key metadata for %s: %w", alias, err)
	}
	if record.Alias != alias {
		return nil, fmt.Errorf("%w: key metadata for %s names %s", kerrors.ErrInvalidPrivateKey, alias, record.Alias)
	}
	pub, err := secrets.ParsePublicKeyPEM([]byte(record.PublicKey))
	if err != nil {
		return nil, err
	}

	return &KeyHandle{
		Alias:     alias,
		Spec:      record.Spec,
		Public:    pub,
		CreatedAt: record.CreatedAt,
	}, nil
}

func (p *FileProvider) DeleteKey(_ context.Context, alias string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := os.RemoveAll(p.keyDir(alias)); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", alias, err)
	}
	return nil
}

func (p *FileProvider) IsHardwareBacked(context.Context, string) bool {
	return false
}

func (p *FileProvider) Decrypter(_ context.Context, alias string, session *gate.Session) (crypto.Decrypter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	handle, err := p.loadHandle(alias)
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, fmt.Errorf("%w: key %s", kerrors.ErrNotFound, alias)
	}
	if err := authorize(handle, session, p.clock()); err != nil {
		return nil, err
	}

	sealed, err := os.ReadFile(filepath.Join(p.keyDir(alias), sealedKeyFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read sealed key for %s: %w", alias, err)
	}
	key, err := secrets.OpenPrivateKey(sealed, p.sealKey)
	if err != nil {
		return nil, err
	}
	return decrypter{key: key}, nil
}
