package keystore

import (
	"context"
	"crypto"
	"crypto/rsa"
	"fmt"
	"sync"
	"time"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/gate"
	logger "github.com/PolarWolf314/credvault/internal/logging"
	"github.com/PolarWolf314/credvault/internal/policy"
	"github.com/PolarWolf314/credvault/internal/secrets"
)

type memoryKey struct {
	handle KeyHandle
	key    *rsa.PrivateKey
}

// MemoryProvider keeps keys in process memory. It simulates a hardware
// keystore, including the auth and validity checks, and reports its keys
// as hardware backed when HardwareBacked is set.
type MemoryProvider struct {
	HardwareBacked bool
	Logger         logger.Logger

	mu   sync.Mutex
	keys map[string]*memoryKey
	now  func() time.Time
}

// NewMemoryProvider returns an empty provider.
func NewMemoryProvider(log logger.Logger) *MemoryProvider {
	return &MemoryProvider{Logger: log, keys: make(map[string]*memoryKey)}
}

// SetClock replaces the time source used for validity checks.
func (p *MemoryProvider) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

func (p *MemoryProvider) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func (p *MemoryProvider) CreateKey(ctx context.Context, alias string, spec policy.KeySpec) (*KeyHandle, error) {
	if err := checkSpec(spec); err != nil {
		return nil, err
	}
	if err := p.DeleteKey(ctx, alias); err != nil {
		p.Logger.Warnf("Failed to delete previous key %s: %v", alias, err)
	}

	key, err := secrets.GenerateRSAKey(spec.Bits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyGenerationFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.keys == nil {
		p.keys = make(map[string]*memoryKey)
	}
	handle := KeyHandle{
		Alias:          alias,
		Spec:           spec,
		Public:         &key.PublicKey,
		CreatedAt:      p.clock(),
		HardwareBacked: p.HardwareBacked,
	}
	p.keys[alias] = &memoryKey{handle: handle, key: key}
	p.Logger.Debugf("Created %d-bit key %s for %s", spec.Bits, alias, spec.Level)

	out := handle
	return &out, nil
}

func (p *MemoryProvider) GetKey(_ context.Context, alias string) (*KeyHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k, ok := p.keys[alias]
	if !ok {
		return nil, nil
	}
	out := k.handle
	return &out, nil
}

func (p *MemoryProvider) DeleteKey(_ context.Context, alias string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.keys, alias)
	return nil
}

func (p *MemoryProvider) IsHardwareBacked(_ context.Context, alias string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	k, ok := p.keys[alias]
	return ok && k.handle.HardwareBacked
}

func (p *MemoryProvider) Decrypter(_ context.Context, alias string, session *gate.Session) (crypto.Decrypter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k, ok := p.keys[alias]
	if !ok {
		return nil, fmt.Errorf("%w: key %s", kerrors.ErrNotFound, alias)
	}
	if err := authorize(&k.handle, session, p.clock()); err != nil {
		return nil, err
	}
	return decrypter{key: k.key}, nil
}

// Aliases lists the aliases with a live key.
func (p *MemoryProvider) Aliases() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	aliases := make([]string, 0, len(p.keys))
	for alias := range p.keys {
		aliases = append(aliases, alias)
	}
	return aliases
}
