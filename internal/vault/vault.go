package vault

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/gate"
	"github.com/PolarWolf314/credvault/internal/keystore"
	logger "github.com/PolarWolf314/credvault/internal/logging"
	"github.com/PolarWolf314/credvault/internal/policy"
	"github.com/PolarWolf314/credvault/internal/secrets"
	"github.com/PolarWolf314/credvault/internal/store"
)

// CredentialKey identifies one vault entry.
type CredentialKey struct {
	Service  string
	Username string
}

// Alias derives the key provider alias for k. Dots and backslashes inside
// service and username are escaped, so distinct keys never share an alias.
func (k CredentialKey) Alias(appID string) string {
	return appID + "." + aliasEscaper.Replace(k.Service) + "." + aliasEscaper.Replace(k.Username)
}

var aliasEscaper = strings.NewReplacer(`\`, `\\`, ".", `\.`)

func (k CredentialKey) String() string {
	return k.Service + "/" + k.Username
}

// MetadataStore persists the level protecting each entry.
type MetadataStore interface {
	Put(ctx context.Context, service, username string, m store.Metadata) error
	Get(ctx context.Context, service, username string) (store.Metadata, bool, error)
	Delete(ctx context.Context, service, username string) error
	Usernames(ctx context.Context, service string) ([]string, error)
	Clear(ctx context.Context, service string) error
}

// BlobStore persists the encoded ciphertext of each entry.
type BlobStore interface {
	Put(ctx context.Context, service, username, blob string) error
	Get(ctx context.Context, service, username string) (string, bool, error)
	Delete(ctx context.Context, service, username string) error
	Usernames(ctx context.Context, service string) ([]string, error)
	Clear(ctx context.Context, service string) error
}

// Config wires a Vault. Keys, Metadata, Blobs and Device are required.
type Config struct {
	AppID    string
	Keys     keystore.Provider
	Metadata MetadataStore
	Blobs    BlobStore
	Device   policy.Device

	// Gate answers checks for L3 and L4 entries. Without one every gated
	// read is denied.
	Gate gate.Gate

	// Policy defaults to policy.DefaultPolicy.
	Policy *policy.Policy
	Logger logger.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Vault stores secrets, each under its own key at a chosen security level.
// Operations on different entries may run concurrently. Concurrent writes
// and reads of the same entry must be serialized by the caller.
type Vault struct {
	appID    string
	keys     keystore.Provider
	metadata MetadataStore
	blobs    BlobStore
	device   policy.Device
	gate     gate.Gate
	policy   policy.Policy
	log      logger.Logger
	now      func() time.Time
}

// New validates cfg and returns a Vault.
func New(cfg Config) (*Vault, error) {
	if cfg.Keys == nil || cfg.Metadata == nil || cfg.Blobs == nil || cfg.Device == nil {
		return nil, fmt.Errorf("%w: vault needs a key provider, both stores and a device", kerrors.ErrInvalidConfig)
	}

	p := policy.DefaultPolicy()
	if cfg.Policy != nil {
		p = *cfg.Policy
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	v := &Vault{
		appID:    cfg.AppID,
		keys:     cfg.Keys,
		metadata: cfg.Metadata,
		blobs:    cfg.Blobs,
		device:   cfg.Device,
		gate:     cfg.Gate,
		policy:   p,
		log:      cfg.Logger,
		now:      cfg.Now,
	}
	if v.gate == nil {
		v.gate = gate.DenyAll()
	}
	if v.now == nil {
		v.now = time.Now
	}
	return v, nil
}

func wrap(kind, cause error) error {
	return fmt.Errorf("%w: %v", kind, cause)
}

func checkKey(key CredentialKey) error {
	if err := checkService(key.Service); err != nil {
		return err
	}
	if key.Username == "" {
		return fmt.Errorf("%w: username", kerrors.ErrMissingParameters)
	}
	return nil
}

// checkService rejects names that would alias another service's metadata
// namespace.
func checkService(service string) error {
	switch {
	case service == "":
		return fmt.Errorf("%w: service", kerrors.ErrMissingParameters)
	case strings.HasSuffix(service, store.MetadataSuffix):
		return fmt.Errorf("%w: service %q ends in reserved suffix %q", kerrors.ErrMissingParameters, service, store.MetadataSuffix)
	}
	return nil
}

// SetCredential stores secret under key at level, replacing any existing
// entry. The entry's previous key is destroyed, so older ciphertext is
// unrecoverable. If the entry cannot be fully written it is removed
// rather than left half written.
//
// An empty secret is rejected with ErrMissingParameters even though the
// codec can encode zero bytes. Services ending in store.MetadataSuffix are
// rejected the same way.
func (v *Vault) SetCredential(ctx context.Context, key CredentialKey, secret []byte, level policy.SecurityLevel) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if len(secret) == 0 {
		return fmt.Errorf("%w: secret", kerrors.ErrMissingParameters)
	}
	if !level.Valid() {
		return fmt.Errorf("%w: security level", kerrors.ErrMissingParameters)
	}

	if max := v.MaxSupportedLevel(ctx); !policy.CanUseLevel(level, max) {
		return fmt.Errorf("%w: %s requested, device supports up to %s", kerrors.ErrUnavailable, level, max)
	}

	alias := key.Alias(v.appID)
	handle, err := v.keys.CreateKey(ctx, alias, v.policy.KeySpec(level, v.now()))
	if err != nil {
		return wrap(kerrors.ErrUnknown, err)
	}
	v.log.Debugf("Created key for %s at %s", key, level)

	blob, err := secrets.Encode(handle.Public, secret)
	if err != nil {
		v.rollback(ctx, key)
		return wrap(kerrors.ErrUnknown, err)
	}
	if err := v.metadata.Put(ctx, key.Service, key.Username, store.Metadata{Level: level}); err != nil {
		v.rollback(ctx, key)
		return wrap(kerrors.ErrUnknown, err)
	}
	if err := v.blobs.Put(ctx, key.Service, key.Username, blob); err != nil {
		v.rollback(ctx, key)
		return wrap(kerrors.ErrUnknown, err)
	}

	v.log.Infof("Stored credential %s at %s", key, level)
	return nil
}

// rollback removes whatever part of an entry a failed write left behind.
func (v *Vault) rollback(ctx context.Context, key CredentialKey) {
	// The caller's context may be what failed the write.
	ctx = context.WithoutCancel(ctx)
	if err := v.remove(ctx, key); err != nil {
		v.log.Warnf("Failed to clean up partial credential %s: %v", key, err)
		return
	}
	v.log.Debugf("Rolled back partial credential %s", key)
}

// GetCredential decrypts the secret stored under key. L3 and L4 entries
// block on the gate first, honouring ctx. The caller owns the returned
// slice and should wipe it when done.
func (v *Vault) GetCredential(ctx context.Context, key CredentialKey, prompt gate.Prompt) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	meta, ok, err := v.metadata.Get(ctx, key.Service, key.Username)
	if err != nil {
		return nil, wrap(kerrors.ErrUnknown, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: no metadata for %s", kerrors.ErrNoData, key)
	}

	alias := key.Alias(v.appID)
	handle, err := v.keys.GetKey(ctx, alias)
	if err != nil {
		return nil, wrap(kerrors.ErrUnknown, err)
	}
	if handle == nil {
		return nil, fmt.Errorf("%w: no key for %s", kerrors.ErrNoData, key)
	}

	blob, ok, err := v.blobs.Get(ctx, key.Service, key.Username)
	if err != nil {
		return nil, wrap(kerrors.ErrUnknown, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: no blob for %s", kerrors.ErrNoData, key)
	}

	var session *gate.Session
	if policy.NeedsGate(meta.Level) {
		prompt.Authenticators = handle.Spec.Authenticators
		if prompt.Authenticators == 0 {
			prompt.Authenticators = policy.RequirementsFor(meta.Level).Authenticators
		}
		v.log.Debugf("Requesting user presence for %s at %s", key, meta.Level)

		session, err = v.gate.Authorize(ctx, gate.Request{Alias: alias, Prompt: prompt.WithDefaults()})
		if err != nil {
			return nil, gateError(err)
		}
	}

	dec, err := v.keys.Decrypter(ctx, alias, session)
	switch {
	case errors.Is(err, kerrors.ErrUserAuthRequired):
		return nil, wrap(kerrors.ErrFailedToAccess, err)
	case errors.Is(err, kerrors.ErrNotFound):
		return nil, wrap(kerrors.ErrNoData, err)
	case err != nil:
		return nil, wrap(kerrors.ErrUnknown, err)
	}

	secret, err := secrets.Decode(dec, blob)
	if err != nil {
		return nil, wrap(kerrors.ErrUnknown, err)
	}
	return secret, nil
}

// gateError maps a gate outcome onto the vault taxonomy. Anything the user
// or the host did is FailedToAccess, the rest is Unknown.
func gateError(err error) error {
	switch {
	case errors.Is(err, gate.ErrDenied),
		errors.Is(err, gate.ErrCanceled),
		errors.Is(err, gate.ErrNoAuthenticator),
		errors.Is(err, gate.ErrNoCredential),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		// The gate sentinel stays matchable with errors.Is.
		return fmt.Errorf("%w: %w", kerrors.ErrFailedToAccess, err)
	default:
		return wrap(kerrors.ErrUnknown, err)
	}
}

// GetResult is the value delivered by GetCredentialAsync.
type GetResult struct {
	Secret []byte
	Err    error
}

// GetCredentialAsync runs GetCredential without blocking the caller. The
// channel is buffered and receives exactly one result. Cancel ctx to
// abandon a pending gate.
func (v *Vault) GetCredentialAsync(ctx context.Context, key CredentialKey, prompt gate.Prompt) <-chan GetResult {
	out := make(chan GetResult, 1)
	go func() {
		secret, err := v.GetCredential(ctx, key, prompt)
		out <- GetResult{Secret: secret, Err: err}
	}()
	return out
}

// Usernames lists the usernames with a stored blob under service.
func (v *Vault) Usernames(ctx context.Context, service string) ([]string, error) {
	if err := checkService(service); err != nil {
		return nil, err
	}
	names, err := v.blobs.Usernames(ctx, service)
	if err != nil {
		return nil, wrap(kerrors.ErrUnknown, err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// RemoveCredential deletes the entry's key, metadata and blob. Each part is
// removed independently and missing parts are not an error.
func (v *Vault) RemoveCredential(ctx context.Context, key CredentialKey) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := v.remove(ctx, key); err != nil {
		return wrap(kerrors.ErrUnknown, err)
	}
	v.log.Infof("Removed credential %s", key)
	return nil
}

func (v *Vault) remove(ctx context.Context, key CredentialKey) error {
	return errors.Join(
		v.keys.DeleteKey(ctx, key.Alias(v.appID)),
		v.metadata.Delete(ctx, key.Service, key.Username),
		v.blobs.Delete(ctx, key.Service, key.Username),
	)
}

// RemoveCredentials removes every entry under service, then clears the
// service's containers.
func (v *Vault) RemoveCredentials(ctx context.Context, service string) error {
	if err := checkService(service); err != nil {
		return err
	}

	names, err := v.serviceUsernames(ctx, service)
	if err != nil {
		return wrap(kerrors.ErrUnknown, err)
	}

	var errs []error
	for _, name := range names {
		if err := v.remove(ctx, CredentialKey{Service: service, Username: name}); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, v.blobs.Clear(ctx, service), v.metadata.Clear(ctx, service))

	if err := errors.Join(errs...); err != nil {
		return wrap(kerrors.ErrUnknown, err)
	}
	v.log.Infof("Removed %d credentials for %s", len(names), service)
	return nil
}

// serviceUsernames is every username with a blob or metadata, so keys of
// half-written entries are removed too.
func (v *Vault) serviceUsernames(ctx context.Context, service string) ([]string, error) {
	blobNames, err := v.blobs.Usernames(ctx, service)
	if err != nil {
		return nil, err
	}
	metaNames, err := v.metadata.Usernames(ctx, service)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(blobNames)+len(metaNames))
	var names []string
	for _, name := range append(blobNames, metaNames...) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (v *Vault) capabilities(ctx context.Context) policy.Capabilities {
	caps, err := v.device.Capabilities(ctx)
	if err != nil {
		v.log.Warnf("Failed to query device capabilities: %v", err)
		return policy.Capabilities{}
	}
	return caps
}

// MaxSupportedLevel queries the device and returns the highest level it
// can satisfy right now.
func (v *Vault) MaxSupportedLevel(ctx context.Context) policy.SecurityLevel {
	return policy.MaxSupportedLevel(v.capabilities(ctx))
}

// CanUseLevel reports whether the device can satisfy level right now.
func (v *Vault) CanUseLevel(ctx context.Context, level policy.SecurityLevel) bool {
	return level.Valid() && policy.CanUseLevel(level, v.MaxSupportedLevel(ctx))
}

// AvailableStrategies lists the named strategies the device can satisfy.
func (v *Vault) AvailableStrategies(ctx context.Context) []policy.Strategy {
	return policy.AvailableStrategies(v.capabilities(ctx))
}

// SupportedBiometricSensors reports the device's advertised sensors.
func (v *Vault) SupportedBiometricSensors(ctx context.Context) policy.Sensors {
	sensors, err := v.device.Sensors(ctx)
	if err != nil {
		v.log.Warnf("Failed to query biometric sensors: %v", err)
		return policy.Sensors{}
	}
	return sensors
}

// IsHardwareBacked reports whether the entry's key lives in secure
// hardware.
func (v *Vault) IsHardwareBacked(ctx context.Context, key CredentialKey) bool {
	return v.keys.IsHardwareBacked(ctx, key.Alias(v.appID))
}
