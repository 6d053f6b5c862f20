package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/credvault/internal/audit"
	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/gate"
	"github.com/PolarWolf314/credvault/internal/policy"
	"github.com/PolarWolf314/credvault/internal/vault"
)

// Audit operation names.
const (
	OpSet     = "set"
	OpGet     = "get"
	OpList    = "list"
	OpRemove  = "remove"
	OpPurge   = "purge"
	OpPIN     = "pin"
	OpMigrate = "migrate"
)

func outcome(err error) string {
	if err == nil {
		return audit.OutcomeOK
	}
	return kerrors.Code(err)
}

// SetOptions configures Set.
type SetOptions struct {
	Service  string
	Username string
	Secret   []byte
	Level    policy.SecurityLevel
}

// Set stores a secret, replacing any previous entry.
func (r *Runtime) Set(ctx context.Context, opts SetOptions) error {
	key := vault.CredentialKey{Service: opts.Service, Username: opts.Username}
	err := r.Vault.SetCredential(ctx, key, opts.Secret, opts.Level)

	entry := audit.Entry{
		Operation: OpSet,
		Outcome:   outcome(err),
		Service:   opts.Service,
		Username:  opts.Username,
	}
	if opts.Level.Valid() {
		entry.Level = opts.Level.String()
	}
	r.Audit.Record(entry)
	return err
}

// GetOptions configures Get.
type GetOptions struct {
	Service  string
	Username string

	// Subtitle and Description override the configured prompt text.
	Subtitle    string
	Description string

	// OnAttemptFailed is called after each rejected attempt.
	OnAttemptFailed func(attempt int)
}

// Get decrypts a secret, prompting for user presence when its level
// requires it. The caller should wipe the returned slice.
func (r *Runtime) Get(ctx context.Context, opts GetOptions) ([]byte, error) {
	key := vault.CredentialKey{Service: opts.Service, Username: opts.Username}

	prompt := r.prompt(opts)
	var secret []byte
	var err error
	select {
	case res := <-r.Vault.GetCredentialAsync(ctx, key, prompt):
		secret, err = res.Secret, res.Err
	case <-ctx.Done():
		err = fmt.Errorf("%w: %v", kerrors.ErrFailedToAccess, ctx.Err())
	}

	r.Audit.Record(audit.Entry{
		Operation: OpGet,
		Outcome:   outcome(err),
		Service:   opts.Service,
		Username:  opts.Username,
	})
	return secret, err
}

func (r *Runtime) prompt(opts GetOptions) gate.Prompt {
	prompt := r.Config.GatePrompt()
	if opts.Subtitle != "" {
		prompt.Subtitle = opts.Subtitle
	}
	if opts.Description != "" {
		prompt.Description = opts.Description
	}
	if prompt.Subtitle == "" {
		prompt.Subtitle = fmt.Sprintf("Unlock %s for %s", opts.Service, opts.Username)
	}
	prompt.OnAttemptFailed = opts.OnAttemptFailed
	return prompt
}

// ListEntry describes one stored credential. It never carries the secret.
type ListEntry struct {
	Username       string               `json:"username"`
	Level          policy.SecurityLevel `json:"sLevel"`
	HardwareBacked bool                 `json:"hardwareBacked"`

	// Incomplete marks entries whose metadata is missing.
	Incomplete bool `json:"incomplete,omitempty"`
}

// List returns the stored usernames of service with their levels.
func (r *Runtime) List(ctx context.Context, service string) ([]ListEntry, error) {
	names, err := r.Vault.Usernames(ctx, service)
	if err != nil {
		r.Audit.Record(audit.Entry{Operation: OpList, Outcome: outcome(err), Service: service})
		return nil, err
	}

	entries := make([]ListEntry, 0, len(names))
	for _, name := range names {
		entry := ListEntry{
			Username:       name,
			HardwareBacked: r.Vault.IsHardwareBacked(ctx, vault.CredentialKey{Service: service, Username: name}),
		}
		meta, ok, err := r.metadata.Get(ctx, service, name)
		switch {
		case err != nil:
			r.log.Warnf("Failed to read metadata for %s/%s: %v", service, name, err)
			entry.Incomplete = true
		case !ok:
			entry.Incomplete = true
		default:
			entry.Level = meta.Level
		}
		entries = append(entries, entry)
	}

	r.Audit.Record(audit.Entry{Operation: OpList, Outcome: audit.OutcomeOK, Service: service, Count: len(entries)})
	return entries, nil
}

// Remove deletes one credential. Removing a missing credential succeeds.
func (r *Runtime) Remove(ctx context.Context, service, username string) error {
	err := r.Vault.RemoveCredential(ctx, vault.CredentialKey{Service: service, Username: username})
	r.Audit.Record(audit.Entry{
		Operation: OpRemove,
		Outcome:   outcome(err),
		Service:   service,
		Username:  username,
	})
	return err
}

// Purge deletes every credential of service and returns how many stored
// credentials there were.
func (r *Runtime) Purge(ctx context.Context, service string) (int, error) {
	names, err := r.Vault.Usernames(ctx, service)
	if err == nil {
		err = r.Vault.RemoveCredentials(ctx, service)
	}

	r.Audit.Record(audit.Entry{
		Operation: OpPurge,
		Outcome:   outcome(err),
		Service:   service,
		Count:     len(names),
	})
	if err != nil {
		return 0, err
	}
	return len(names), nil
}
