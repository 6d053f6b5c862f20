package errors

import "errors"

// Vault errors are the kinds surfaced at the vault boundary. Every error
// returned by the vault wraps exactly one of them.
var (
	// ErrMissingParameters indicates a required identity or secret argument was absent.
	ErrMissingParameters = errors.New("some parameters were missing")

	// ErrNoData indicates the credential does not exist or is incomplete.
	ErrNoData = errors.New("the credentials don't yet exist")

	// ErrFailedToAccess indicates the user-presence check was denied, canceled or failed.
	ErrFailedToAccess = errors.New("failed to access the keystore")

	// ErrUnavailable indicates the requested security level cannot be satisfied on this device.
	ErrUnavailable = errors.New("security level unavailable on this device")

	// ErrUnknown indicates an underlying storage or crypto fault.
	ErrUnknown = errors.New("something went wrong")
)

// Cryptographic errors indicate failures inside the codec or key provider.
var (
	// ErrDecryptionFailed indicates a blob could not be decoded with the given key.
	ErrDecryptionFailed = errors.New("failed to decrypt blob")

	// ErrEncryptionFailed indicates a plaintext could not be encoded.
	ErrEncryptionFailed = errors.New("failed to encrypt plaintext")

	// ErrKeyGenerationFailed indicates the key provider could not satisfy the key spec.
	ErrKeyGenerationFailed = errors.New("failed to generate key")

	// ErrUserAuthRequired indicates the key needs a valid authorized session before use.
	ErrUserAuthRequired = errors.New("user authentication required to use key")

	// ErrKeyExpired indicates the key is past its validity end.
	ErrKeyExpired = errors.New("key has expired")

	// ErrKeyNotYetValid indicates the key is before its validity start.
	ErrKeyNotYetValid = errors.New("key is not yet valid")

	// ErrInvalidPrivateKey indicates stored key material is malformed or unsupported.
	ErrInvalidPrivateKey = errors.New("invalid or unsupported private key format")
)

// Input and storage errors.
var (
	// ErrInvalidLevel indicates a security level identifier was not recognised.
	ErrInvalidLevel = errors.New("invalid security level")

	// ErrNotFound indicates a stored record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidConfig indicates the configuration file is malformed.
	ErrInvalidConfig = errors.New("configuration is invalid")

	// ErrUnsupportedBackend indicates the configured store or keystore backend is unknown.
	ErrUnsupportedBackend = errors.New("unsupported backend")

	// ErrInvalidDateFormat indicates a date filter is not YYYY-MM-DD.
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrNoAuditLog indicates no audit log exists yet.
	ErrNoAuditLog = errors.New("no audit log found")
)

// Error codes reported in result envelopes.
const (
	CodeMissingParameters = "missingParameters"
	CodeNoData            = "no data"
	CodeFailedToAccess    = "failedToAccess"
	CodeUnavailable       = "unavailable"
	CodeUnknown           = "unknown"
)

var kinds = []struct {
	err  error
	code string
}{
	{ErrMissingParameters, CodeMissingParameters},
	{ErrNoData, CodeNoData},
	{ErrFailedToAccess, CodeFailedToAccess},
	{ErrUnavailable, CodeUnavailable},
	{ErrUnknown, CodeUnknown},
}

// Kind returns the vault error kind err wraps, or ErrUnknown.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.err
		}
	}
	return ErrUnknown
}

// Code returns the envelope code for err. A nil error has no code.
func Code(err error) string {
	if err == nil {
		return ""
	}
	kind := Kind(err)
	for _, k := range kinds {
		if k.err == kind {
			return k.code
		}
	}
	return CodeUnknown
}

// Is, As and New mirror the standard library so callers importing this
// package under its own name do not need both.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func New(text string) error { return errors.New(text) }

// Message returns the text reported alongside the code. It is the full
// error chain so the cause stays visible to the caller.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
