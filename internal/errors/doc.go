// Package errors provides typed error values for credvault.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
//   - Vault errors: the five kinds reported at the vault boundary
//     (ErrMissingParameters, ErrNoData, ErrFailedToAccess, ErrUnavailable,
//     ErrUnknown)
//   - Crypto errors: codec and key provider failures (ErrDecryptionFailed,
//     ErrUserAuthRequired)
//   - Input and storage errors (ErrInvalidLevel, ErrNotFound)
//
// # Usage
//
// The vault wraps the underlying cause with its kind:
//
//	return fmt.Errorf("%w: %v", kerrors.ErrUnknown, err)
//
// The boundary maps the kind to a wire code:
//
//	code := kerrors.Code(err) // "no data", "failedToAccess", ...
package errors
