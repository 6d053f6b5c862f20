package gate

import "github.com/PolarWolf314/credvault/internal/policy"

const (
	DefaultTitle          = "Authenticate"
	DefaultNegativeButton = "Cancel"
)

// Prompt carries the text and options shown for a check.
type Prompt struct {
	Title                string
	Subtitle             string
	Description          string
	NegativeButtonText   string
	ConfirmationRequired bool

	// Authenticators restricts which classes may answer. The vault sets it
	// from the key's requirements.
	Authenticators policy.Authenticator

	// OnAttemptFailed is called with the 1-based attempt number after each
	// failed attempt that still allows a retry.
	OnAttemptFailed func(attempt int)
}

// WithDefaults fills unset fields. The negative button is dropped when a
// device credential may answer, since the credential screen provides its
// own way out.
func (p Prompt) WithDefaults() Prompt {
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	if p.Authenticators.Allows(policy.DeviceCredential) {
		p.NegativeButtonText = ""
	} else if p.NegativeButtonText == "" {
		p.NegativeButtonText = DefaultNegativeButton
	}
	return p
}

func (p Prompt) attemptFailed(attempt int) {
	if p.OnAttemptFailed != nil {
		p.OnAttemptFailed(attempt)
	}
}
