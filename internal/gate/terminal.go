package gate

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	logger "github.com/PolarWolf314/credvault/internal/logging"
	"github.com/PolarWolf314/credvault/internal/policy"
)

// DefaultMaxAttempts is the number of wrong PINs before lockout.
const DefaultMaxAttempts = 5

// PINReader reads one PIN without echoing it. An empty PIN means the user
// backed out.
type PINReader func(prompt string) ([]byte, error)

// TerminalGate answers checks with the device credential typed at a
// terminal. It cannot offer biometrics, so prompts that only allow
// biometric authenticators fail with ErrNoAuthenticator.
type TerminalGate struct {
	Credential  Credential
	ReadPIN     PINReader
	MaxAttempts int

	// Out receives the prompt text. Defaults to io.Discard.
	Out    io.Writer
	Logger logger.Logger

	now func() time.Time
}

type pinResult struct {
	pin []byte
	err error
}

func (g *TerminalGate) Authorize(ctx context.Context, req Request) (*Session, error) {
	prompt := req.Prompt.WithDefaults()
	if !prompt.Authenticators.Allows(policy.DeviceCredential) {
		return nil, fmt.Errorf("%w: terminal offers %s, prompt allows %s",
			ErrNoAuthenticator, policy.DeviceCredential, prompt.Authenticators)
	}
	if !g.Credential.Enrolled() {
		return nil, ErrNoCredential
	}
	if g.ReadPIN == nil {
		return nil, fmt.Errorf("terminal gate has no PIN reader")
	}

	g.showPrompt(prompt)

	maxAttempts := g.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCanceled, err)
		}

		// The reader goroutine is abandoned on cancel and exits once the
		// terminal delivers a line.
		results := make(chan pinResult, 1)
		go func() {
			pin, err := g.ReadPIN("PIN: ")
			results <- pinResult{pin: pin, err: err}
		}()

		var r pinResult
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrCanceled, ctx.Err())
		case r = <-results:
		}
		if r.err != nil {
			return nil, fmt.Errorf("failed to read PIN: %w", r.err)
		}
		if len(r.pin) == 0 {
			return nil, fmt.Errorf("%w: user backed out", ErrDenied)
		}

		ok, err := g.Credential.Verify(r.pin)
		wipe(r.pin)
		if err != nil {
			return nil, err
		}
		if ok {
			g.Logger.Debugf("PIN accepted for %s on attempt %d", req.Alias, attempt)
			return &Session{
				ID:            uuid.NewString(),
				Alias:         req.Alias,
				Authenticator: policy.DeviceCredential,
				GrantedAt:     g.clock(),
			}, nil
		}

		if attempt < maxAttempts {
			g.Logger.Debugf("PIN rejected for %s, attempt %d of %d", req.Alias, attempt, maxAttempts)
			fmt.Fprintln(g.out(), "Incorrect PIN, try again.")
			prompt.attemptFailed(attempt)
		}
	}

	return nil, fmt.Errorf("%w: too many failed attempts", ErrDenied)
}

func (g *TerminalGate) showPrompt(p Prompt) {
	w := g.out()
	fmt.Fprintln(w, p.Title)
	if p.Subtitle != "" {
		fmt.Fprintln(w, p.Subtitle)
	}
	if p.Description != "" {
		fmt.Fprintln(w, p.Description)
	}
	fmt.Fprintln(w, "Enter your PIN, or leave it empty to cancel.")
}

func (g *TerminalGate) out() io.Writer {
	if g.Out != nil {
		return g.Out
	}
	return io.Discard
}

func (g *TerminalGate) clock() time.Time {
	if g.now != nil {
		return g.now()
	}
	return time.Now()
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
