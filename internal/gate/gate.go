package gate

import (
	"context"
	"errors"
	"time"

	"github.com/PolarWolf314/credvault/internal/policy"
)

var (
	// ErrDenied indicates the user declined the prompt or was locked out.
	ErrDenied = errors.New("user presence check denied")

	// ErrCanceled indicates the request was abandoned before the user answered.
	ErrCanceled = errors.New("user presence check canceled")

	// ErrNoAuthenticator indicates the gate cannot offer any of the
	// authenticators the prompt allows.
	ErrNoAuthenticator = errors.New("no allowed authenticator available")
)

// Gate performs a user-presence check. Authorize blocks until the request
// reaches a terminal outcome or ctx is done. Failed attempts that still
// allow a retry are reported through Prompt.OnAttemptFailed and never end
// the request.
type Gate interface {
	Authorize(ctx context.Context, req Request) (*Session, error)
}

// Request asks for a session that unlocks the key under Alias.
type Request struct {
	Alias  string
	Prompt Prompt
}

// Session is proof of a successful check. Key providers accept it for the
// alias it was granted for, within the key's auth validity window.
type Session struct {
	ID            string
	Alias         string
	Authenticator policy.Authenticator
	GrantedAt     time.Time
}

// ValidFor reports whether s authorizes a key under alias that accepts
// allowed authenticators for validity after the grant.
func (s *Session) ValidFor(alias string, allowed policy.Authenticator, validity time.Duration, now time.Time) bool {
	if s == nil || s.Alias != alias {
		return false
	}
	if !allowed.Allows(s.Authenticator) {
		return false
	}
	if now.Before(s.GrantedAt) {
		return false
	}
	return now.Sub(s.GrantedAt) <= validity
}

// Outcome is the single value delivered by Async.
type Outcome struct {
	Session *Session
	Err     error
}

// Async runs Authorize on its own goroutine. The returned channel is
// buffered and receives exactly one Outcome, so the caller may stop
// listening without leaking the goroutine.
func Async(ctx context.Context, g Gate, req Request) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		session, err := g.Authorize(ctx, req)
		out <- Outcome{Session: session, Err: err}
	}()
	return out
}

// Func adapts a function to the Gate interface.
type Func func(ctx context.Context, req Request) (*Session, error)

func (f Func) Authorize(ctx context.Context, req Request) (*Session, error) {
	return f(ctx, req)
}
