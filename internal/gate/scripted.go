package gate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PolarWolf314/credvault/internal/policy"
)

// Attempt is one scripted answer to a check.
type Attempt int

const (
	// Succeed grants a session.
	Succeed Attempt = iota
	// Fail is a non-terminal failed attempt, such as an unrecognised finger.
	Fail
	// Deny ends the request with ErrDenied.
	Deny
	// Block waits until the request's context is done.
	Block
)

// Scripted plays back a fixed sequence of attempts. Each Authorize call
// consumes attempts until one is terminal. When the script runs out the
// request blocks like Block. Scripted is safe for concurrent use.
type Scripted struct {
	// Authenticator is reported on granted sessions. Defaults to
	// BiometricStrong.
	Authenticator policy.Authenticator

	// Delay is slept before each attempt.
	Delay time.Duration

	mu       sync.Mutex
	attempts []Attempt
	calls    []Request
}

// NewScripted returns a gate answering with attempts in order.
func NewScripted(attempts ...Attempt) *Scripted {
	return &Scripted{attempts: attempts}
}

// Allow returns a gate that grants every request.
func Allow() Gate {
	return Func(func(_ context.Context, req Request) (*Session, error) {
		return grant(req.Alias, policy.BiometricStrong), nil
	})
}

// DenyAll returns a gate that denies every request.
func DenyAll() Gate {
	return Func(func(context.Context, Request) (*Session, error) {
		return nil, ErrDenied
	})
}

// Calls returns the requests seen so far.
func (s *Scripted) Calls() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.calls...)
}

func (s *Scripted) Authorize(ctx context.Context, req Request) (*Session, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	prompt := req.Prompt.WithDefaults()
	for attempt := 1; ; attempt++ {
		if s.Delay > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrCanceled, ctx.Err())
			case <-time.After(s.Delay):
			}
		}

		switch s.next() {
		case Succeed:
			auth := s.Authenticator
			if auth == 0 {
				auth = policy.BiometricStrong
			}
			if !prompt.Authenticators.Allows(auth) {
				return nil, fmt.Errorf("%w: %s not allowed", ErrNoAuthenticator, auth)
			}
			return grant(req.Alias, auth), nil
		case Fail:
			prompt.attemptFailed(attempt)
		case Deny:
			return nil, ErrDenied
		default:
			<-ctx.Done()
			return nil, fmt.Errorf("%w: %v", ErrCanceled, ctx.Err())
		}
	}
}

func (s *Scripted) next() Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.attempts) == 0 {
		return Block
	}
	a := s.attempts[0]
	s.attempts = s.attempts[1:]
	return a
}

func grant(alias string, auth policy.Authenticator) *Session {
	return &Session{
		ID:            uuid.NewString(),
		Alias:         alias,
		Authenticator: auth,
		GrantedAt:     time.Now(),
	}
}
