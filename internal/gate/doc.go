// Package gate implements user-presence checks.
//
// A Gate turns a Request into either a Session, which key providers accept
// as proof of a recent check, or a terminal error: ErrDenied when the user
// declined or was locked out, ErrCanceled when the caller gave up. Failed
// attempts that still allow a retry only invoke Prompt.OnAttemptFailed.
//
// Authorize is a blocking call honouring its context. Async wraps it in a
// one-shot channel for callers that must not block.
//
// TerminalGate checks a PIN enrolled as an argon2id Credential. Scripted,
// Allow and DenyAll exist for tests.
package gate
