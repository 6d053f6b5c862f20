// Package utils provides shared helpers for the credvault CLI.
//
// # Input
//
//   - ReadSecret: read a piped secret
//   - ReadHiddenFromTTY: read a PIN or secret from the terminal without echo
//   - IsTerminal, IsTTYAvailable: terminal detection
//
// # Names
//
//   - ValidateService, ValidateUsername: reject names the stores cannot
//     keep apart
//   - FormatList: bulleted output
//   - GetUsername: the current OS user, the default username
package utils
