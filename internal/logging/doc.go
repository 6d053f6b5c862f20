// Package logger provides leveled logging for credvault.
//
// The logger supports multiple verbosity levels controlled by command-line
// flags. Output is prefixed and coloured with fatih/color.
//
// # Verbosity Levels
//
//   - --verbose: Shows info messages
//   - --debug: Shows info and debug messages
//
// Warnings and errors are always printed.
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Created key for %s", alias)
//
// The vault, key providers and workflows receive a Logger by value. Secret
// material is never passed to a log method.
package logger
