// Package ui provides semantic text formatting for CLI output.
//
// Formatters render content by type (code, paths, services, levels) and
// adapt to the terminal. When colors are available, content is colorized.
// When NO_COLOR is set or the terminal doesn't support colors, text-based
// decorations are used instead:
//
//	ui.Code.Sprint("credvault pin set")    // `credvault pin set`
//	ui.Highlight.Sprint("mail")            // 'mail'
//	ui.Level.Sprint("L3_UserPresence")     // [L3_UserPresence]
//	ui.Muted.Sprint("not hardware backed") // (not hardware backed)
//
// Table prints aligned columns for list-style commands.
package ui
