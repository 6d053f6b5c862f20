package utils

import (
	"fmt"
	"os"
	"runtime"

	"golang.org/x/term"
)

func ttyPath() string {
	if runtime.GOOS == "windows" {
		return "CON"
	}
	return "/dev/tty"
}

// ReadHiddenFromTTY prompts on stderr and reads a line from /dev/tty (or CON
// on Windows) without echoing it. Reading the TTY directly leaves stdin
// free for piped secrets.
func ReadHiddenFromTTY(prompt string) ([]byte, error) {
	path := ttyPath()
	tty, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s for input: %w", path, err)
	}
	defer tty.Close()

	fd := int(tty.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%s is not a terminal", path)
	}

	fmt.Fprint(os.Stderr, prompt)
	input, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // Newline after hidden input.

	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return input, nil
}

// IsTerminal returns true if stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsTTYAvailable returns true if /dev/tty (or CON on Windows) can be read.
func IsTTYAvailable() bool {
	tty, err := os.Open(ttyPath())
	if err != nil {
		return false
	}
	defer tty.Close()

	return term.IsTerminal(int(tty.Fd()))
}
