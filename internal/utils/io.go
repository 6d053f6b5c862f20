package utils

import (
	"bytes"
	"fmt"
	"io"
)

// ReadSecret reads r to the end and drops one trailing newline, so that
// `echo secret | credvault set` stores "secret".
func ReadSecret(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	data = bytes.TrimSuffix(data, []byte("\n"))
	data = bytes.TrimSuffix(data, []byte("\r"))
	if len(data) == 0 {
		return nil, fmt.Errorf("secret is empty")
	}
	return data, nil
}
