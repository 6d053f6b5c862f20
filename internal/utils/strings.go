package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PolarWolf314/credvault/internal/ui"
)

// metadataSuffix mirrors the suffix the store adds for metadata namespaces.
const metadataSuffix = ".metadata"

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// FormatList formats items into a readable bulleted string.
func FormatList(items []string) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString("    - ")
		b.WriteString(ui.Highlight.Sprint(item))
		b.WriteString("\n")
	}
	return b.String()
}

// ValidateService rejects service names that are empty, contain control
// characters, or would collide with another service's metadata namespace.
func ValidateService(service string) error {
	if strings.TrimSpace(service) == "" {
		return fmt.Errorf("service name is empty")
	}
	if controlChars.MatchString(service) {
		return fmt.Errorf("service name contains control characters")
	}
	if strings.HasSuffix(service, metadataSuffix) {
		return fmt.Errorf("service name must not end in %q", metadataSuffix)
	}
	return nil
}

// ValidateUsername rejects usernames that are empty or contain control
// characters.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("username is empty")
	}
	if controlChars.MatchString(username) {
		return fmt.Errorf("username contains control characters")
	}
	return nil
}
