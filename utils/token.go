package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateStateToken returns a random URL-safe token for the OAuth state
// parameter.
func GenerateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
