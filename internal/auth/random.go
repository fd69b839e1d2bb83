package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecureRandom draws length cryptographically-random bytes and
// encodes them as lowercase hex, so the result is 2*length characters
func GenerateSecureRandom(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("random length must be positive, got %d", length)
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
