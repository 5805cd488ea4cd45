package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const sessionDuration = 7 * 24 * time.Hour

// GenerateSessionToken creates a cryptographically random session token
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// CalculateExpiry returns the expiry time for a new session
func CalculateExpiry() time.Time {
	return time.Now().Add(sessionDuration)
}
