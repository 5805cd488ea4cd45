package config

import "os"

// GetCookieSecure returns whether cookies should use the Secure flag.
// Defaults to false for development, true for production.
func GetCookieSecure() bool {
	if val := os.Getenv("GRIDBASE_COOKIE_SECURE"); val != "" {
		return val == "true"
	}
	return os.Getenv("GRIDBASE_ENVIRONMENT") == "production"
}
