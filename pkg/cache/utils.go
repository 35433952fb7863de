package cache

import "strings"

// GenerateKey joins prefix parts and an id with ':'.
func GenerateKey(parts ...string) string {
	return strings.Join(parts, ":")
}
