// Package env reads raw environment overrides for the few values needed
// before the typed config is loaded, such as the logger's output format.
package env

import "os"

// Get returns the named environment variable, or fallback when it is unset
// or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
