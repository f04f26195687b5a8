// Package env reads configuration defaults from environment variables.
package env

import (
	"os"
	"strconv"
	"strings"
)

// GetIntEnv returns the integer value of the environment variable key, or fallback if it is unset, blank or
// not an integer.
func GetIntEnv(key string, fallback int) int {
	if strVal, ok := LookupEnv(key); ok {
		if val, err := strconv.Atoi(strVal); err == nil {
			return val
		}
	}

	return fallback
}

// GetPositiveIntEnv behaves like GetIntEnv, but also falls back when the value is zero or negative.
func GetPositiveIntEnv(key string, fallback int) int {
	if val := GetIntEnv(key, fallback); val > 0 {
		return val
	}

	return fallback
}

// LookupEnv behaves the same as `os.LookupEnv`, but additionally trims spaces in the value.
func LookupEnv(key string) (string, bool) {
	if key == "" {
		return "", false
	}

	val, ok := os.LookupEnv(key)
	val = strings.TrimSpace(val)

	isPresent := ok && val != ""

	return val, isPresent
}
