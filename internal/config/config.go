// Package config loads the Auth Manager's configuration record from
// environment variables, following the teacher's plain os.Getenv
// pattern rather than a reflection-based config loader.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/streamspace-dev/forgeauth/internal/auth"
)

// FromEnv builds an auth.Config from environment variables, falling
// back to auth.DefaultConfig() for anything unset.
func FromEnv() auth.Config {
	cfg := auth.DefaultConfig()

	cfg.SecretKey = os.Getenv("FORGEAUTH_SECRET_KEY")

	if hours := getEnvInt("FORGEAUTH_DEFAULT_LIFETIME_HOURS", 0); hours > 0 {
		cfg.DefaultLifetime = time.Duration(hours) * time.Hour
	}
	if hours := getEnvInt("FORGEAUTH_REFRESH_LIFETIME_HOURS", 0); hours > 0 {
		cfg.RefreshLifetime = time.Duration(hours) * time.Hour
	}
	if n := getEnvInt("FORGEAUTH_MAX_FAILED_ATTEMPTS", 0); n > 0 {
		cfg.MaxFailedAttempts = n
	}
	if minutes := getEnvInt("FORGEAUTH_LOCKOUT_DURATION_MINUTES", 0); minutes > 0 {
		cfg.LockoutDuration = time.Duration(minutes) * time.Minute
	}
	if hours := getEnvInt("FORGEAUTH_TOKEN_LIFETIME_HOURS", 0); hours > 0 {
		cfg.TokenLifetimeHours = &hours
	}
	cfg.EnableAuth = getEnvBool("FORGEAUTH_ENABLE_AUTH", true)

	return cfg
}

// WorkspaceFromEnv returns the workspace directory to use: flagValue if
// non-empty, else FORGEAUTH_WORKSPACE, else the current directory.
func WorkspaceFromEnv(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("FORGEAUTH_WORKSPACE"); v != "" {
		return v
	}
	return "."
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// LogLevelFromEnv returns the zerolog level string to initialize the
// ambient logger with.
func LogLevelFromEnv() string {
	if v := os.Getenv("FORGEAUTH_LOG_LEVEL"); v != "" {
		return v
	}
	return "info"
}
