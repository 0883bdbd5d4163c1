package auth

import "time"

// Config enumerates every recognized Auth Manager option explicitly,
// replacing the reflection/kwargs style the original used for
// configuration overrides.
type Config struct {
	// SecretKey, if non-empty, overrides loading/generating the secret
	// file and is used as the HMAC key directly (useful for tests).
	SecretKey string

	DefaultLifetime   time.Duration
	RefreshLifetime   time.Duration
	MaxFailedAttempts int
	LockoutDuration   time.Duration

	// TokenLifetimeHours, if set, overrides DefaultLifetime in hours;
	// nil means DefaultLifetime applies as-is.
	TokenLifetimeHours *int

	// EnableAuth gates whether authorization checks are enforced at
	// all; when false, every authorize call succeeds and handoff
	// operations skip the permission requirement (still sanitized and
	// rate-limited). Workspaces that disable auth are expected to be
	// single-tenant/test setups.
	EnableAuth bool
}

// DefaultConfig returns the Config a freshly initialized workspace uses
// absent overrides.
func DefaultConfig() Config {
	return Config{
		DefaultLifetime:   24 * time.Hour,
		RefreshLifetime:   7 * 24 * time.Hour,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		EnableAuth:        true,
	}
}

func (c Config) effectiveDefaultLifetime() time.Duration {
	if c.TokenLifetimeHours != nil {
		return time.Duration(*c.TokenLifetimeHours) * time.Hour
	}
	if c.DefaultLifetime > 0 {
		return c.DefaultLifetime
	}
	return 24 * time.Hour
}
