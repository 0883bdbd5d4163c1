// Package sanitize implements the defense-in-depth input sanitizer:
// agent-name normalization, recursive JSON scrubbing, markdown XSS
// defense, filename hardening, and a sliding-window rate limiter. Limiter
// owns the rate-limit map; the statistics counters are package-level and
// every sanitizer function (and a denied Limiter check) updates them.
package sanitize

import (
	"sync"

	"github.com/streamspace-dev/forgeauth/internal/logger"
)

const (
	// MaxAgentNameLength is the longest accepted agent identifier.
	MaxAgentNameLength = 64
	// MaxPayloadBytes is the largest serialized JSON payload accepted.
	MaxPayloadBytes = 10 * 1024 * 1024
	// MaxStringLength is the longest accepted single string value.
	MaxStringLength = 100_000
	// MaxURLLength is the longest accepted URL inside a markdown link.
	MaxURLLength = 2048
	// DefaultMaxDepth is the default recursion limit for sanitize_json.
	DefaultMaxDepth = 10
)

// AllowedURLSchemes is the allowlist applied to markdown link targets.
var AllowedURLSchemes = map[string]struct{}{
	"http":   {},
	"https":  {},
	"ftp":    {},
	"mailto": {},
	"tel":    {},
}

// Stats tracks package-wide sanitization counters, mirrored from the
// original get_sanitization_stats() contract.
type Stats struct {
	TotalSanitizations int64 `json:"total_sanitizations"`
	BlockedAttempts    int64 `json:"blocked_attempts"`
	ModifiedInputs     int64 `json:"modified_inputs"`
}

// counters is the process-wide statistics store, guarded by countersMu.
// It is package-level because sanitize_agent_name/json/markdown are
// pure functions by contract (no sanitizer instance is threaded through
// every call site), matching the spec's "stateless functions plus
// counters" shape.
var (
	countersMu sync.Mutex
	counters   Stats
)

func bumpTotal() {
	countersMu.Lock()
	counters.TotalSanitizations++
	countersMu.Unlock()
}

func bumpBlocked() {
	countersMu.Lock()
	counters.BlockedAttempts++
	countersMu.Unlock()
	logger.Sanitize().Warn().Msg("blocked a sanitization attempt")
}

func bumpModified() {
	countersMu.Lock()
	counters.ModifiedInputs++
	countersMu.Unlock()
}

// GetStats returns a snapshot of the current sanitization counters.
func GetStats() Stats {
	countersMu.Lock()
	defer countersMu.Unlock()
	return counters
}

// ResetStats zeroes the counters; exposed for test isolation.
func ResetStats() {
	countersMu.Lock()
	counters = Stats{}
	countersMu.Unlock()
}
