package sanitize

import (
	"regexp"
	"strings"

	"github.com/streamspace-dev/forgeauth/internal/apperr"
)

var agentNameAllowed = regexp.MustCompile(`[^A-Za-z0-9_-]`)
var agentNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// AgentName trims, truncates to MaxAgentNameLength, and strips every
// character outside [A-Za-z0-9_-]. An empty result becomes
// "unknown_agent"; if the cleaned string still fails the pattern
// (should not happen given the strip above, but guards future changes)
// it fails with InvalidInput.
func AgentName(s string) (string, error) {
	bumpTotal()

	trimmed := strings.TrimSpace(s)
	modified := trimmed != s

	if len(trimmed) > MaxAgentNameLength {
		trimmed = trimmed[:MaxAgentNameLength]
		modified = true
	}

	cleaned := agentNameAllowed.ReplaceAllString(trimmed, "")
	if cleaned != trimmed {
		modified = true
	}

	if cleaned == "" {
		cleaned = "unknown_agent"
		modified = true
	}

	if !agentNamePattern.MatchString(cleaned) {
		bumpBlocked()
		return "", apperr.New(apperr.InvalidInput, "agent name contains disallowed characters after sanitization")
	}

	if modified {
		bumpModified()
	}
	return cleaned, nil
}
