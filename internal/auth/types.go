// Package auth implements token-based authentication and role-based
// authorization for software agents: signed capability tokens, durable
// token state, brute-force lockout, and an HMAC secret store.
package auth

import "time"

// Permission is a single grantable capability.
type Permission string

const (
	PermRead          Permission = "READ"
	PermWrite         Permission = "WRITE"
	PermExecute       Permission = "EXECUTE"
	PermAdmin         Permission = "ADMIN"
	PermCreateHandoff Permission = "CREATE_HANDOFF"
	PermReadHandoff   Permission = "READ_HANDOFF"
	PermDeleteHandoff Permission = "DELETE_HANDOFF"
	PermModifyConfig  Permission = "MODIFY_CONFIG"
	PermViewLogs      Permission = "VIEW_LOGS"
	PermManageTokens  Permission = "MANAGE_TOKENS"
)

// allPermissions is the fixed enumeration order used whenever a full
// permission set must be materialized (ADMIN role, serialization order).
var allPermissions = []Permission{
	PermRead, PermWrite, PermExecute, PermAdmin,
	PermCreateHandoff, PermReadHandoff, PermDeleteHandoff,
	PermModifyConfig, PermViewLogs, PermManageTokens,
}

// Role is a named, fixed permission set assigned to a newly minted token.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleOrchestrator Role = "ORCHESTRATOR"
	RoleSpecialist   Role = "SPECIALIST"
	RoleReviewer     Role = "REVIEWER"
	RoleObserver     Role = "OBSERVER"
	RoleGuest        Role = "GUEST"
)

// RolePermissions is the fixed role → permission-set table from the spec.
// Order matters: it is the order new tokens serialize their permissions in.
var RolePermissions = map[Role][]Permission{
	RoleAdmin: append([]Permission{}, allPermissions...),
	RoleOrchestrator: {
		PermRead, PermWrite, PermExecute,
		PermCreateHandoff, PermReadHandoff, PermDeleteHandoff,
		PermViewLogs,
	},
	RoleSpecialist: {
		PermRead, PermWrite, PermExecute,
		PermCreateHandoff, PermReadHandoff,
	},
	RoleReviewer: {
		PermRead, PermReadHandoff, PermViewLogs,
	},
	RoleObserver: {
		PermRead, PermViewLogs,
	},
	RoleGuest: {
		PermRead,
	},
}

// IsValidRole reports whether r names one of the fixed roles.
func IsValidRole(r Role) bool {
	_, ok := RolePermissions[r]
	return ok
}

// AgentToken is a signed capability referencing a role and permission set.
type AgentToken struct {
	AgentID       string                 `json:"agent_id"`
	Token         string                 `json:"token"`
	Role          Role                   `json:"role"`
	Permissions   []Permission           `json:"permissions"`
	CreatedAt     time.Time              `json:"created_at"`
	ExpiresAt     *time.Time             `json:"expires_at"`
	RefreshToken  string                 `json:"refresh_token,omitempty"`
	Metadata      map[string]interface{} `json:"metadata"`
	LastUsed      *time.Time             `json:"last_used"`
	UsageCount    int                    `json:"usage_count"`
}

// IsExpired reports whether the token has an expiry in the past.
// A nil ExpiresAt means the token never expires.
func (t *AgentToken) IsExpired(now time.Time) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return now.After(*t.ExpiresAt)
}

// HasPermission reports whether the token's permission set grants p.
func (t *AgentToken) HasPermission(p Permission) bool {
	for _, have := range t.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// Clone returns a deep-enough copy safe to hand to a caller outside the
// store's lock: permission slice and metadata map are copied, timestamps
// are value types or pointers to fresh copies.
func (t *AgentToken) Clone() *AgentToken {
	c := *t
	c.Permissions = append([]Permission{}, t.Permissions...)
	if t.ExpiresAt != nil {
		exp := *t.ExpiresAt
		c.ExpiresAt = &exp
	}
	if t.LastUsed != nil {
		lu := *t.LastUsed
		c.LastUsed = &lu
	}
	c.Metadata = make(map[string]interface{}, len(t.Metadata))
	for k, v := range t.Metadata {
		c.Metadata[k] = v
	}
	return &c
}
