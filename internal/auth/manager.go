package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamspace-dev/forgeauth/internal/audit"
)

// Manager mints, verifies, and revokes agent tokens and owns the
// lockout state, the signing secret, and the Token Store / Audit Log
// handles exclusively — no other component writes to either.
type Manager struct {
	store  *TokenStore
	audit  *audit.Log
	secret []byte
	cfg    Config
	log    zerolog.Logger

	mu           sync.Mutex
	failedByAgent map[string][]time.Time

	// now is overridable in tests to exercise lockout-expiry and
	// lifetime boundaries without sleeping.
	now func() time.Time
}

// NewManager wires a Manager from its durable collaborators and config.
func NewManager(store *TokenStore, auditLog *audit.Log, secret string, cfg Config, log zerolog.Logger) *Manager {
	return &Manager{
		store:         store,
		audit:         auditLog,
		secret:        []byte(secret),
		cfg:           cfg,
		log:           log,
		failedByAgent: make(map[string][]time.Time),
		now:           time.Now,
	}
}

func (m *Manager) clock() time.Time { return m.now() }

func randomURLSafe(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (m *Manager) sign(raw string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// CreateTokenRequest enumerates the recognized options for minting a
// token, replacing kwargs-style optional-argument injection.
type CreateTokenRequest struct {
	AgentID           string
	Role              Role
	CustomPermissions []Permission
	Lifetime          *time.Duration
	Metadata          map[string]interface{}
}

// CreateToken mints, signs, and persists a new token for the request.
func (m *Manager) CreateToken(req CreateTokenRequest) (*AgentToken, error) {
	if strings.TrimSpace(req.AgentID) == "" {
		return nil, errInvalidInput("agent_id must not be empty")
	}
	if !IsValidRole(req.Role) {
		return nil, errInvalidInput(fmt.Sprintf("unknown role %q", req.Role))
	}

	raw, err := randomURLSafe(32)
	if err != nil {
		return nil, errStorageError("generate token randomness: " + err.Error())
	}
	sig := m.sign(raw)
	tokenStr := raw + "." + sig

	perms := req.CustomPermissions
	if perms == nil {
		perms = append([]Permission{}, RolePermissions[req.Role]...)
	}

	now := m.clock()
	var lifetime time.Duration
	var expiresAt *time.Time
	if req.Lifetime != nil {
		lifetime = *req.Lifetime
		if lifetime > 0 {
			exp := now.Add(lifetime)
			expiresAt = &exp
		}
	} else {
		lifetime = m.cfg.effectiveDefaultLifetime()
		exp := now.Add(lifetime)
		expiresAt = &exp
	}

	var refreshToken string
	if lifetime > time.Hour {
		refreshToken, err = randomURLSafe(32)
		if err != nil {
			return nil, errStorageError("generate refresh token: " + err.Error())
		}
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = make(map[string]interface{})
	}

	token := &AgentToken{
		AgentID:      req.AgentID,
		Token:        tokenStr,
		Role:         req.Role,
		Permissions:  perms,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
		RefreshToken: refreshToken,
		Metadata:     metadata,
		UsageCount:   0,
	}

	if err := m.store.Store(token); err != nil {
		return nil, err
	}

	if err := m.audit.Write(audit.Info, audit.TokenCreated, req.AgentID,
		audit.F("role", req.Role),
		audit.F("has_refresh", refreshToken != ""),
	); err != nil {
		return nil, errStorageError("write audit log: " + err.Error())
	}

	return token.Clone(), nil
}

// Authenticate verifies tokenStr's signature, looks it up in the
// Token Store, and returns it iff valid, unexpired, unrevoked, and the
// owning agent is not currently locked out. A non-nil error means the
// audit trail could not be written, not that the token is invalid.
func (m *Manager) Authenticate(tokenStr string) (*AgentToken, bool, error) {
	raw, sig, ok := splitToken(tokenStr)
	if !ok {
		if err := m.audit.Write(audit.Warning, audit.SuspiciousActivity, "unknown",
			audit.F("reason", "malformed_token")); err != nil {
			return nil, false, errStorageError("write audit log: " + err.Error())
		}
		return nil, false, nil
	}

	expected := m.sign(raw)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) != 1 {
		if err := m.audit.Write(audit.Warning, audit.SuspiciousActivity, "unknown",
			audit.F("reason", "invalid_signature")); err != nil {
			return nil, false, errStorageError("write audit log: " + err.Error())
		}
		return nil, false, nil
	}

	// Peek first so a locked-out agent's lookup never mutates usage
	// stats on a token it is forbidden from using.
	peeked, ok := m.store.Peek(tokenStr)
	if !ok {
		return nil, false, nil
	}
	if m.isLockedOutLocked(peeked.AgentID) {
		return nil, false, nil
	}

	t, ok := m.store.Get(tokenStr)
	if !ok {
		return nil, false, nil
	}
	return t, true, nil
}

func splitToken(tokenStr string) (raw, sig string, ok bool) {
	idx := strings.LastIndex(tokenStr, ".")
	if idx < 0 || idx == len(tokenStr)-1 {
		return "", "", false
	}
	return tokenStr[:idx], tokenStr[idx+1:], true
}

// Authorize reports whether token grants permission, logging the
// outcome and recording a failed attempt on denial. A non-nil error
// means the audit trail could not be written; the boolean result is
// meaningless in that case and must not be trusted by the caller.
func (m *Manager) Authorize(token *AgentToken, permission Permission) (bool, error) {
	if !m.cfg.EnableAuth {
		return true, nil
	}
	if token == nil || !token.HasPermission(permission) {
		agentID := "unknown"
		if token != nil {
			agentID = token.AgentID
		}
		if err := m.audit.Write(audit.Info, audit.AuthFailure, agentID, audit.F("permission", permission)); err != nil {
			return false, errStorageError("write audit log: " + err.Error())
		}
		if token != nil {
			m.recordFailedAttempt(token.AgentID)
		}
		return false, nil
	}
	if err := m.audit.Write(audit.Info, audit.AuthSuccess, token.AgentID, audit.F("permission", permission)); err != nil {
		return false, errStorageError("write audit log: " + err.Error())
	}
	return true, nil
}

// RefreshToken exchanges a valid refresh token for a newly minted
// token with the same role, permissions, and metadata. The old token is
// revoked first and the replacement minted afterwards; if minting
// fails, the old token stays revoked. A non-nil error is always a
// storage failure (revoking the old token, minting the new one, or
// writing the audit trail), never an ordinary "refresh token unknown".
func (m *Manager) RefreshToken(refreshStr string) (*AgentToken, bool, error) {
	old, ok := m.store.ByRefreshToken(refreshStr)
	if !ok {
		if err := m.audit.Write(audit.Warning, audit.SuspiciousActivity, "unknown",
			audit.F("reason", "invalid_refresh")); err != nil {
			return nil, false, errStorageError("write audit log: " + err.Error())
		}
		return nil, false, nil
	}

	if err := m.store.Revoke(old.Token); err != nil {
		m.log.Error().Err(err).Msg("failed to revoke token during refresh")
		return nil, false, err
	}

	lifetime := m.cfg.effectiveDefaultLifetime()
	next, err := m.CreateToken(CreateTokenRequest{
		AgentID:           old.AgentID,
		Role:              old.Role,
		CustomPermissions: old.Permissions,
		Lifetime:          &lifetime,
		Metadata:          old.Metadata,
	})
	if err != nil {
		m.log.Error().Err(err).Msg("failed to mint replacement token during refresh")
		return nil, false, err
	}
	return next, true, nil
}

// RevokeToken idempotently revokes tokenStr and logs the event.
func (m *Manager) RevokeToken(tokenStr string, actorID string) error {
	if err := m.store.Revoke(tokenStr); err != nil {
		return err
	}
	if err := m.audit.Write(audit.Info, audit.TokenRevoked, actorID, audit.F("token_prefix", tokenPrefix(tokenStr))); err != nil {
		return errStorageError("write audit log: " + err.Error())
	}
	return nil
}

// UpdatePermissions requires ADMIN on adminToken and, if granted,
// replaces the role and permission set of every active token owned by
// agentID. Returns false (with a nil error) if adminToken lacks ADMIN.
func (m *Manager) UpdatePermissions(agentID string, newRole Role, adminToken *AgentToken) (bool, error) {
	allowed, err := m.Authorize(adminToken, PermAdmin)
	if err != nil {
		return false, err
	}
	if !allowed {
		return false, nil
	}
	if !IsValidRole(newRole) {
		return false, errInvalidInput(fmt.Sprintf("unknown role %q", newRole))
	}

	newPerms := append([]Permission{}, RolePermissions[newRole]...)
	oldRole := Role("")
	count, err := m.store.MutateActive(agentID, func(t *AgentToken) {
		oldRole = t.Role
		t.Role = newRole
		t.Permissions = newPerms
	})
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}

	if err := m.audit.Write(audit.Info, audit.PermissionChange, agentID,
		audit.F("old_role", oldRole),
		audit.F("new_role", newRole),
		audit.F("admin_id", adminToken.AgentID),
	); err != nil {
		return false, errStorageError("write audit log: " + err.Error())
	}
	return true, nil
}

// ValidateToken is the library-contract counterpart to `validate_token`.
// It is Authenticate under another name: a successful call updates
// last_used and usage_count exactly as Authenticate does.
func (m *Manager) ValidateToken(tokenStr string) (*AgentToken, bool, error) {
	return m.Authenticate(tokenStr)
}

// Status mirrors the library contract's get_auth_status().
type Status struct {
	Enabled        bool   `json:"enabled"`
	HasSystemToken bool   `json:"has_system_token"`
	Workspace      string `json:"workspace"`
	AuthDirectory  string `json:"auth_directory"`
}

func tokenPrefix(tokenStr string) string {
	if len(tokenStr) > 12 {
		return tokenStr[:12]
	}
	return tokenStr
}

// --- lockout tracking ---

func (m *Manager) isLockedOutLocked(agentID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countRecentFailuresLocked(agentID) >= m.cfg.MaxFailedAttempts
}

func (m *Manager) countRecentFailuresLocked(agentID string) int {
	now := m.clock()
	cutoff := now.Add(-m.cfg.LockoutDuration)
	kept := m.failedByAgent[agentID][:0]
	for _, ts := range m.failedByAgent[agentID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	m.failedByAgent[agentID] = kept
	return len(kept)
}

func (m *Manager) recordFailedAttempt(agentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failedByAgent[agentID] = append(m.failedByAgent[agentID], m.clock())
}

// IsLockedOut reports whether agentID currently has at least
// MaxFailedAttempts recorded within LockoutDuration.
func (m *Manager) IsLockedOut(agentID string) bool {
	return m.isLockedOutLocked(agentID)
}

// CleanupExpired removes expired entries from the underlying Token Store.
func (m *Manager) CleanupExpired() (int, error) {
	return m.store.CleanupExpired()
}
