// Package workspace wires the Secret Store, Audit Log, Token Store,
// Auth Manager, and Handoff Store into the single long-lived value a
// host process holds for one workspace directory, and exposes the
// library contract external collaborators (the CLI) consume.
package workspace

import (
	"path/filepath"

	"github.com/streamspace-dev/forgeauth/internal/audit"
	"github.com/streamspace-dev/forgeauth/internal/auth"
	"github.com/streamspace-dev/forgeauth/internal/handoff"
	"github.com/streamspace-dev/forgeauth/internal/logger"
	"github.com/streamspace-dev/forgeauth/internal/sanitize"
)

const (
	secretFileName  = ".secret_key"
	authSubdir      = "auth"
	tokensSubdir    = "tokens"
	auditSubdir     = "audit"
	auditFileName   = "security_audit.log"
)

// Workspace is the single entry point external collaborators use:
// one instance per workspace directory, created once via Initialize
// and threaded through every subsequent call rather than reached via a
// global singleton.
type Workspace struct {
	root    string
	manager *auth.Manager
	handoff *handoff.Store
	limiter *sanitize.Limiter
	cfg     auth.Config
}

// Initialize loads or creates every durable resource under root and
// returns a ready-to-use Workspace. This is the explicit initialization
// phase called out by the design notes: everything is loaded
// synchronously here, never lazily on first request. No system token is
// minted; this implementation has no system-token concept.
func Initialize(root string, cfg auth.Config) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	authDir := filepath.Join(abs, authSubdir)
	secretPath := filepath.Join(authDir, secretFileName)

	secret := cfg.SecretKey
	if secret == "" {
		s, err := auth.LoadOrCreateSecret(secretPath, *logger.Security())
		if err != nil {
			return nil, err
		}
		secret = s
	}

	auditPath := filepath.Join(authDir, auditSubdir, auditFileName)
	auditLog, err := audit.Open(auditPath)
	if err != nil {
		return nil, err
	}

	tokenDir := filepath.Join(authDir, tokensSubdir)
	store, err := auth.OpenTokenStore(tokenDir, *logger.TokenStore())
	if err != nil {
		return nil, err
	}

	manager := auth.NewManager(store, auditLog, secret, cfg, *logger.Security())
	limiter := sanitize.NewLimiter()

	hstore, err := handoff.New(abs, manager, limiter, cfg.EnableAuth, *logger.Handoff())
	if err != nil {
		return nil, err
	}

	return &Workspace{
		root:    abs,
		manager: manager,
		handoff: hstore,
		limiter: limiter,
		cfg:     cfg,
	}, nil
}

// CreateToken mints a new token. See auth.Manager.CreateToken.
func (w *Workspace) CreateToken(req auth.CreateTokenRequest) (*auth.AgentToken, error) {
	return w.manager.CreateToken(req)
}

// Authenticate verifies and looks up a token string. A non-nil error
// means the audit trail could not be written, not that the token is
// invalid.
func (w *Workspace) Authenticate(tokenStr string) (*auth.AgentToken, bool, error) {
	return w.manager.Authenticate(tokenStr)
}

// Authorize checks a permission against a token. A non-nil error means
// the audit trail could not be written; the boolean result must not be
// trusted by the caller in that case.
func (w *Workspace) Authorize(token *auth.AgentToken, perm auth.Permission) (bool, error) {
	return w.manager.Authorize(token, perm)
}

// RefreshToken exchanges a refresh token for a new token.
func (w *Workspace) RefreshToken(refreshStr string) (*auth.AgentToken, bool, error) {
	return w.manager.RefreshToken(refreshStr)
}

// RevokeToken idempotently revokes a token.
func (w *Workspace) RevokeToken(tokenStr, actorID string) error {
	return w.manager.RevokeToken(tokenStr, actorID)
}

// UpdatePermissions changes every active token's role for agentID.
func (w *Workspace) UpdatePermissions(agentID string, newRole auth.Role, adminToken *auth.AgentToken) (bool, error) {
	return w.manager.UpdatePermissions(agentID, newRole, adminToken)
}

// ValidateToken backs the library contract's validate_token. It behaves
// exactly like Authenticate, including the last_used/usage_count update.
func (w *Workspace) ValidateToken(tokenStr string) (*auth.AgentToken, bool, error) {
	return w.manager.ValidateToken(tokenStr)
}

// CreateHandoff writes a new sanitized handoff record.
func (w *Workspace) CreateHandoff(from, to, handoffType string, data interface{}, instructions string, token *auth.AgentToken) (string, error) {
	return w.handoff.CreateHandoff(from, to, handoffType, data, instructions, token)
}

// ReadHandoff reads a handoff record by ID.
func (w *Workspace) ReadHandoff(id string, token *auth.AgentToken) (*handoff.Record, bool) {
	return w.handoff.ReadHandoff(id, token)
}

// ListHandoffs lists handoff IDs, optionally filtered by participant.
func (w *Workspace) ListHandoffs(agentName string, token *auth.AgentToken) []string {
	return w.handoff.ListHandoffs(agentName, token)
}

// CleanupExpired removes expired tokens from the store.
func (w *Workspace) CleanupExpired() (int, error) {
	return w.manager.CleanupExpired()
}

// Status mirrors get_auth_status() from the library contract.
type Status struct {
	Enabled        bool   `json:"enabled"`
	HasSystemToken bool   `json:"has_system_token"`
	Workspace      string `json:"workspace"`
	AuthDirectory  string `json:"auth_directory"`
}

// GetAuthStatus reports whether auth is enabled and where its state lives.
// HasSystemToken is always false: this implementation has no system-token
// fallback concept (see the Open Question decision in DESIGN.md) so there
// is nothing true to report here.
func (w *Workspace) GetAuthStatus() Status {
	return Status{
		Enabled:        w.cfg.EnableAuth,
		HasSystemToken: false,
		Workspace:      w.root,
		AuthDirectory:  filepath.Join(w.root, authSubdir),
	}
}

// GetSanitizationStats mirrors get_sanitization_stats().
func (w *Workspace) GetSanitizationStats() sanitize.Stats {
	return sanitize.GetStats()
}

// AuditLogPath returns the path to the workspace's append-only
// security audit log, for external tools (the CLI's audit command)
// that want to tail it directly rather than re-parse it through this
// package.
func (w *Workspace) AuditLogPath() string {
	return filepath.Join(w.root, authSubdir, auditSubdir, auditFileName)
}

// DefaultConfig re-exports auth.DefaultConfig for callers that only
// import the workspace package.
func DefaultConfig() auth.Config { return auth.DefaultConfig() }
