// Package handoff implements the file-backed handoff channel between
// agents: path-safety-checked JSON+Markdown record pairs under a
// whitelisted workspace subtree, gated by the Auth Manager and the
// shared input sanitizer.
package handoff

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamspace-dev/forgeauth/internal/apperr"
	"github.com/streamspace-dev/forgeauth/internal/auth"
	"github.com/streamspace-dev/forgeauth/internal/sanitize"
)

// whitelistedSubdirs are the only subdirectory names a workspace path
// may pass through on its way to a handoff file.
var whitelistedSubdirs = map[string]struct{}{
	"communication": {},
	"handoffs":      {},
	"logs":          {},
	"data":          {},
	"auth":          {},
}

const (
	createRateLimit = 50
	readRateLimit   = 100
	rateWindow      = time.Minute
)

// Authorizer is the subset of the Auth Manager the store needs,
// supplied at construction so Store never holds a cyclic reference
// back into the auth package beyond this narrow interface. A non-nil
// error means the audit trail could not be written, not that the
// permission check itself failed.
type Authorizer interface {
	Authorize(token *auth.AgentToken, permission auth.Permission) (bool, error)
}

// Record is an immutable message one agent leaves for another.
type Record struct {
	HandoffID    string      `json:"handoff_id"`
	FromAgent    string      `json:"from_agent"`
	ToAgent      string      `json:"to_agent"`
	HandoffType  string      `json:"handoff_type"`
	Data         interface{} `json:"data"`
	Instructions string      `json:"instructions"`
	Timestamp    time.Time   `json:"timestamp"`
	Status       string      `json:"status"`
}

// Store mediates reads and writes of handoff records under
// <workspace>/communication/handoffs/.
type Store struct {
	workspace string
	handoffs  string
	authz     Authorizer
	limiter   *sanitize.Limiter
	log       zerolog.Logger
	enableAuth bool
}

// New returns a Store rooted at workspace, creating the handoffs
// directory if necessary.
func New(workspace string, authz Authorizer, limiter *sanitize.Limiter, enableAuth bool, log zerolog.Logger) (*Store, error) {
	abs, err := filepath.Abs(workspace)
	if err != nil {
		return nil, apperr.New(apperr.StorageError, "resolve workspace path: "+err.Error())
	}
	handoffsDir := filepath.Join(abs, "communication", "handoffs")
	if err := os.MkdirAll(handoffsDir, 0o700); err != nil {
		return nil, apperr.New(apperr.StorageError, "create handoffs directory: "+err.Error())
	}
	return &Store{
		workspace:  abs,
		handoffs:   handoffsDir,
		authz:      authz,
		limiter:    limiter,
		enableAuth: enableAuth,
		log:        log,
	}, nil
}

// validatePath applies the path-safety protocol: normalize to an
// absolute form, reject traversal sequences, confirm the workspace is
// an ancestor of the resolved path, and re-validate through any
// symlink the target resolves to.
func (s *Store) validatePath(candidate string) (string, error) {
	lower := strings.ToLower(candidate)
	for _, bad := range []string{"../", "..\\", "%2e%2e", "%252e"} {
		if strings.Contains(lower, bad) {
			return "", apperr.New(apperr.InvalidInput, "path contains traversal sequence")
		}
	}

	abs, err := filepath.Abs(candidate)
	if err != nil {
		return "", apperr.New(apperr.InvalidInput, "cannot resolve path: "+err.Error())
	}

	rel, err := filepath.Rel(s.workspace, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperr.New(apperr.InvalidInput, "path escapes workspace")
	}

	if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return "", apperr.New(apperr.InvalidInput, "cannot resolve symlink: "+err.Error())
		}
		relResolved, err := filepath.Rel(s.workspace, resolved)
		if err != nil || relResolved == ".." || strings.HasPrefix(relResolved, ".."+string(filepath.Separator)) {
			return "", apperr.New(apperr.InvalidInput, "symlink escapes workspace")
		}
		return resolved, nil
	}

	return abs, nil
}

func (s *Store) requirePermission(token *auth.AgentToken, perm auth.Permission) error {
	if !s.enableAuth {
		return nil
	}
	allowed, err := s.authz.Authorize(token, perm)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.New(apperr.AuthorizationFailed, fmt.Sprintf("token lacks %s", perm))
	}
	return nil
}

func tokenRateKey(prefix string, token *auth.AgentToken) string {
	if token == nil {
		return prefix + ":anonymous"
	}
	p := token.Token
	if len(p) > 12 {
		p = p[:12]
	}
	return prefix + ":" + p
}

// CreateHandoff sanitizes and writes a new handoff record, returning
// its generated ID.
func (s *Store) CreateHandoff(fromAgent, toAgent, handoffType string, data interface{}, instructions string, token *auth.AgentToken) (string, error) {
	if err := s.requirePermission(token, auth.PermCreateHandoff); err != nil {
		return "", err
	}
	if !s.limiter.Allow(tokenRateKey("create_handoff", token), createRateLimit, rateWindow) {
		return "", apperr.New(apperr.RateLimitExceeded, "create_handoff rate limit exceeded")
	}

	from, err := sanitize.AgentName(fromAgent)
	if err != nil {
		return "", err
	}
	to, err := sanitize.AgentName(toAgent)
	if err != nil {
		return "", err
	}
	htype, err := sanitize.AgentName(handoffType)
	if err != nil {
		return "", err
	}
	sanitizedData, err := sanitize.JSON(data, sanitize.DefaultMaxDepth)
	if err != nil {
		return "", err
	}
	sanitizedInstructions := sanitize.Markdown(instructions, false)

	now := time.Now()
	handoffID := sanitize.Filename(generateHandoffID(from, to, now))

	record := Record{
		HandoffID:    handoffID,
		FromAgent:    from,
		ToAgent:      to,
		HandoffType:  htype,
		Data:         sanitizedData,
		Instructions: sanitizedInstructions,
		Timestamp:    now,
		Status:       "pending",
	}

	jsonPath, err := s.validatePath(filepath.Join(s.handoffs, handoffID+".json"))
	if err != nil {
		return "", err
	}
	mdPath, err := s.validatePath(filepath.Join(s.handoffs, handoffID+".md"))
	if err != nil {
		return "", err
	}

	if err := writeJSONFile(jsonPath, record); err != nil {
		return "", apperr.New(apperr.StorageError, "write handoff json: "+err.Error())
	}
	if err := writeMarkdownFile(mdPath, record); err != nil {
		os.Remove(jsonPath)
		return "", apperr.New(apperr.StorageError, "write handoff markdown: "+err.Error())
	}

	return handoffID, nil
}

// ReadHandoff returns the record for handoffID, or (nil, false) if it
// is absent, fails path validation, or the token lacks READ_HANDOFF.
func (s *Store) ReadHandoff(handoffID string, token *auth.AgentToken) (*Record, bool) {
	if err := s.requirePermission(token, auth.PermReadHandoff); err != nil {
		return nil, false
	}
	if !s.limiter.Allow(tokenRateKey("read_handoff", token), readRateLimit, rateWindow) {
		return nil, false
	}

	safeID := sanitize.Filename(handoffID)
	jsonPath, err := s.validatePath(filepath.Join(s.handoffs, safeID+".json"))
	if err != nil {
		return nil, false
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, false
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.log.Error().Err(err).Str("handoff_id", safeID).Msg("corrupt handoff record")
		return nil, false
	}
	return &rec, true
}

// ListHandoffs returns handoff IDs sorted lexicographically descending,
// optionally filtered to those where agentName appears as sender or
// receiver.
func (s *Store) ListHandoffs(agentName string, token *auth.AgentToken) []string {
	if err := s.requirePermission(token, auth.PermRead); err != nil {
		return nil
	}

	entries, err := os.ReadDir(s.handoffs)
	if err != nil {
		return nil
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		candidate := filepath.Join(s.handoffs, e.Name())
		if _, err := s.validatePath(candidate); err != nil {
			continue
		}

		if agentName != "" {
			rec, ok := s.ReadHandoff(id, token)
			if !ok || (rec.FromAgent != agentName && rec.ToAgent != agentName) {
				continue
			}
		}
		ids = append(ids, id)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids
}

func generateHandoffID(from, to string, ts time.Time) string {
	h := sha256.Sum256([]byte(from + "|" + to + "|" + ts.Format(time.RFC3339Nano)))
	short := uint16(h[0])<<8 | uint16(h[1])
	return fmt.Sprintf("handoff_%s_%s", ts.Format("20060102_150405"), hex.EncodeToString([]byte{byte(short >> 8), byte(short)}))
}

func writeJSONFile(path string, record Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func writeMarkdownFile(path string, record Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Handoff %s\n\n", record.HandoffID)
	fmt.Fprintf(&b, "- **From:** %s\n", record.FromAgent)
	fmt.Fprintf(&b, "- **To:** %s\n", record.ToAgent)
	fmt.Fprintf(&b, "- **Type:** %s\n", record.HandoffType)
	fmt.Fprintf(&b, "- **Status:** %s\n", record.Status)
	fmt.Fprintf(&b, "- **Timestamp:** %s\n\n", record.Timestamp.Format(time.RFC3339))
	b.WriteString("## Instructions\n\n")
	b.WriteString(record.Instructions)
	b.WriteString("\n")
	return os.WriteFile(path, []byte(b.String()), 0o600)
}
