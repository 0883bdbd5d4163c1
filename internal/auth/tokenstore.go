package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TokenStore is the durable map of active tokens plus the revoked set.
// All operations serialize through mu; get additionally performs a
// read-modify-write of last_used/usage_count and persists the result
// before returning, per the ordering guarantees in the external
// contract (a later authenticate call on the same token always sees
// the updated usage stats).
type TokenStore struct {
	mu      sync.Mutex
	log     zerolog.Logger
	dir     string
	active  map[string]*AgentToken
	revoked map[string]struct{}
	// refreshIndex maps refresh_token -> token for O(1) refresh lookup;
	// maintained alongside active rather than scanned linearly.
	refreshIndex map[string]string
}

const (
	tokensFileName  = "tokens.json"
	revokedFileName = "revoked_tokens.json"
)

// OpenTokenStore loads (or initializes) the token store rooted at dir.
// A corrupt persisted file is logged and treated as empty state; it
// never aborts process startup.
func OpenTokenStore(dir string, log zerolog.Logger) (*TokenStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errStorageError("create token store directory: " + err.Error())
	}
	ts := &TokenStore{
		log:          log,
		dir:          dir,
		active:       make(map[string]*AgentToken),
		revoked:      make(map[string]struct{}),
		refreshIndex: make(map[string]string),
	}
	ts.loadActive()
	ts.loadRevoked()
	return ts, nil
}

func (ts *TokenStore) activePath() string  { return filepath.Join(ts.dir, tokensFileName) }
func (ts *TokenStore) revokedPath() string { return filepath.Join(ts.dir, revokedFileName) }

func (ts *TokenStore) loadActive() {
	data, err := os.ReadFile(ts.activePath())
	if err != nil {
		if !os.IsNotExist(err) {
			ts.log.Error().Err(err).Msg("failed to read active token file")
		}
		return
	}
	if len(data) == 0 {
		return
	}
	var m map[string]*AgentToken
	if err := json.Unmarshal(data, &m); err != nil {
		ts.log.Error().Err(err).Msg("corrupt active token file; starting with empty state")
		return
	}
	for tok, t := range m {
		ts.active[tok] = t
		if t.RefreshToken != "" {
			ts.refreshIndex[t.RefreshToken] = tok
		}
	}
}

func (ts *TokenStore) loadRevoked() {
	data, err := os.ReadFile(ts.revokedPath())
	if err != nil {
		if !os.IsNotExist(err) {
			ts.log.Error().Err(err).Msg("failed to read revoked token file")
		}
		return
	}
	if len(data) == 0 {
		return
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		ts.log.Error().Err(err).Msg("corrupt revoked token file; starting with empty state")
		return
	}
	for _, tok := range list {
		ts.revoked[tok] = struct{}{}
	}
}

// persistActiveLocked atomically writes the active map. Caller must hold mu.
func (ts *TokenStore) persistActiveLocked() error {
	return atomicWriteJSON(ts.activePath(), ts.active)
}

// persistRevokedLocked atomically writes the revoked set as a sorted-free list.
func (ts *TokenStore) persistRevokedLocked() error {
	list := make([]string, 0, len(ts.revoked))
	for tok := range ts.revoked {
		list = append(list, tok)
	}
	return atomicWriteJSON(ts.revokedPath(), list)
}

// atomicWriteJSON marshals v and writes it to path via a temp file in
// the same directory followed by a rename, so a crash mid-write never
// leaves a partial JSON file in place.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-tokenstore-")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	success = true
	return nil
}

// Store persists a freshly minted token, making it immediately visible
// to subsequent Get calls.
func (ts *TokenStore) Store(t *AgentToken) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.active[t.Token] = t
	if t.RefreshToken != "" {
		ts.refreshIndex[t.RefreshToken] = t.Token
	}
	if err := ts.persistActiveLocked(); err != nil {
		return errStorageError("persist token: " + err.Error())
	}
	return nil
}

// Get returns the token for tokenStr, or (nil, false) if it is absent,
// revoked, or expired. A successful lookup updates last_used and
// usage_count and persists the change before returning, and an expired
// entry is removed as a side effect.
func (ts *TokenStore) Get(tokenStr string) (*AgentToken, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if _, revoked := ts.revoked[tokenStr]; revoked {
		return nil, false
	}
	t, ok := ts.active[tokenStr]
	if !ok {
		return nil, false
	}
	now := time.Now()
	if t.IsExpired(now) {
		ts.removeActiveLocked(tokenStr)
		ts.persistActiveLocked()
		return nil, false
	}

	t.LastUsed = &now
	t.UsageCount++
	if err := ts.persistActiveLocked(); err != nil {
		ts.log.Error().Err(err).Msg("failed to persist token usage update")
	}
	return t.Clone(), true
}

// Peek returns the token without mutating last_used/usage_count. The
// Manager's Authenticate uses it before Get to check lockout, so a
// locked-out lookup leaves usage stats untouched.
func (ts *TokenStore) Peek(tokenStr string) (*AgentToken, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, revoked := ts.revoked[tokenStr]; revoked {
		return nil, false
	}
	t, ok := ts.active[tokenStr]
	if !ok || t.IsExpired(time.Now()) {
		return nil, false
	}
	return t.Clone(), true
}

// ByRefreshToken looks up the active token whose refresh token matches.
func (ts *TokenStore) ByRefreshToken(refreshStr string) (*AgentToken, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	tok, ok := ts.refreshIndex[refreshStr]
	if !ok {
		return nil, false
	}
	t, ok := ts.active[tok]
	if !ok || t.IsExpired(time.Now()) {
		return nil, false
	}
	return t.Clone(), true
}

// Revoke adds tokenStr to the revoked set and removes it from active
// state. Idempotent: revoking an already-revoked token is a no-op.
func (ts *TokenStore) Revoke(tokenStr string) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if _, already := ts.revoked[tokenStr]; already {
		return nil
	}
	ts.revoked[tokenStr] = struct{}{}
	ts.removeActiveLocked(tokenStr)

	if err := ts.persistRevokedLocked(); err != nil {
		return errStorageError("persist revocation: " + err.Error())
	}
	if err := ts.persistActiveLocked(); err != nil {
		return errStorageError("persist token removal: " + err.Error())
	}
	return nil
}

func (ts *TokenStore) removeActiveLocked(tokenStr string) {
	if t, ok := ts.active[tokenStr]; ok && t.RefreshToken != "" {
		delete(ts.refreshIndex, t.RefreshToken)
	}
	delete(ts.active, tokenStr)
}

// CleanupExpired removes every active entry whose expiry is in the
// past and returns the count removed.
func (ts *TokenStore) CleanupExpired() (int, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := time.Now()
	removed := 0
	for tok, t := range ts.active {
		if t.IsExpired(now) {
			ts.removeActiveLocked(tok)
			removed++
		}
	}
	if removed > 0 {
		if err := ts.persistActiveLocked(); err != nil {
			return removed, errStorageError("persist after cleanup: " + err.Error())
		}
	}
	return removed, nil
}

// AllActiveForAgent returns clones of every non-expired active token
// belonging to agentID. Nothing in this module calls it;
// UpdatePermissions goes through MutateActive instead.
func (ts *TokenStore) AllActiveForAgent(agentID string) []*AgentToken {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := time.Now()
	var out []*AgentToken
	for _, t := range ts.active {
		if t.AgentID == agentID && !t.IsExpired(now) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// MutateActive applies fn to every active token matching agentID under
// the store's lock, then persists once. fn must not retain the pointer
// beyond its call.
func (ts *TokenStore) MutateActive(agentID string, fn func(*AgentToken)) (int, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := time.Now()
	count := 0
	for _, t := range ts.active {
		if t.AgentID == agentID && !t.IsExpired(now) {
			fn(t)
			count++
		}
	}
	if count > 0 {
		if err := ts.persistActiveLocked(); err != nil {
			return count, errStorageError("persist permission change: " + err.Error())
		}
	}
	return count, nil
}
