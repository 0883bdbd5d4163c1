package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/streamspace-dev/forgeauth/internal/audit"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()

	store, err := OpenTokenStore(filepath.Join(dir, "tokens"), zerolog.Nop())
	require.NoError(t, err)

	auditLog, err := audit.Open(filepath.Join(dir, "audit", "security_audit.log"))
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.MaxFailedAttempts = 5
	cfg.LockoutDuration = 15 * time.Minute

	return NewManager(store, auditLog, "test-secret", cfg, zerolog.Nop())
}

func TestMintAndVerify(t *testing.T) {
	m := newTestManager(t)
	lifetime := 2 * time.Hour

	token, err := m.CreateToken(CreateTokenRequest{
		AgentID:  "alice",
		Role:     RoleSpecialist,
		Lifetime: &lifetime,
	})
	require.NoError(t, err)
	require.NotEmpty(t, token.RefreshToken)

	got, ok, err := m.Authenticate(token.Token)
	require.NoError(t, err)
	require.True(t, ok)
	require.ElementsMatch(t, []Permission{PermRead, PermWrite, PermExecute, PermCreateHandoff, PermReadHandoff}, got.Permissions)

	allowed, err := m.Authorize(got, PermAdmin)
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, err = m.Authorize(got, PermCreateHandoff)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestTamperDetection(t *testing.T) {
	m := newTestManager(t)
	token, err := m.CreateToken(CreateTokenRequest{AgentID: "bob", Role: RoleGuest})
	require.NoError(t, err)

	tampered := flipLastChar(token.Token)

	_, ok, err := m.Authenticate(tampered)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = m.Authenticate(token.Token)
	require.NoError(t, err)
	require.True(t, ok)
}

func flipLastChar(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[len(b)-1] == 'a' {
		b[len(b)-1] = 'b'
	} else {
		b[len(b)-1] = 'a'
	}
	return string(b)
}

func TestLockout(t *testing.T) {
	m := newTestManager(t)
	token, err := m.CreateToken(CreateTokenRequest{AgentID: "carol", Role: RoleSpecialist})
	require.NoError(t, err)

	current := time.Now()
	m.now = func() time.Time { return current }

	for i := 0; i < 6; i++ {
		allowed, err := m.Authorize(token, PermAdmin)
		require.NoError(t, err)
		require.False(t, allowed)
	}

	_, ok, err := m.Authenticate(token.Token)
	require.NoError(t, err)
	require.False(t, ok)

	current = current.Add(15*time.Minute + time.Second)
	_, ok, err = m.Authenticate(token.Token)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRefreshRotates(t *testing.T) {
	m := newTestManager(t)
	lifetime := 2 * time.Hour
	t1, err := m.CreateToken(CreateTokenRequest{AgentID: "dave", Role: RoleOrchestrator, Lifetime: &lifetime})
	require.NoError(t, err)
	require.NotEmpty(t, t1.RefreshToken)

	t2, ok, err := m.RefreshToken(t1.RefreshToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, t1.Token, t2.Token)

	_, ok, err = m.Authenticate(t1.Token)
	require.NoError(t, err)
	require.False(t, ok)

	got, ok, err := m.Authenticate(t2.Token)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "dave", got.AgentID)
}

func TestUniqueTokensAcrossCreations(t *testing.T) {
	m := newTestManager(t)
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		token, err := m.CreateToken(CreateTokenRequest{AgentID: "erin", Role: RoleGuest})
		require.NoError(t, err)
		_, dup := seen[token.Token]
		require.False(t, dup)
		seen[token.Token] = struct{}{}
	}
}

func TestRevokeIsPermanentAndIdempotent(t *testing.T) {
	m := newTestManager(t)
	token, err := m.CreateToken(CreateTokenRequest{AgentID: "frank", Role: RoleGuest})
	require.NoError(t, err)

	require.NoError(t, m.RevokeToken(token.Token, "admin"))
	require.NoError(t, m.RevokeToken(token.Token, "admin"))

	_, ok, err := m.Authenticate(token.Token)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpdatePermissionsRequiresAdmin(t *testing.T) {
	m := newTestManager(t)
	guestToken, err := m.CreateToken(CreateTokenRequest{AgentID: "admin-candidate", Role: RoleGuest})
	require.NoError(t, err)

	ok, err := m.UpdatePermissions("someone", RoleReviewer, guestToken)
	require.NoError(t, err)
	require.False(t, ok)

	adminToken, err := m.CreateToken(CreateTokenRequest{AgentID: "root", Role: RoleAdmin})
	require.NoError(t, err)

	target, err := m.CreateToken(CreateTokenRequest{AgentID: "someone", Role: RoleGuest})
	require.NoError(t, err)

	ok, err = m.UpdatePermissions("someone", RoleReviewer, adminToken)
	require.NoError(t, err)
	require.True(t, ok)

	updated, authOk, authErr := m.Authenticate(target.Token)
	require.NoError(t, authErr)
	require.True(t, authOk)
	require.Equal(t, RoleReviewer, updated.Role)
}

func TestRefreshGrantedOnlyAboveOneHour(t *testing.T) {
	m := newTestManager(t)

	oneHour := time.Hour
	noRefresh, err := m.CreateToken(CreateTokenRequest{AgentID: "grace", Role: RoleGuest, Lifetime: &oneHour})
	require.NoError(t, err)
	require.Empty(t, noRefresh.RefreshToken)

	oneHourOneSecond := time.Hour + time.Second
	withRefresh, err := m.CreateToken(CreateTokenRequest{AgentID: "heidi", Role: RoleGuest, Lifetime: &oneHourOneSecond})
	require.NoError(t, err)
	require.NotEmpty(t, withRefresh.RefreshToken)
}
