package workspace

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/streamspace-dev/forgeauth/internal/auth"
)

func TestInitializeAndMintAuthorizeHandoff(t *testing.T) {
	cfg := DefaultConfig()
	ws, err := Initialize(t.TempDir(), cfg)
	require.NoError(t, err)

	token, err := ws.CreateToken(auth.CreateTokenRequest{AgentID: "alice", Role: auth.RoleOrchestrator})
	require.NoError(t, err)

	got, ok, err := ws.Authenticate(token.Token)
	require.NoError(t, err)
	require.True(t, ok)
	allowed, err := ws.Authorize(got, auth.PermCreateHandoff)
	require.NoError(t, err)
	require.True(t, allowed)

	id, err := ws.CreateHandoff("alice", "bob", "task", map[string]interface{}{"x": 1}, "do it", got)
	require.NoError(t, err)

	rec, ok := ws.ReadHandoff(id, got)
	require.True(t, ok)
	require.Equal(t, "alice", rec.FromAgent)

	status := ws.GetAuthStatus()
	require.True(t, status.Enabled)
}

func TestReopeningWorkspacePreservesTokens(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()

	ws1, err := Initialize(dir, cfg)
	require.NoError(t, err)
	token, err := ws1.CreateToken(auth.CreateTokenRequest{AgentID: "carol", Role: auth.RoleGuest})
	require.NoError(t, err)

	ws2, err := Initialize(dir, cfg)
	require.NoError(t, err)
	got, ok, err := ws2.Authenticate(token.Token)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "carol", got.AgentID)
}
