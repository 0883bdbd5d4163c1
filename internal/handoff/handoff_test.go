package handoff

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/streamspace-dev/forgeauth/internal/auth"
	"github.com/streamspace-dev/forgeauth/internal/sanitize"
)

type alwaysAllow struct{}

func (alwaysAllow) Authorize(*auth.AgentToken, auth.Permission) (bool, error) { return true, nil }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), alwaysAllow{}, sanitize.NewLimiter(), true, zerolog.Nop())
	require.NoError(t, err)
	return s
}

var adminToken = &auth.AgentToken{AgentID: "admin", Role: auth.RoleAdmin, Permissions: []auth.Permission{auth.PermAdmin, auth.PermCreateHandoff, auth.PermReadHandoff, auth.PermRead}}

func TestCreateAndReadHandoffRoundTrips(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateHandoff("alice", "bob", "task", map[string]interface{}{"k": "v"}, "do the thing", adminToken)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, ok := s.ReadHandoff(id, adminToken)
	require.True(t, ok)
	require.Equal(t, "alice", rec.FromAgent)
	require.Equal(t, "bob", rec.ToAgent)
	require.Equal(t, "do the thing", rec.Instructions)
}

func TestCreateHandoffPathTraversalInputsAreSanitized(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateHandoff("../../etc/passwd", `..\..\sam`, "t", map[string]interface{}{"k": "v"}, "hi", adminToken)
	require.NoError(t, err)

	rec, ok := s.ReadHandoff(id, adminToken)
	require.True(t, ok)
	require.NotContains(t, rec.FromAgent, "/")
	require.NotContains(t, rec.FromAgent, "..")
	require.NotContains(t, rec.ToAgent, `\`)
	require.NotContains(t, rec.ToAgent, "..")
}

func TestCreateHandoffSanitizesInstructionsMarkdown(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateHandoff("alice", "bob", "task", map[string]interface{}{}, "<script>alert(1)</script>[x](javascript:alert(1))", adminToken)
	require.NoError(t, err)

	rec, ok := s.ReadHandoff(id, adminToken)
	require.True(t, ok)
	require.False(t, strings.Contains(strings.ToLower(rec.Instructions), "<script"))
	require.False(t, strings.Contains(strings.ToLower(rec.Instructions), "javascript:"))
}

func TestListHandoffsSortedDescendingAndFilterable(t *testing.T) {
	s := newTestStore(t)

	id1, err := s.CreateHandoff("alice", "bob", "task", map[string]interface{}{}, "first", adminToken)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	id2, err := s.CreateHandoff("carol", "dave", "task", map[string]interface{}{}, "second", adminToken)
	require.NoError(t, err)

	all := s.ListHandoffs("", adminToken)
	require.Len(t, all, 2)
	require.Equal(t, id2, all[0])
	require.Equal(t, id1, all[1])

	filtered := s.ListHandoffs("alice", adminToken)
	require.Equal(t, []string{id1}, filtered)
}

func TestCreateHandoffRateLimited(t *testing.T) {
	s := newTestStore(t)
	tok := &auth.AgentToken{AgentID: "limited", Token: "ratelimit-probe", Role: auth.RoleAdmin, Permissions: []auth.Permission{auth.PermCreateHandoff}}

	for i := 0; i < 50; i++ {
		_, err := s.CreateHandoff("a", "b", "t", map[string]interface{}{}, "x", tok)
		require.NoError(t, err)
	}
	_, err := s.CreateHandoff("a", "b", "t", map[string]interface{}{}, "x", tok)
	require.Error(t, err)
}
