package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolePermissionsMatchFixedTable(t *testing.T) {
	cases := []struct {
		role  Role
		perms []Permission
	}{
		{RoleOrchestrator, []Permission{PermRead, PermWrite, PermExecute, PermCreateHandoff, PermReadHandoff, PermDeleteHandoff, PermViewLogs}},
		{RoleSpecialist, []Permission{PermRead, PermWrite, PermExecute, PermCreateHandoff, PermReadHandoff}},
		{RoleReviewer, []Permission{PermRead, PermReadHandoff, PermViewLogs}},
		{RoleObserver, []Permission{PermRead, PermViewLogs}},
		{RoleGuest, []Permission{PermRead}},
	}
	for _, c := range cases {
		assert.ElementsMatch(t, c.perms, RolePermissions[c.role])
	}

	assert.Len(t, RolePermissions[RoleAdmin], len(allPermissions))
	for _, p := range allPermissions {
		assert.Contains(t, RolePermissions[RoleAdmin], p)
	}
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole(RoleAdmin))
	assert.False(t, IsValidRole(Role("NOT_A_ROLE")))
}

func TestAgentTokenIsExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	noExpiry := &AgentToken{}
	assert.False(t, noExpiry.IsExpired(now))

	expired := &AgentToken{ExpiresAt: &past}
	assert.True(t, expired.IsExpired(now))

	notYet := &AgentToken{ExpiresAt: &future}
	assert.False(t, notYet.IsExpired(now))
}

func TestAgentTokenCloneIsIndependent(t *testing.T) {
	original := &AgentToken{
		AgentID:     "alice",
		Permissions: []Permission{PermRead},
		Metadata:    map[string]interface{}{"k": "v"},
	}
	clone := original.Clone()
	clone.Permissions[0] = PermAdmin
	clone.Metadata["k"] = "changed"

	require.Equal(t, PermRead, original.Permissions[0])
	require.Equal(t, "v", original.Metadata["k"])
}
