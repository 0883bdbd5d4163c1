package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentNameBasic(t *testing.T) {
	got, err := AgentName("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
}

func TestAgentNameStripsDisallowedCharacters(t *testing.T) {
	got, err := AgentName("alice!! the@@bot")
	require.NoError(t, err)
	assert.Equal(t, "alicethebot", got)
}

func TestAgentNameEmptyBecomesUnknown(t *testing.T) {
	got, err := AgentName("!!!")
	require.NoError(t, err)
	assert.Equal(t, "unknown_agent", got)
}

func TestAgentNameBoundaryLengths(t *testing.T) {
	lengths := []int{0, 64, 65, 10000}
	for _, n := range lengths {
		input := strings.Repeat("a", n)
		got, err := AgentName(input)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got), MaxAgentNameLength)
		if n > 0 {
			assert.NotEmpty(t, got)
		}
	}
}

func TestAgentNamePathTraversalIsNeutralized(t *testing.T) {
	got, err := AgentName("../../etc/passwd")
	require.NoError(t, err)
	assert.NotContains(t, got, "/")
	assert.NotContains(t, got, "..")

	got, err = AgentName(`..\..\sam`)
	require.NoError(t, err)
	assert.NotContains(t, got, `\`)
	assert.NotContains(t, got, "..")
}
