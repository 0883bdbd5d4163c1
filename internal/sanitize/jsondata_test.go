package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamspace-dev/forgeauth/internal/apperr"
)

func TestJSONPassesThroughSimpleValues(t *testing.T) {
	out, err := JSON(map[string]interface{}{"k": "v", "n": float64(1)}, DefaultMaxDepth)
	require.NoError(t, err)
	m := out.(map[string]interface{})
	assert.Equal(t, "v", m["k"])
	assert.Equal(t, float64(1), m["n"])
}

func TestJSONStripsControlBytesAndCapsLength(t *testing.T) {
	out, err := JSON(map[string]interface{}{"k": "a\x00b"}, DefaultMaxDepth)
	require.NoError(t, err)
	m := out.(map[string]interface{})
	assert.Equal(t, "ab", m["k"])

	long := strings.Repeat("x", MaxStringLength+100)
	out, err = JSON(map[string]interface{}{"k": long}, DefaultMaxDepth)
	require.NoError(t, err)
	m = out.(map[string]interface{})
	assert.LessOrEqual(t, len(m["k"].(string)), MaxStringLength)
}

func nestedValue(depth int) interface{} {
	var v interface{} = "leaf"
	for i := 0; i < depth; i++ {
		v = map[string]interface{}{"nested": v}
	}
	return v
}

func TestJSONDepthBoundary(t *testing.T) {
	_, err := JSON(nestedValue(10), 10)
	require.NoError(t, err)

	_, err = JSON(nestedValue(11), 10)
	require.Error(t, err)
	code, ok := apperr.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.DepthExceeded, code)
}

func TestJSONPayloadTooLarge(t *testing.T) {
	chunk := strings.Repeat("y", MaxStringLength)
	items := make([]interface{}, 0, 120)
	for i := 0; i < 120; i++ {
		items = append(items, chunk)
	}
	_, err := JSON(map[string]interface{}{"items": items}, DefaultMaxDepth)
	require.Error(t, err)
	code, ok := apperr.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.PayloadTooLarge, code)
}
