package sanitize

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/streamspace-dev/forgeauth/internal/apperr"
)

// controlBytes are the C0/C1 control bytes removed from string values,
// matching the exact byte ranges named in the external contract.
func isControlByte(b byte) bool {
	return (b <= 0x08) || (b >= 0x0B && b <= 0x0C) || (b >= 0x0E && b <= 0x1F) || b == 0x7F
}

func stripControlBytes(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if !isControlByte(s[i]) {
			out = append(out, s[i])
		}
	}
	return string(out)
}

// JSON recursively sanitizes an arbitrary JSON-shaped Go value (as
// produced by encoding/json's default decode into interface{}): map
// keys are coerced to string and capped at 256 bytes, string values
// have control bytes stripped and are capped at MaxStringLength,
// numbers/booleans/nil pass through unchanged. Depth beyond maxDepth
// fails with DepthExceeded; a re-serialized size over MaxPayloadBytes
// fails with PayloadTooLarge.
func JSON(v interface{}, maxDepth int) (interface{}, error) {
	bumpTotal()

	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	result, err := sanitizeValue(v, 0, maxDepth)
	if err != nil {
		bumpBlocked()
		return nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		bumpBlocked()
		return nil, apperr.New(apperr.InvalidInput, "value is not JSON-serializable: "+err.Error())
	}
	if len(data) > MaxPayloadBytes {
		bumpBlocked()
		return nil, apperr.New(apperr.PayloadTooLarge, fmt.Sprintf("serialized payload exceeds %d bytes", MaxPayloadBytes))
	}

	return result, nil
}

func sanitizeValue(v interface{}, depth, maxDepth int) (interface{}, error) {
	if depth > maxDepth {
		return nil, apperr.New(apperr.DepthExceeded, fmt.Sprintf("nesting depth exceeds %d", maxDepth))
	}

	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			key := k
			if len(key) > 256 {
				key = key[:256]
			}
			sv, err := sanitizeValue(val[k], depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			out[key] = sv
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			sv, err := sanitizeValue(item, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			out[i] = sv
		}
		return out, nil
	case string:
		s := stripControlBytes(val)
		if len(s) > MaxStringLength {
			s = s[:MaxStringLength]
			bumpModified()
		}
		return s, nil
	case float64, bool, nil, int, int64:
		return val, nil
	default:
		// Unrecognized concrete types (custom structs passed directly
		// instead of decoded JSON) are rendered through their JSON form
		// so the depth/size limits still apply uniformly.
		data, err := json.Marshal(val)
		if err != nil {
			return nil, apperr.New(apperr.InvalidInput, "unsanitizable value type")
		}
		var generic interface{}
		if err := json.Unmarshal(data, &generic); err != nil {
			return nil, apperr.New(apperr.InvalidInput, "unsanitizable value type")
		}
		return sanitizeValue(generic, depth, maxDepth)
	}
}
