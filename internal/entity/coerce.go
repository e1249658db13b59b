package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cbrgm/hclocal/internal/protocol"
)

// Coerce implements §4.5.1's value coercion table for one (protocol_type,
// value) pair. An absent protocol_type passes the value through
// unchanged.
func Coerce(pt protocol.ProtocolType, raw any) any {
	switch pt {
	case protocol.Boolean:
		return coerceBool(raw)
	case protocol.Integer:
		return coerceInt(raw)
	case protocol.Float:
		return coerceFloat(raw)
	case protocol.String:
		return coerceString(raw)
	case protocol.Object:
		return coerceObject(raw)
	default:
		return raw
	}
}

func coerceBool(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		switch strings.ToLower(v) {
		case "true":
			return true
		case "false":
			return false
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f != 0
		}
		return truthy(v)
	default:
		return truthy(v)
	}
}

func coerceInt(raw any) int64 {
	switch v := raw.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return int64(f)
		}
		return 0
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func coerceFloat(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return 0
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func coerceString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

func coerceObject(raw any) any {
	s, ok := raw.(string)
	if !ok {
		return raw
	}
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return s
	}
	return parsed
}

// truthy is the fallback for values Boolean coercion can't otherwise
// interpret: non-empty strings, non-nil values, and non-zero numbers are
// true.
func truthy(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case float64:
		return v != 0
	case int64:
		return v != 0
	case int:
		return v != 0
	default:
		return raw != nil
	}
}
