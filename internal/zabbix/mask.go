package zabbix

import (
	"encoding/json"
	"strings"
)

// sensitiveKeys are matched as substrings of lowercased key names; matching
// values never reach the run log.
var sensitiveKeys = []string{"password", "pwd", "auth", "token", "session", "user"}

// masked renders v as JSON with credential-bearing fields replaced, for safe
// inclusion in the request/response trace.
func masked(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "<unserializable>"
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "<unserializable>"
	}
	out, err := json.Marshal(maskValue(decoded, false))
	if err != nil {
		return "<unserializable>"
	}
	return string(out)
}

func maskValue(v any, sensitive bool) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for key, item := range value {
			out[key] = maskValue(item, sensitive || isSensitiveKey(key))
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = maskValue(item, sensitive)
		}
		return out
	case string:
		if sensitive && value != "" {
			return "********"
		}
		return value
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	lowered := strings.ToLower(key)
	for _, needle := range sensitiveKeys {
		if strings.Contains(lowered, needle) {
			return true
		}
	}
	return false
}
