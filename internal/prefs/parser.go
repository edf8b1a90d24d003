package prefs

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// NoPreferencesSentinel is what the model is instructed to answer when the
// exchange contains nothing worth remembering.
const NoPreferencesSentinel = "NONE"

// ParsePreferences turns raw model output into preference pairs using a
// three-tier fallback:
//
//  1. strict JSON parse of the whole output
//  2. parse of the first brace-delimited span found in the output
//  3. give up and report no preferences
//
// Model output is not guaranteed well-formed, so the ladder is required
// behavior rather than defensive decoration.
func ParsePreferences(content string) map[string]string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || strings.EqualFold(trimmed, NoPreferencesSentinel) {
		return map[string]string{}
	}

	if prefs, ok := parseObject(trimmed); ok {
		return prefs
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		if prefs, ok := parseObject(trimmed[start : end+1]); ok {
			return prefs
		}
	}

	return map[string]string{}
}

func parseObject(s string) (map[string]string, bool) {
	var raw map[string]any
	if err := sonic.UnmarshalString(s, &raw); err != nil {
		return nil, false
	}

	prefs := make(map[string]string, len(raw))
	for name, value := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				prefs[name] = v
			}
		case nil:
			// skip explicit nulls
		default:
			prefs[name] = fmt.Sprint(v)
		}
	}
	return prefs, true
}
