// Package cfgmap reads typed values out of the generic settings maps that
// builders receive from configuration. TOML and JSON decoding produce
// int64, float64 and []any values, so every accessor tolerates them.
package cfgmap

import (
	"strings"
	"time"
)

// String returns cfg[key] as a string, or def if absent or not a string.
func String(cfg map[string]any, key, def string) string {
	if v, ok := cfg[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Int returns cfg[key] as an int, or def if absent or not numeric.
func Int(cfg map[string]any, key string, def int) int {
	if n, ok := ToInt(cfg[key]); ok {
		return n
	}
	return def
}

// ToInt converts a decoded numeric value to an int.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// Float returns cfg[key] as a float64, or def if absent or not numeric.
func Float(cfg map[string]any, key string, def float64) float64 {
	switch v := cfg[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// Bool returns cfg[key] as a bool, or def if absent or not a bool.
func Bool(cfg map[string]any, key string, def bool) bool {
	if v, ok := cfg[key].(bool); ok {
		return v
	}
	return def
}

// Seconds returns cfg[key], a number of seconds, as a duration.
func Seconds(cfg map[string]any, key string, def time.Duration) time.Duration {
	n := Int(cfg, key, -1)
	if n < 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

// Strings returns cfg[key] as a string slice. A string value is split on
// commas; blank entries are dropped.
func Strings(cfg map[string]any, key string) []string {
	raw := ToStrings(cfg[key])
	if v, ok := cfg[key].(string); ok {
		raw = strings.Split(v, ",")
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ToStrings converts a decoded list to a string slice, dropping non-string
// items. A single string becomes a one-element slice.
func ToStrings(v any) []string {
	switch list := v.(type) {
	case string:
		return []string{list}
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
