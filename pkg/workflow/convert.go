// Package workflow reshapes n8n credential and workflow exports into the form
// accepted by DataProtector, which rejects arrays and any field name outside
// [A-Za-z0-9_].
package workflow

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
)

// ConvertArraysToObjects rewrites arrays as objects keyed by their index and
// sanitizes every object key, recursively. Scalars are returned as is.
//
// Keys that collide after sanitization are resolved in sorted order of the
// original keys, the last one winning.
func ConvertArraysToObjects(v any) any {
	switch t := v.(type) {
	case []any:
		out := make(map[string]any, len(t))
		for i, item := range t {
			out[strconv.Itoa(i)] = ConvertArraysToObjects(item)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := make(map[string]any, len(t))
		for _, k := range keys {
			out[SanitizeKey(k)] = ConvertArraysToObjects(t[k])
		}
		return out
	default:
		return v
	}
}

// SanitizeKey replaces each character outside [A-Za-z0-9_] with an underscore,
// one per UTF-16 code unit, so characters outside the BMP become "__".
func SanitizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		if isKeyRune(r) {
			b.WriteRune(r)
		} else if n := len(utf16.Encode([]rune{r})); n > 1 {
			b.WriteString(strings.Repeat("_", n))
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// IsSanitizedKey reports whether key only holds [A-Za-z0-9_].
func IsSanitizedKey(key string) bool {
	for _, r := range key {
		if !isKeyRune(r) {
			return false
		}
	}
	return true
}

func isKeyRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
