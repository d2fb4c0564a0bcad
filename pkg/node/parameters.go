package node

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Parameters map[string]any

// resolver looks a parameter up on the item first, then on the node.
type resolver struct {
	item Parameters
	node Parameters
}

func (r resolver) lookup(name string) (any, bool) {
	if v, ok := r.item[name]; ok && v != nil {
		return v, true
	}
	if v, ok := r.node[name]; ok && v != nil {
		return v, true
	}
	return nil, false
}

func (r resolver) String(name string, fallback string) string {
	v, ok := r.lookup(name)
	if !ok {
		return fallback
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		// the host hands over json parameters either as text or already parsed
		if b, err := json.Marshal(t); err == nil {
			return string(b)
		}
		return fmt.Sprint(t)
	}
}

func (r resolver) Uint(name string, fallback uint64) (uint64, error) {
	v, ok := r.lookup(name)
	if !ok {
		return fallback, nil
	}
	switch t := v.(type) {
	case float64:
		if t < 0 || t != float64(uint64(t)) {
			return 0, fmt.Errorf("%s must be a non-negative integer", name)
		}
		return uint64(t), nil
	case json.Number:
		return parseUint(name, t.String())
	case string:
		if strings.TrimSpace(t) == "" {
			return fallback, nil
		}
		return parseUint(name, strings.TrimSpace(t))
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}

func parseUint(name string, s string) (uint64, error) {
	if n, err := strconv.ParseUint(s, 10, 64); err != nil {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	} else {
		return n, nil
	}
}
