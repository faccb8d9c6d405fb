package types

import (
	"fmt"
	"sort"
	"strings"
)

// AttributeBag maps a variation attribute key (color, size) to its ordered
// values. Stored as jsonb via the gorm json serializer.
type AttributeBag map[string][]string

// Normalize lowercases keys, trims values and drops empties.
func (b AttributeBag) Normalize() AttributeBag {
	if b == nil {
		return nil
	}
	out := make(AttributeBag, len(b))
	for key, values := range b {
		k := strings.ToLower(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		cleaned := make([]string, 0, len(values))
		for _, v := range values {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			out[k] = cleaned
		}
	}
	return out
}

// Validate rejects keys outside the allowed set. A nil allowed set permits
// any key.
func (b AttributeBag) Validate(allowed map[string]struct{}) error {
	if allowed == nil {
		return nil
	}
	var bad []string
	for key := range b {
		if _, ok := allowed[key]; !ok {
			bad = append(bad, key)
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return fmt.Errorf("unknown attribute keys: %s", strings.Join(bad, ", "))
	}
	return nil
}

// Get returns the values for key (case-insensitive).
func (b AttributeBag) Get(key string) []string {
	if b == nil {
		return nil
	}
	return b[strings.ToLower(strings.TrimSpace(key))]
}
