package dataprocessing

import (
	"fmt"
	"strings"

	"orderpulse/internal/table"
)

// StatusMapping maps normalized raw statuses to canonical values
type StatusMapping map[string]string

// StatusNormalizer canonicalizes free-text order statuses
type StatusNormalizer struct {
	mapping StatusMapping
}

// NewStatusNormalizer validates mapping and returns a normalizer. Keys and
// targets are trimmed and lowercased, and every target must map to itself
// (or be unmapped) so that Normalize is idempotent.
func NewStatusNormalizer(mapping StatusMapping) (*StatusNormalizer, error) {
	m := make(StatusMapping, len(mapping))
	for k, v := range mapping {
		key := NormalizeText(k)
		if key == "" {
			return nil, fmt.Errorf("status mapping contains an empty key")
		}
		m[key] = NormalizeText(v)
	}
	for k, v := range m {
		if target, ok := m[v]; ok && target != v {
			return nil, fmt.Errorf("status mapping %q -> %q is not stable: %q maps to %q", k, v, v, target)
		}
	}
	return &StatusNormalizer{mapping: m}, nil
}

// NormalizeText trims surrounding whitespace and lowercases
func NormalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalize returns the canonical status for raw. Unmapped values pass
// through trimmed and lowercased.
func (n *StatusNormalizer) Normalize(raw string) string {
	s := NormalizeText(raw)
	if mapped, ok := n.mapping[s]; ok {
		return mapped
	}
	return s
}

// Known reports whether raw normalizes through an explicit mapping entry
func (n *StatusNormalizer) Known(raw string) bool {
	_, ok := n.mapping[NormalizeText(raw)]
	return ok
}

// NormalizeColumn derives dst from src. Null statuses stay null. It returns
// the distinct unmapped values seen, for logging.
func (n *StatusNormalizer) NormalizeColumn(frame *table.Frame, src, dst string) (*table.Frame, []string, error) {
	col, ok := frame.Column(src)
	if !ok {
		return frame, nil, nil
	}

	unknown := map[string]bool{}
	var unknownList []string
	out := table.Map(AsText(col), dst, func(v string) (string, bool) {
		if !n.Known(v) {
			norm := NormalizeText(v)
			if !unknown[norm] {
				unknown[norm] = true
				unknownList = append(unknownList, norm)
			}
		}
		return n.Normalize(v), true
	})

	result, err := frame.With(out)
	if err != nil {
		return nil, nil, err
	}
	return result, unknownList, nil
}
