// Package normalize rewrites time-bearing fields of provider JSON whose exact
// schema is not known in advance.
package normalize

import (
	"strings"
	"time"

	"github.com/claude/vitalsync/internal/models"
)

// DefaultTimeKeys are the lower-case key substrings that mark a field as
// holding a timestamp.
var DefaultTimeKeys = []string{"timestamp", "time", "startgmt", "endgmt", "readingtime"}

// looseLayouts are tried in order against string leaves. Strings carrying an
// offset or a trailing Z match neither and pass through untouched.
var looseLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// KeyMatcher decides whether the value under key is a leaf to transform.
type KeyMatcher func(key string) bool

// LeafFunc maps a matched leaf to its replacement.
type LeafFunc func(v any) any

// Rewriter is a structure-preserving visitor over decoded JSON: mappings
// (map[string]any), sequences ([]any) and scalars. Values under matched keys
// are replaced by Leaf without further descent; everything else is walked.
type Rewriter struct {
	Match KeyMatcher
	Leaf  LeafFunc
}

// NewTimeRewriter returns a Rewriter that canonicalizes timestamps under any
// key containing one of keys (case-insensitive). Nil keys means DefaultTimeKeys.
func NewTimeRewriter(keys []string) *Rewriter {
	if len(keys) == 0 {
		keys = DefaultTimeKeys
	}
	lowered := make([]string, len(keys))
	for i, k := range keys {
		lowered[i] = strings.ToLower(k)
	}
	return &Rewriter{
		Match: func(key string) bool {
			k := strings.ToLower(key)
			for _, term := range lowered {
				if strings.Contains(k, term) {
					return true
				}
			}
			return false
		},
		Leaf: CanonicalLeaf,
	}
}

// Rewrite returns a transformed copy of node. Input maps and slices are not
// modified; the output has the same keys and sequence lengths.
func (r *Rewriter) Rewrite(node any) any {
	switch n := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			if r.Match(k) {
				out[k] = r.Leaf(v)
			} else {
				out[k] = r.Rewrite(v)
			}
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = r.Rewrite(v)
		}
		return out
	default:
		return node
	}
}

// CanonicalLeaf formats v in models.CanonicalLayout when ParseLoose accepts
// it and returns v unchanged otherwise.
func CanonicalLeaf(v any) any {
	t, ok := ParseLoose(v)
	if !ok {
		return v
	}
	return models.FormatCanonical(t)
}

// ParseLoose reads a millisecond epoch number or an offset-less
// "YYYY-MM-DDTHH:MM:SS[.ffffff]" string as UTC. It never fails loudly.
func ParseLoose(v any) (time.Time, bool) {
	if s, ok := v.(string); ok {
		for _, layout := range looseLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	if ms, ok := models.AsFloat(v); ok {
		return models.FromEpochMillis(ms, time.UTC), true
	}
	return time.Time{}, false
}

// CountLeaves counts scalar leaves of a decoded JSON tree.
func CountLeaves(node any) int {
	switch n := node.(type) {
	case map[string]any:
		total := 0
		for _, v := range n {
			total += CountLeaves(v)
		}
		return total
	case []any:
		total := 0
		for _, v := range n {
			total += CountLeaves(v)
		}
		return total
	default:
		return 1
	}
}
