// Package matcher resolves a target strike against the keys of a snapshot.
//
// The source's key format does not reliably match the strikes file, so three
// tiers are tried in order and the first candidate (in snapshot order) wins:
//
//  1. exact: the target is itself a key
//  2. normalized: keys and target compared with separators and ".00" removed
//  3. suffix: the last SuffixLen normalized characters agree
//
// The suffix tier tolerates a source that truncates the leading digits of
// large strikes. It can also pair two different strikes that share trailing
// digits, which is why callers get the tier back alongside the key.
package matcher

import (
	"strings"

	"StrikeSentinel/internal/model"
)

// SuffixLen is the number of trailing normalized characters compared by the suffix tier.
const SuffixLen = 5

// Normalize strips thousands separators and a trailing ".00".
func Normalize(s string) string {
	return strings.TrimSuffix(strings.ReplaceAll(s, ",", ""), ".00")
}

// Match returns the key of available that matches target and the tier that
// matched. It never fails; an unmatched target yields ("", MatchNotFound).
func Match(target string, available []string) (string, model.MatchStatus) {
	for _, k := range available {
		if k == target {
			return k, model.MatchExact
		}
	}

	norm := Normalize(target)
	normalized := make([]string, len(available))
	for i, k := range available {
		normalized[i] = Normalize(k)
		if normalized[i] == norm {
			return k, model.MatchNormalized
		}
	}

	if len(norm) < SuffixLen {
		return "", model.MatchNotFound
	}
	want := norm[len(norm)-SuffixLen:]
	for i, k := range available {
		n := normalized[i]
		if len(n) >= SuffixLen && n[len(n)-SuffixLen:] == want {
			return k, model.MatchSuffix
		}
	}
	return "", model.MatchNotFound
}
