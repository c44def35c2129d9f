package ebuild

import "sort"

// Tier is the support level a keyword declares for its platform.
type Tier int

const (
	// TierStable is an unprefixed keyword (e.g. "amd64").
	TierStable Tier = iota
	// TierUnstable is a "~"-prefixed keyword (e.g. "~x86").
	TierUnstable
	// TierMasked is a "-"-prefixed keyword (e.g. "-mips").
	TierMasked
)

// ParseKeyword splits a keyword into its platform identifier and tier.
// This is the single place the prefix convention is interpreted; every
// check that looks at keyword tiers goes through it.
func ParseKeyword(kw string) (arch string, tier Tier) {
	if kw == "" {
		return "", TierStable
	}
	switch kw[0] {
	case '~':
		return kw[1:], TierUnstable
	case '-':
		return kw[1:], TierMasked
	default:
		return kw, TierStable
	}
}

// CompareKeywords is the canonical keyword ordering: platform identifiers
// compare lexically with prefixes stripped, and on the same platform the
// stable form sorts before unstable before masked.
func CompareKeywords(a, b string) int {
	archA, tierA := ParseKeyword(a)
	archB, tierB := ParseKeyword(b)
	if archA != archB {
		if archA < archB {
			return -1
		}
		return 1
	}
	if tierA != tierB {
		if tierA < tierB {
			return -1
		}
		return 1
	}
	return 0
}

// SortKeywords returns a new slice sorted by the canonical keyword order.
func SortKeywords(keywords []string) []string {
	sorted := make([]string, len(keywords))
	copy(sorted, keywords)
	sort.Slice(sorted, func(i, j int) bool {
		return CompareKeywords(sorted[i], sorted[j]) < 0
	})
	return sorted
}
