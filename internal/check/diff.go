package check

import "github.com/ulm/pkgcheck/internal/ebuild"

// DiffKeywords classifies the keywords present in old but not in new into
// stable and unstable drops. A dropped keyword counts as stable when it is
// an unprefixed member of validArches, and as unstable when it is a
// "~"-prefixed member. Anything else (masked, malformed, or unknown
// platforms) belongs to neither set: what we cannot classify we do not flag.
// Both result slices are in canonical keyword order.
func DiffKeywords(old, new []string, validArches map[string]struct{}) (stableDropped, unstableDropped []string) {
	kept := make(map[string]struct{}, len(new))
	for _, kw := range new {
		kept[kw] = struct{}{}
	}

	seen := make(map[string]struct{}, len(old))
	for _, kw := range old {
		if _, ok := kept[kw]; ok {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}

		arch, tier := ebuild.ParseKeyword(kw)
		if _, valid := validArches[arch]; !valid {
			continue
		}
		switch tier {
		case ebuild.TierStable:
			stableDropped = append(stableDropped, kw)
		case ebuild.TierUnstable:
			unstableDropped = append(unstableDropped, kw)
		}
	}

	return ebuild.SortKeywords(stableDropped), ebuild.SortKeywords(unstableDropped)
}
