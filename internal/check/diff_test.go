package check

import (
	"reflect"
	"testing"
)

var validArches = map[string]struct{}{
	"amd64": {},
	"x86":   {},
	"arm64": {},
}

func TestDiffKeywords_StableDrop(t *testing.T) {
	stable, unstable := DiffKeywords(
		[]string{"amd64", "~x86"},
		[]string{"~x86"},
		validArches,
	)
	if !reflect.DeepEqual(stable, []string{"amd64"}) {
		t.Errorf("stable = %v, want [amd64]", stable)
	}
	if len(unstable) != 0 {
		t.Errorf("unstable = %v, want empty", unstable)
	}
}

func TestDiffKeywords_UnstableDrop(t *testing.T) {
	stable, unstable := DiffKeywords(
		[]string{"~x86", "amd64"},
		[]string{"amd64"},
		validArches,
	)
	if len(stable) != 0 {
		t.Errorf("stable = %v, want empty", stable)
	}
	if !reflect.DeepEqual(unstable, []string{"~x86"}) {
		t.Errorf("unstable = %v, want [~x86]", unstable)
	}
}

func TestDiffKeywords_UnclassifiableExcluded(t *testing.T) {
	stable, unstable := DiffKeywords(
		[]string{"-sparc", "~sparc", "mips", "amd64-fbsd", ""},
		nil,
		validArches,
	)
	if len(stable) != 0 || len(unstable) != 0 {
		t.Errorf("unclassifiable keywords leaked: stable=%v unstable=%v", stable, unstable)
	}
}

func TestDiffKeywords_CanonicalOrder(t *testing.T) {
	stable, unstable := DiffKeywords(
		[]string{"x86", "~x86", "amd64", "~amd64"},
		nil,
		validArches,
	)
	if !reflect.DeepEqual(stable, []string{"amd64", "x86"}) {
		t.Errorf("stable = %v, want [amd64 x86]", stable)
	}
	if !reflect.DeepEqual(unstable, []string{"~amd64", "~x86"}) {
		t.Errorf("unstable = %v, want [~amd64 ~x86]", unstable)
	}
}

// The two result sets are always disjoint and only ever contain keywords
// from old minus new.
func TestDiffKeywords_DisjointSubset(t *testing.T) {
	old := []string{"amd64", "~amd64", "x86", "~x86", "-mips", "~arm64", "ppc"}
	new := []string{"x86", "~arm64"}

	stable, unstable := DiffKeywords(old, new, validArches)

	inStable := make(map[string]bool)
	for _, kw := range stable {
		inStable[kw] = true
	}
	for _, kw := range unstable {
		if inStable[kw] {
			t.Errorf("keyword %q classified into both sets", kw)
		}
	}

	dropped := make(map[string]bool)
	for _, kw := range old {
		dropped[kw] = true
	}
	for _, kw := range new {
		delete(dropped, kw)
	}
	for _, kw := range append(append([]string{}, stable...), unstable...) {
		if !dropped[kw] {
			t.Errorf("keyword %q not part of old-new", kw)
		}
	}
}

func TestDiffKeywords_NothingDropped(t *testing.T) {
	stable, unstable := DiffKeywords(
		[]string{"amd64", "~x86"},
		[]string{"amd64", "~x86", "~arm64"},
		validArches,
	)
	if len(stable) != 0 || len(unstable) != 0 {
		t.Errorf("expected no drops, got stable=%v unstable=%v", stable, unstable)
	}
}
