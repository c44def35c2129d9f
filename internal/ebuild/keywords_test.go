package ebuild

import (
	"reflect"
	"testing"
)

func TestParseKeyword(t *testing.T) {
	tests := []struct {
		kw   string
		arch string
		tier Tier
	}{
		{"amd64", "amd64", TierStable},
		{"~x86", "x86", TierUnstable},
		{"-mips", "mips", TierMasked},
		{"~arm64", "arm64", TierUnstable},
		{"", "", TierStable},
	}
	for _, tt := range tests {
		arch, tier := ParseKeyword(tt.kw)
		if arch != tt.arch || tier != tt.tier {
			t.Errorf("ParseKeyword(%q) = (%q, %v), want (%q, %v)",
				tt.kw, arch, tier, tt.arch, tt.tier)
		}
	}
}

func TestSortKeywords_CanonicalOrder(t *testing.T) {
	got := SortKeywords([]string{"~x86", "amd64", "-mips", "~amd64", "x86"})
	want := []string{"amd64", "~amd64", "-mips", "x86", "~x86"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortKeywords() = %v, want %v", got, want)
	}
}

func TestSortKeywords_DoesNotMutateInput(t *testing.T) {
	in := []string{"~x86", "amd64"}
	SortKeywords(in)
	if !reflect.DeepEqual(in, []string{"~x86", "amd64"}) {
		t.Errorf("input mutated: %v", in)
	}
}

func TestCompareKeywords_SamePlatformTiers(t *testing.T) {
	if CompareKeywords("amd64", "~amd64") >= 0 {
		t.Error("stable keyword should sort before unstable for the same platform")
	}
	if CompareKeywords("~amd64", "-amd64") >= 0 {
		t.Error("unstable keyword should sort before masked for the same platform")
	}
	if CompareKeywords("~amd64", "~amd64") != 0 {
		t.Error("identical keywords should compare equal")
	}
}
