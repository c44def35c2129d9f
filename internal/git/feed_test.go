package git

import (
	"testing"
	"time"

	"github.com/ulm/pkgcheck/internal/ebuild"
)

const feedFixture = `>1111111111222233334444555566667777888899 1700000000
A	dev-libs/foo/foo-1.0.ebuild
A	dev-libs/foo/metadata.xml
>aaaabbbbccccddddeeeeffff0000111122223333 1700000100
M	dev-libs/foo/foo-1.0.ebuild
A	app-misc/bar/bar-2.0.ebuild
>deadbeefdeadbeefdeadbeefdeadbeefdeadbeef 1700000200
D	dev-libs/foo/foo-1.0.ebuild
M	eclass/foo.eclass
M	profiles/arch.list
`

func TestParseFeed_GroupsPerPackageInOrder(t *testing.T) {
	batches := ParseFeed(feedFixture)
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}

	foo := batches[0]
	if foo.Key != (ebuild.Key{Category: "dev-libs", Package: "foo"}) {
		t.Errorf("first batch key = %v", foo.Key)
	}
	if len(foo.Records) != 3 {
		t.Fatalf("expected 3 records for dev-libs/foo, got %d", len(foo.Records))
	}
	wantStatuses := []Status{StatusAdded, StatusModified, StatusDeleted}
	for i, want := range wantStatuses {
		if foo.Records[i].Status != want {
			t.Errorf("record %d status = %v, want %v", i, foo.Records[i].Status, want)
		}
	}
	if foo.Records[0].Commit != "1111111111222233334444555566667777888899" {
		t.Errorf("record 0 commit = %q", foo.Records[0].Commit)
	}
	if !foo.Records[0].When.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("record 0 time = %v", foo.Records[0].When)
	}

	bar := batches[1]
	if bar.Key != (ebuild.Key{Category: "app-misc", Package: "bar"}) {
		t.Errorf("second batch key = %v", bar.Key)
	}
	if len(bar.Records) != 1 || bar.Records[0].Version != "2.0" {
		t.Errorf("app-misc/bar records = %v", bar.Records)
	}
}

func TestParseFeed_IgnoresNonEbuildPaths(t *testing.T) {
	batches := ParseFeed(feedFixture)
	for _, b := range batches {
		for _, rec := range b.Records {
			if rec.Version == "" {
				t.Errorf("record without version slipped through: %+v", rec)
			}
		}
	}
}

func TestParseFeed_Empty(t *testing.T) {
	if batches := ParseFeed(""); len(batches) != 0 {
		t.Errorf("expected no batches, got %v", batches)
	}
}

func TestParseStatusLine(t *testing.T) {
	tests := []struct {
		line   string
		status Status
		path   string
		ok     bool
	}{
		{"A\tdev-libs/foo/foo-1.0.ebuild", StatusAdded, "dev-libs/foo/foo-1.0.ebuild", true},
		{"M\tx/y/z", StatusModified, "x/y/z", true},
		{"D\tx/y/z", StatusDeleted, "x/y/z", true},
		{"R100\told\tnew", 0, "", false},
		{"garbage", 0, "", false},
	}
	for _, tt := range tests {
		status, path, ok := parseStatusLine(tt.line)
		if ok != tt.ok || (ok && (status != tt.status || path != tt.path)) {
			t.Errorf("parseStatusLine(%q) = (%v, %q, %v), want (%v, %q, %v)",
				tt.line, status, path, ok, tt.status, tt.path, tt.ok)
		}
	}
}
