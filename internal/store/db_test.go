package store

import (
	"testing"
	"time"

	"github.com/ulm/pkgcheck/internal/check"
	"github.com/ulm/pkgcheck/internal/ebuild"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.CreateSchema(); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	return s
}

func TestScanLifecycle(t *testing.T) {
	s := newTestStore(t)

	started := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	id, err := s.InsertScan(started, "/srv/repo", "origin/main")
	if err != nil {
		t.Fatalf("InsertScan: %v", err)
	}
	if err := s.FinishScan(id, 3, 2, 1); err != nil {
		t.Fatalf("FinishScan: %v", err)
	}

	scans, err := s.ListScans()
	if err != nil {
		t.Fatalf("ListScans: %v", err)
	}
	if len(scans) != 1 {
		t.Fatalf("expected 1 scan, got %d", len(scans))
	}
	scan := scans[0]
	if scan.ID != id || scan.Repo != "/srv/repo" || scan.Upstream != "origin/main" {
		t.Errorf("scan = %+v", scan)
	}
	if scan.Packages != 3 || scan.Errors != 2 || scan.Warnings != 1 {
		t.Errorf("counters = %d/%d/%d", scan.Packages, scan.Errors, scan.Warnings)
	}
	if !scan.CreatedAt.Equal(started) {
		t.Errorf("CreatedAt = %v, want %v", scan.CreatedAt, started)
	}
}

func TestListScans_NewestFirst(t *testing.T) {
	s := newTestStore(t)

	first, _ := s.InsertScan(time.Now(), "/r", "u")
	second, _ := s.InsertScan(time.Now(), "/r", "u")

	scans, err := s.ListScans()
	if err != nil {
		t.Fatalf("ListScans: %v", err)
	}
	if len(scans) != 2 || scans[0].ID != second || scans[1].ID != first {
		t.Errorf("unexpected order: %v, %v", scans[0].ID, scans[1].ID)
	}
}

func TestFindings(t *testing.T) {
	s := newTestStore(t)
	id, err := s.InsertScan(time.Now(), "/r", "u")
	if err != nil {
		t.Fatalf("InsertScan: %v", err)
	}

	f := check.Finding{
		Kind:     check.KindDirectStableKeywords,
		Atom:     ebuild.Atom{Category: "dev-libs", Package: "foo", Version: "1.0"},
		Keywords: []string{"amd64"},
	}
	if err := s.InsertFinding(id, f); err != nil {
		t.Fatalf("InsertFinding: %v", err)
	}

	rows, err := s.ListFindings(id)
	if err != nil {
		t.Fatalf("ListFindings: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(rows))
	}
	row := rows[0]
	if row.Kind != "DirectStableKeywords" || row.Severity != "error" {
		t.Errorf("row = %+v", row)
	}
	if row.Target != "dev-libs/foo-1.0" {
		t.Errorf("Target = %q", row.Target)
	}
	if row.Message != "directly committed with stable keyword: [ amd64 ]" {
		t.Errorf("Message = %q", row.Message)
	}
}

func TestAddedIndex(t *testing.T) {
	s := newTestStore(t)
	id, err := s.InsertScan(time.Now(), "/r", "u")
	if err != nil {
		t.Fatalf("InsertScan: %v", err)
	}

	key := ebuild.Key{Category: "dev-libs", Package: "foo"}
	early := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	records := []check.AddedRecord{
		{Atom: ebuild.Atom{Category: "dev-libs", Package: "foo", Version: "2.0"}, Commit: "c2", Date: late},
		{Atom: ebuild.Atom{Category: "dev-libs", Package: "foo", Version: "1.0"}, Commit: "c1", Date: early},
	}
	for _, rec := range records {
		if err := s.InsertAddedPackage(id, rec); err != nil {
			t.Fatalf("InsertAddedPackage: %v", err)
		}
	}

	got, err := s.AddedIndex(id).Match(key)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	// Oldest first.
	if !got[0].Date.Equal(early) || got[0].Atom.Version != "1.0" {
		t.Errorf("first record = %+v", got[0])
	}
	if !got[1].Date.Equal(late) {
		t.Errorf("second record = %+v", got[1])
	}
}

func TestAddedIndex_ScopedToScan(t *testing.T) {
	s := newTestStore(t)
	first, _ := s.InsertScan(time.Now(), "/r", "u")
	second, _ := s.InsertScan(time.Now(), "/r", "u")

	rec := check.AddedRecord{
		Atom: ebuild.Atom{Category: "dev-libs", Package: "foo", Version: "1.0"},
		Date: time.Now().UTC(),
	}
	if err := s.InsertAddedPackage(first, rec); err != nil {
		t.Fatalf("InsertAddedPackage: %v", err)
	}

	got, err := s.AddedIndex(second).Match(ebuild.Key{Category: "dev-libs", Package: "foo"})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("records leaked across scans: %v", got)
	}
}
