package store

import (
	"fmt"
	"time"

	"github.com/ulm/pkgcheck/internal/check"
	"github.com/ulm/pkgcheck/internal/ebuild"
)

// Scan operations

// InsertScan records the start of a scan and returns its id.
func (s *Store) InsertScan(createdAt time.Time, repo, upstream string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO scans (created_at, repo, upstream) VALUES (?, ?, ?)`,
		createdAt.Format(time.RFC3339), repo, upstream,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get scan id: %w", err)
	}
	return id, nil
}

// FinishScan records the final counters for a scan.
func (s *Store) FinishScan(scanID int64, packages, errors, warnings int) error {
	_, err := s.db.Exec(
		`UPDATE scans SET packages = ?, errors = ?, warnings = ? WHERE id = ?`,
		packages, errors, warnings, scanID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish scan %d: %w", scanID, err)
	}
	return nil
}

// ListScans returns all recorded scans, newest first.
func (s *Store) ListScans() ([]*Scan, error) {
	rows, err := s.db.Query(`
		SELECT id, created_at, repo, upstream, packages, errors, warnings
		FROM scans ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var scans []*Scan
	for rows.Next() {
		var scan Scan
		var createdAt string
		if err := rows.Scan(&scan.ID, &createdAt, &scan.Repo, &scan.Upstream,
			&scan.Packages, &scan.Errors, &scan.Warnings); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			scan.CreatedAt = t
		}
		scans = append(scans, &scan)
	}
	return scans, rows.Err()
}

// Finding operations

// InsertFinding persists one emitted finding under a scan.
func (s *Store) InsertFinding(scanID int64, f check.Finding) error {
	_, err := s.db.Exec(
		`INSERT INTO findings (scan_id, kind, severity, target, message)
		 VALUES (?, ?, ?, ?, ?)`,
		scanID, f.Kind.String(), f.Severity().String(), f.Target(), f.Message(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert finding: %w", err)
	}
	return nil
}

// ListFindings returns the findings recorded for one scan, in emission order.
func (s *Store) ListFindings(scanID int64) ([]*FindingRow, error) {
	rows, err := s.db.Query(`
		SELECT scan_id, kind, severity, target, message
		FROM findings WHERE scan_id = ? ORDER BY id`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list findings: %w", err)
	}
	defer rows.Close()

	var findings []*FindingRow
	for rows.Next() {
		var row FindingRow
		if err := rows.Scan(&row.ScanID, &row.Kind, &row.Severity,
			&row.Target, &row.Message); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		findings = append(findings, &row)
	}
	return findings, rows.Err()
}

// Added-package index operations

// InsertAddedPackage records one first-addition event for a scan.
func (s *Store) InsertAddedPackage(scanID int64, rec check.AddedRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO added_packages (scan_id, category, package, version, commit_id, added_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		scanID, rec.Atom.Category, rec.Atom.Package, rec.Atom.Version,
		rec.Commit, rec.Date.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert added package %s: %w", rec.Atom, err)
	}
	return nil
}

// AddedIndex returns a check.AddedIndex view over the added-package rows of
// one scan. The view is read-only and safe for concurrent use.
func (s *Store) AddedIndex(scanID int64) check.AddedIndex {
	return &addedIndex{store: s, scanID: scanID}
}

type addedIndex struct {
	store  *Store
	scanID int64
}

// Match returns the first-addition events for a package, oldest first.
func (a *addedIndex) Match(key ebuild.Key) ([]check.AddedRecord, error) {
	rows, err := a.store.db.Query(`
		SELECT version, commit_id, added_at
		FROM added_packages
		WHERE scan_id = ? AND category = ? AND package = ?
		ORDER BY added_at, version`,
		a.scanID, key.Category, key.Package)
	if err != nil {
		return nil, fmt.Errorf("failed to query added packages for %s: %w", key, err)
	}
	defer rows.Close()

	var records []check.AddedRecord
	for rows.Next() {
		var version, commit, addedAt string
		if err := rows.Scan(&version, &commit, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec := check.AddedRecord{
			Atom:   ebuild.Atom{Category: key.Category, Package: key.Package, Version: version},
			Commit: commit,
		}
		if t, err := time.Parse(time.RFC3339, addedAt); err == nil {
			rec.Date = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
