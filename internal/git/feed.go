// Package git collects the unpushed commit feed of an ebuild repository and
// extracts historical snapshots of it. Both operations shell out to the git
// binary; no timeout is imposed on it, so a hung git process hangs the scan.
package git

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ulm/pkgcheck/internal/ebuild"
)

// Status describes what a commit did to one ebuild.
type Status int

const (
	// StatusAdded means the ebuild did not exist before the commit.
	StatusAdded Status = iota
	// StatusModified means the ebuild existed and was changed.
	StatusModified
	// StatusDeleted means the commit removed the ebuild.
	StatusDeleted
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusModified:
		return "modified"
	case StatusDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Record is one commit's effect on one ebuild.
type Record struct {
	Category string
	Package  string
	Version  string
	Commit   string
	Status   Status
	When     time.Time
}

// Key returns the unversioned package identifier for the record.
func (r Record) Key() ebuild.Key {
	return ebuild.Key{Category: r.Category, Package: r.Package}
}

// Atom returns the versioned package identifier for the record.
func (r Record) Atom() ebuild.Atom {
	return ebuild.Atom{Category: r.Category, Package: r.Package, Version: r.Version}
}

// Batch holds all records touching one package across the scanned range, in
// commit order (oldest first).
type Batch struct {
	Key     ebuild.Key
	Records []Record
}

// Collect runs git log over upstream..HEAD in the repository at root and
// groups the resulting records into per-package batches. Batches appear in
// the order their package was first touched.
func Collect(root, upstream string, log zerolog.Logger) ([]Batch, error) {
	rangeSpec := upstream + "..HEAD"
	cmd := exec.Command("git", "-C", root, "log", "--reverse", "--name-status",
		"--diff-filter=AMD", "--pretty=format:>%H %ct", rangeSpec)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("git log %s failed: %w (stderr: %s)",
				rangeSpec, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("git log %s failed: %w", rangeSpec, err)
	}

	batches := ParseFeed(string(output))
	log.Debug().Str("range", rangeSpec).Int("batches", len(batches)).
		Msg("collected commit feed")
	return batches, nil
}

// ParseFeed parses the output of git log --reverse --name-status with the
// ">%H %ct" commit header format. Only paths of the form
// category/package/package-version.ebuild produce records; everything else a
// commit touches (metadata.xml, eclasses, profiles) is ignored.
func ParseFeed(output string) []Batch {
	var (
		commit string
		when   time.Time

		order   []ebuild.Key
		grouped = make(map[ebuild.Key][]Record)
	)

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ">") {
			fields := strings.Fields(line[1:])
			if len(fields) != 2 {
				continue
			}
			secs, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				continue
			}
			commit = fields[0]
			when = time.Unix(secs, 0).UTC()
			continue
		}

		if commit == "" {
			continue
		}

		status, path, ok := parseStatusLine(line)
		if !ok {
			continue
		}
		rec, ok := recordFromPath(path)
		if !ok {
			continue
		}
		rec.Status = status
		rec.Commit = commit
		rec.When = when

		key := rec.Key()
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], rec)
	}

	batches := make([]Batch, 0, len(order))
	for _, key := range order {
		batches = append(batches, Batch{Key: key, Records: grouped[key]})
	}
	return batches
}

// parseStatusLine splits a name-status line ("A\tcat/pkg/pkg-1.0.ebuild")
// into its status and path.
func parseStatusLine(line string) (Status, string, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) != 2 || parts[0] == "" {
		return 0, "", false
	}
	switch parts[0][0] {
	case 'A':
		return StatusAdded, parts[1], true
	case 'M':
		return StatusModified, parts[1], true
	case 'D':
		return StatusDeleted, parts[1], true
	default:
		return 0, "", false
	}
}

// recordFromPath builds a record from a repository-relative ebuild path.
func recordFromPath(path string) (Record, bool) {
	parts := strings.Split(path, "/")
	if len(parts) != 3 {
		return Record{}, false
	}
	version, ok := ebuild.VersionFromFilename(parts[2], parts[1])
	if !ok {
		return Record{}, false
	}
	return Record{Category: parts[0], Package: parts[1], Version: version}, true
}
