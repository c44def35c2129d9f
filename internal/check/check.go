package check

import (
	"iter"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ulm/pkgcheck/internal/ebuild"
	"github.com/ulm/pkgcheck/internal/git"
)

// copyrightRegex matches the canonical ebuild copyright header:
// "# Copyright YEAR holder" or "# Copyright YEAR-YEAR holder".
var copyrightRegex = regexp.MustCompile(`^# Copyright (\d{4}(-\d{4})?) .+`)

// AddedRecord is one first-addition event from the added-package index.
type AddedRecord struct {
	Atom   ebuild.Atom
	Commit string
	Date   time.Time
}

// AddedIndex is the precomputed index of package first-addition events for
// the scanned range. Implementations must be safe for concurrent reads.
type AddedIndex interface {
	Match(key ebuild.Key) ([]AddedRecord, error)
}

// Checker inspects per-package commit batches against the live repository.
// All state is read-only after construction, so one Checker may serve
// concurrent batches; the reference usage is sequential.
type Checker struct {
	repo   *ebuild.Repository
	arches map[string]struct{}
	added  AddedIndex
	today  time.Time
	log    zerolog.Logger
}

// New creates a Checker for the given live repository and added-package
// index.
func New(repo *ebuild.Repository, added AddedIndex, log zerolog.Logger) *Checker {
	return &Checker{
		repo:   repo,
		arches: repo.KnownArches(),
		added:  added,
		today:  time.Now(),
		log:    log,
	}
}

// ProcessBatch lazily yields the findings for one per-package batch. Every
// failure inside the batch degrades to fewer findings; nothing escapes to
// abort the scan.
func (c *Checker) ProcessBatch(batch git.Batch) iter.Seq[Finding] {
	return func(yield func(Finding) bool) {
		if !c.removalChecks(batch, yield) {
			return
		}

		// At most one no-maintainer finding per package, however many
		// versions the batch added.
		noMaintainerSeen := false

		for _, rec := range batch.Records {
			pkgs, err := c.repo.Match(rec.Atom())
			if err != nil {
				c.log.Warn().Err(err).Str("atom", rec.Atom().String()).
					Msg("skipping rest of batch: lookup failed")
				return
			}
			if len(pkgs) == 0 {
				// Committed and removed again within the scanned range;
				// the rest of the batch is not worth inspecting.
				return
			}
			pkg := pkgs[0]

			if !c.copyrightCheck(rec, pkg, yield) {
				return
			}
			if rec.Status == git.StatusAdded {
				if !c.directAddedChecks(batch.Key, pkg, &noMaintainerSeen, yield) {
					return
				}
			}
		}
	}
}

// removalChecks runs the dropped-keyword checks when the batch contains a
// deletion. Returns false only when the consumer stopped the sequence.
func (c *Checker) removalChecks(batch git.Batch, yield func(Finding) bool) bool {
	var removed *git.Record
	for i := range batch.Records {
		if batch.Records[i].Status == git.StatusDeleted {
			removed = &batch.Records[i]
			break
		}
	}
	if removed == nil {
		return true
	}

	paths := []string{batch.Key.String(), "eclass"}
	snap, err := git.ExtractSnapshot(c.repo.Root(), removed.Commit+"~1", paths, batch.Key.Category)
	if err != nil {
		c.log.Warn().Err(err).Str("package", batch.Key.String()).
			Msg("skipping removal checks")
		return true
	}
	defer snap.Close()

	oldRepo, err := ebuild.Open(snap.Dir())
	if err != nil {
		c.log.Warn().Err(err).Str("package", batch.Key.String()).
			Msg("skipping removal checks: snapshot unreadable")
		return true
	}

	oldKeywords, err := keywordUnion(oldRepo, batch.Key)
	if err == nil {
		var newKeywords []string
		newKeywords, err = keywordUnion(c.repo, batch.Key)
		if err == nil {
			stable, unstable := DiffKeywords(oldKeywords, newKeywords, c.arches)
			atom := ebuild.Atom{Category: batch.Key.Category, Package: batch.Key.Package}
			if len(stable) > 0 {
				f := Finding{Kind: KindDroppedStableKeywords, Atom: atom,
					Keywords: stable, Commit: removed.Commit}
				if !yield(f) {
					return false
				}
			}
			if len(unstable) > 0 {
				f := Finding{Kind: KindDroppedUnstableKeywords, Atom: atom,
					Keywords: unstable, Commit: removed.Commit}
				if !yield(f) {
					return false
				}
			}
			return true
		}
	}
	c.log.Warn().Err(err).Str("package", batch.Key.String()).
		Msg("skipping removal checks: keyword lookup failed")
	return true
}

// copyrightCheck flags a stale copyright year on the package's first line.
// An empty or unreadable first line, or a line that does not match the
// canonical header, skips this check silently; header-format validation is
// someone else's job.
func (c *Checker) copyrightCheck(rec git.Record, pkg *ebuild.PackageVersion, yield func(Finding) bool) bool {
	line, err := pkg.FirstLine()
	if err != nil {
		c.log.Warn().Err(err).Str("atom", rec.Atom().String()).
			Msg("skipping copyright check")
		return true
	}
	m := copyrightRegex.FindStringSubmatch(line)
	if m == nil {
		return true
	}

	// Take the later year of a YEAR-YEAR range.
	yearStr := m[1]
	if idx := strings.IndexByte(yearStr, '-'); idx >= 0 {
		yearStr = yearStr[idx+1:]
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return true
	}
	if year >= c.today.Year() {
		return true
	}
	return yield(Finding{Kind: KindOutdatedCopyright, Atom: rec.Atom(),
		Year: yearStr, Line: line})
}

// directAddedChecks runs the checks specific to newly committed ebuilds:
// pre-stabilized keywords and, for atomically new packages, a missing
// maintainer declaration.
func (c *Checker) directAddedChecks(key ebuild.Key, pkg *ebuild.PackageVersion, noMaintainerSeen *bool, yield func(Finding) bool) bool {
	var stable []string
	for _, kw := range pkg.Keywords {
		if _, tier := ebuild.ParseKeyword(kw); tier == ebuild.TierStable {
			stable = append(stable, kw)
		}
	}
	if len(stable) > 0 {
		f := Finding{Kind: KindDirectStableKeywords, Atom: pkg.Atom,
			Keywords: ebuild.SortKeywords(stable)}
		if !yield(f) {
			return false
		}
	}

	records, err := c.added.Match(key)
	if err != nil {
		c.log.Warn().Err(err).Str("package", key.String()).
			Msg("skipping new-package check: added index lookup failed")
		return true
	}
	// The whole package is new only if every recorded first-addition event
	// shares the earliest timestamp.
	newlyAdded := len(records) > 0
	for _, rec := range records {
		if !rec.Date.Equal(records[0].Date) {
			newlyAdded = false
			break
		}
	}
	if newlyAdded && len(pkg.Maintainers) == 0 && !*noMaintainerSeen {
		*noMaintainerSeen = true
		f := Finding{Kind: KindDirectNoMaintainer,
			Atom: ebuild.Atom{Category: key.Category, Package: key.Package}}
		if !yield(f) {
			return false
		}
	}
	return true
}

// keywordUnion returns the union of keywords across every version of the
// package in the given repository.
func keywordUnion(repo *ebuild.Repository, key ebuild.Key) ([]string, error) {
	pkgs, err := repo.Match(key)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var union []string
	for _, pkg := range pkgs {
		for _, kw := range pkg.Keywords {
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			union = append(union, kw)
		}
	}
	return union, nil
}
