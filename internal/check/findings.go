// Package check walks per-package batches of unpushed commits and emits
// typed findings for the regressions they introduce.
package check

import (
	"fmt"
	"strings"

	"github.com/ulm/pkgcheck/internal/ebuild"
)

// Severity is the reporting tier of a finding.
type Severity int

const (
	// SeverityWarning marks findings worth fixing but not blocking.
	SeverityWarning Severity = iota
	// SeverityError marks findings that should block a push.
	SeverityError
)

// String returns the severity name.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Scope says whether a finding concerns one version or the whole package.
type Scope int

const (
	// ScopeVersion findings point at a single ebuild.
	ScopeVersion Scope = iota
	// ScopePackage findings concern the package as a whole.
	ScopePackage
)

// Kind discriminates the finding variants.
type Kind int

const (
	// KindOutdatedCopyright: changed ebuild with an outdated copyright year.
	KindOutdatedCopyright Kind = iota
	// KindDirectStableKeywords: newly committed ebuild with stable keywords.
	KindDirectStableKeywords
	// KindDroppedStableKeywords: stable keywords dropped from a package.
	KindDroppedStableKeywords
	// KindDroppedUnstableKeywords: unstable keywords dropped from a package.
	KindDroppedUnstableKeywords
	// KindDirectNoMaintainer: directly added new package with no maintainer.
	KindDirectNoMaintainer
)

// String returns the finding kind name.
func (k Kind) String() string {
	switch k {
	case KindOutdatedCopyright:
		return "OutdatedCopyright"
	case KindDirectStableKeywords:
		return "DirectStableKeywords"
	case KindDroppedStableKeywords:
		return "DroppedStableKeywords"
	case KindDroppedUnstableKeywords:
		return "DroppedUnstableKeywords"
	case KindDirectNoMaintainer:
		return "DirectNoMaintainer"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Finding is one immutable regression report. Which of the data fields are
// populated depends on the Kind; Atom.Version is empty for package-scope
// findings.
type Finding struct {
	Kind Kind
	Atom ebuild.Atom

	// KindOutdatedCopyright
	Year string
	Line string

	// keyword kinds; always canonically sorted
	Keywords []string

	// dropped-keyword kinds: the triggering deletion commit
	Commit string
}

// Severity returns the reporting tier for the finding's kind.
func (f Finding) Severity() Severity {
	switch f.Kind {
	case KindOutdatedCopyright, KindDroppedUnstableKeywords:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Scope returns the display scope for the finding's kind.
func (f Finding) Scope() Scope {
	switch f.Kind {
	case KindOutdatedCopyright, KindDirectStableKeywords:
		return ScopeVersion
	default:
		return ScopePackage
	}
}

// Target returns the identifier the finding should be displayed against:
// category/name-version for version scope, category/name otherwise.
func (f Finding) Target() string {
	if f.Scope() == ScopeVersion {
		return f.Atom.String()
	}
	return f.Atom.Key().String()
}

// Message renders the finding's one-line human description. The output is
// deterministic for a given finding.
func (f Finding) Message() string {
	switch f.Kind {
	case KindOutdatedCopyright:
		return fmt.Sprintf("outdated copyright year %q: %q", f.Year, f.Line)
	case KindDirectStableKeywords:
		return fmt.Sprintf("directly committed with stable keyword%s: [ %s ]",
			plural(len(f.Keywords)), strings.Join(f.Keywords, ", "))
	case KindDroppedStableKeywords:
		return droppedMessage("stable", f.Keywords, f.Commit)
	case KindDroppedUnstableKeywords:
		return droppedMessage("unstable", f.Keywords, f.Commit)
	case KindDirectNoMaintainer:
		return "directly committed with no package maintainer"
	default:
		return f.Kind.String()
	}
}

// String renders "target: message".
func (f Finding) String() string {
	return f.Target() + ": " + f.Message()
}

// droppedMessage renders the shared dropped-keyword wording. The commit is
// truncated to 10 characters; "(or later)" flags that the drop is only known
// to have happened no earlier than this commit's parent.
func droppedMessage(status string, keywords []string, commit string) string {
	return fmt.Sprintf("commit %s (or later) dropped %s keyword%s: [ %s ]",
		shortCommit(commit), status, plural(len(keywords)), strings.Join(keywords, ", "))
}

// shortCommit truncates a commit id to its first 10 characters for display.
func shortCommit(commit string) string {
	if len(commit) > 10 {
		return commit[:10]
	}
	return commit
}

// plural returns the "keyword" suffix for a count: "" for 1, "s" otherwise.
func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
