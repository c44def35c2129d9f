// Package output provides terminal rendering for pkgcheck: finding lists,
// scan history tables, and a spinner for long-running collection steps.
// ANSI colors are used only on TTYs and respect NO_COLOR.
package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/ulm/pkgcheck/internal/check"
	"github.com/ulm/pkgcheck/internal/store"
)

// ANSI color codes for severity display
const (
	colorReset  = "\033[0m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

// colorDisabled is set by the --no-color flag.
var colorDisabled bool

// SetColorDisabled force-disables ANSI colors regardless of TTY state.
func SetColorDisabled(disabled bool) {
	colorDisabled = disabled
}

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that neither the NO_COLOR env var
// nor the --no-color flag is set.
func IsColorEnabled() bool {
	if colorDisabled || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// RenderFinding renders one finding as a single line:
// "severity: target: message".
func RenderFinding(f check.Finding) string {
	severity := f.Severity().String()
	if IsColorEnabled() {
		severity = colorizeSeverity(f.Severity())
	}
	return fmt.Sprintf("%s: %s: %s", severity, f.Target(), f.Message())
}

// RenderSummary renders the end-of-scan counters.
func RenderSummary(packages, errors, warnings int) string {
	return fmt.Sprintf("%d package%s scanned: %d error%s, %d warning%s\n",
		packages, pluralSuffix(packages),
		errors, pluralSuffix(errors),
		warnings, pluralSuffix(warnings))
}

// RenderScanTable renders the scan history, newest first.
func RenderScanTable(scans []*store.Scan) string {
	if len(scans) == 0 {
		return "No scans recorded.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-5s %-17s %-9s %-7s %-9s %s\n",
		"ID", "When", "Packages", "Errors", "Warnings", "Range"))
	sb.WriteString(strings.Repeat("─", 70))
	sb.WriteString("\n")

	for _, scan := range scans {
		sb.WriteString(fmt.Sprintf("%-5d %-17s %-9d %-7d %-9d %s..HEAD\n",
			scan.ID,
			scan.CreatedAt.Local().Format("2006-01-02 15:04"),
			scan.Packages,
			scan.Errors,
			scan.Warnings,
			scan.Upstream))
	}
	return sb.String()
}

// RenderFindingRows renders persisted findings from a past scan.
func RenderFindingRows(rows []*store.FindingRow) string {
	if len(rows) == 0 {
		return "No findings recorded for this scan.\n"
	}
	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("%s: %s: %s\n", row.Severity, row.Target, row.Message))
	}
	return sb.String()
}

// colorizeSeverity wraps the severity name in its ANSI color.
func colorizeSeverity(s check.Severity) string {
	if s == check.SeverityError {
		return colorRed + s.String() + colorReset
	}
	return colorYellow + s.String() + colorReset
}

func pluralSuffix(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
