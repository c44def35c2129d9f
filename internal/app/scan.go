package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ulm/pkgcheck/internal/check"
	"github.com/ulm/pkgcheck/internal/config"
	"github.com/ulm/pkgcheck/internal/ebuild"
	"github.com/ulm/pkgcheck/internal/git"
	"github.com/ulm/pkgcheck/internal/output"
	"github.com/ulm/pkgcheck/internal/store"
)

var (
	scanUpstream string
	scanChecks   string
	scanQuiet    bool

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Check unpushed commits for regressions",
		Long: `Scan every commit between the upstream ref and HEAD and report findings.

Commits are grouped per package; each package's batch is checked for dropped
keywords on removal, stale copyright headers, directly stabilized keywords,
and newly added packages without a maintainer. Results are printed and also
recorded in the pkgcheck database for 'pkgcheck history'.

The scan exits non-zero when any error-severity finding is reported.`,
		Example: `  # Scan the current directory against its upstream branch
  pkgcheck scan

  # Scan against a specific ref
  pkgcheck scan --upstream origin/master

  # Run a subset of the checks
  pkgcheck scan --checks OutdatedCopyright,DirectNoMaintainer

  # Scan quietly (findings only, no summary)
  pkgcheck scan --quiet`,
		RunE: runScan,
	}
)

func init() {
	scanCmd.Flags().StringVar(&scanUpstream, "upstream", "", "upstream ref bounding the unpushed range (default: config file, then @{upstream})")
	scanCmd.Flags().StringVar(&scanChecks, "checks", "", "comma-separated check names to run (default: all)")
	scanCmd.Flags().BoolVar(&scanQuiet, "quiet", false, "suppress the summary line")
}

// knownChecks is the full check-name set accepted by --checks.
var knownChecks = []check.Kind{
	check.KindOutdatedCopyright,
	check.KindDirectStableKeywords,
	check.KindDroppedStableKeywords,
	check.KindDroppedUnstableKeywords,
	check.KindDirectNoMaintainer,
}

func runScan(cmd *cobra.Command, args []string) error {
	log := newLogger()

	result, err := executeScan(log)
	if err != nil {
		return err
	}

	if !scanQuiet {
		fmt.Print(output.RenderSummary(result.packages, result.errors, result.warnings))
	}
	if result.errors > 0 {
		return fmt.Errorf("found %d error%s", result.errors, pluralS(result.errors))
	}
	return nil
}

// scanResult carries the counters of one completed scan.
type scanResult struct {
	packages int
	errors   int
	warnings int
}

// executeScan runs one full scan: collect the feed, build the added-package
// index, walk every batch, print and persist findings. Shared by the scan
// and watch commands.
func executeScan(log zerolog.Logger) (*scanResult, error) {
	cfg := loadConfig(log)

	root, err := resolveRepoPath(cfg)
	if err != nil {
		return nil, err
	}
	upstream := scanUpstream
	if upstream == "" {
		upstream = cfg.Upstream
	}
	if upstream == "" {
		upstream = "@{upstream}"
	}

	enabled, err := resolveChecks(cfg)
	if err != nil {
		return nil, err
	}

	repo, err := ebuild.Open(root)
	if err != nil {
		return nil, err
	}

	dbFile, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get database path: %w", err)
	}
	db, err := store.New(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := db.CreateSchema(); err != nil {
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}

	scanID, err := db.InsertScan(time.Now(), root, upstream)
	if err != nil {
		return nil, err
	}

	isTTY := isatty.IsTerminal(os.Stdout.Fd())
	var spinner *output.Spinner
	if !scanQuiet && isTTY {
		spinner = output.NewSpinner("Collecting unpushed commits...")
		spinner.Start()
	}

	batches, err := git.Collect(root, upstream, log)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return nil, err
	}

	// Populate the added-package index for this scan before any batch is
	// checked: the new-package check consults it across version boundaries.
	for _, batch := range batches {
		for _, rec := range batch.Records {
			if rec.Status != git.StatusAdded {
				continue
			}
			added := check.AddedRecord{Atom: rec.Atom(), Commit: rec.Commit, Date: rec.When}
			if err := db.InsertAddedPackage(scanID, added); err != nil {
				return nil, err
			}
		}
	}

	checker := check.New(repo, db.AddedIndex(scanID), log)

	result := &scanResult{packages: len(batches)}
	for _, batch := range batches {
		for finding := range checker.ProcessBatch(batch) {
			if !enabled[finding.Kind] {
				continue
			}
			fmt.Println(output.RenderFinding(finding))
			if err := db.InsertFinding(scanID, finding); err != nil {
				log.Warn().Err(err).Msg("failed to persist finding")
			}
			if finding.Severity() == check.SeverityError {
				result.errors++
			} else {
				result.warnings++
			}
		}
	}

	if err := db.FinishScan(scanID, result.packages, result.errors, result.warnings); err != nil {
		log.Warn().Err(err).Msg("failed to record scan counters")
	}
	return result, nil
}

// loadConfig reads the config file; a broken config degrades to defaults.
func loadConfig(log zerolog.Logger) *config.Config {
	dir, err := config.Dir()
	if err != nil {
		log.Warn().Err(err).Msg("cannot determine config directory")
		return &config.Config{}
	}
	cfg, err := config.Load(dir)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load config")
		return &config.Config{}
	}
	return cfg
}

// resolveRepoPath picks the repository root from the --repo flag, then the
// config file, then the current directory.
func resolveRepoPath(cfg *config.Config) (string, error) {
	root := repoPath
	if root == "" {
		root = cfg.Repo
	}
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve repository path %s: %w", root, err)
	}
	return abs, nil
}

// resolveChecks builds the enabled-check set from the --checks flag, then
// the config file, then all checks.
func resolveChecks(cfg *config.Config) (map[check.Kind]bool, error) {
	names := cfg.Checks
	if scanChecks != "" {
		names = nil
		for _, name := range strings.Split(scanChecks, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}

	enabled := make(map[check.Kind]bool, len(knownChecks))
	if len(names) == 0 {
		for _, kind := range knownChecks {
			enabled[kind] = true
		}
		return enabled, nil
	}

	byName := make(map[string]check.Kind, len(knownChecks))
	for _, kind := range knownChecks {
		byName[kind.String()] = kind
	}
	for _, name := range names {
		kind, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown check %q (valid: %s)", name, checkNames())
		}
		enabled[kind] = true
	}
	return enabled, nil
}

// checkNames returns the comma-separated list of valid check names.
func checkNames() string {
	names := make([]string, len(knownChecks))
	for i, kind := range knownChecks {
		names[i] = kind.String()
	}
	return strings.Join(names, ", ")
}

func pluralS(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
