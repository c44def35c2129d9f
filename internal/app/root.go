package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ulm/pkgcheck/internal/output"
)

var (
	dbPath   string
	repoPath string
	verbose  bool
	noColor  bool

	// RootCmd is the root command for pkgcheck
	RootCmd = &cobra.Command{
		Use:   "pkgcheck",
		Short: "Check unpushed commits in an ebuild repository for regressions",
		Long: `pkgcheck inspects the commits you have not pushed yet and flags quality
regressions before they reach the public tree.

Checks:
  • OutdatedCopyright        changed ebuild with a stale copyright year
  • DirectStableKeywords     new ebuild committed with stable keywords
  • DroppedStableKeywords    package removal lost stable keywords
  • DroppedUnstableKeywords  package removal lost unstable keywords
  • DirectNoMaintainer       new package without a declared maintainer

Removal checks reconstruct the repository as it was just before the deletion
commit (via git archive) and diff the keyword sets against the live tree.

Examples:
  # Scan the repository in the current directory
  pkgcheck scan

  # Scan a specific repository against a specific upstream ref
  pkgcheck scan --repo /srv/gentoo --upstream origin/master

  # Re-scan automatically whenever new commits land
  pkgcheck watch

  # Show past scan results
  pkgcheck history`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("pkgcheck: commit checks for ebuild repositories")
			fmt.Println()
			fmt.Println("Run 'pkgcheck scan' to check your unpushed commits.")
			fmt.Println("Run 'pkgcheck --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.pkgcheck/pkgcheck.db)")
	RootCmd.PersistentFlags().StringVar(&repoPath, "repo", "", "ebuild repository to scan (default: config file, then .)")
	RootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	RootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	RootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		output.SetColorDisabled(noColor)
	}

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	// Register subcommands
	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(historyCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// newLogger builds the process logger writing human-readable lines to
// stderr. --verbose lowers the level to debug.
func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// getDBPath returns the database path, using the flag value or default
func getDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	// Create .pkgcheck directory if it doesn't exist
	pkgcheckDir := filepath.Join(home, ".pkgcheck")
	if err := os.MkdirAll(pkgcheckDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create pkgcheck directory: %w", err)
	}

	return filepath.Join(pkgcheckDir, "pkgcheck.db"), nil
}
