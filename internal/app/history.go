package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ulm/pkgcheck/internal/output"
	"github.com/ulm/pkgcheck/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history [scan-id]",
	Short: "Show past scan results",
	Long: `List recorded scans, or show the findings of one scan.

Without arguments, prints a table of all recorded scans (newest first).
With a scan id, prints the findings that scan reported.`,
	Example: `  # List all recorded scans
  pkgcheck history

  # Show the findings of scan 12
  pkgcheck history 12`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	dbFile, err := getDBPath()
	if err != nil {
		return fmt.Errorf("failed to get database path: %w", err)
	}
	db, err := store.New(dbFile)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := db.CreateSchema(); err != nil {
		return fmt.Errorf("failed to create database schema: %w", err)
	}

	if len(args) == 0 {
		scans, err := db.ListScans()
		if err != nil {
			return err
		}
		fmt.Print(output.RenderScanTable(scans))
		return nil
	}

	scanID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid scan id %q", args[0])
	}
	rows, err := db.ListFindings(scanID)
	if err != nil {
		return err
	}
	fmt.Print(output.RenderFindingRows(rows))
	return nil
}
