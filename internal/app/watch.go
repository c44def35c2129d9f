package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ulm/pkgcheck/internal/output"
	"github.com/ulm/pkgcheck/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the checks whenever new commits land",
	Long: `Run in the foreground and re-scan the repository each time its HEAD moves.

An initial scan runs immediately; afterwards, every commit, amend, rebase, or
reset triggers another scan. Stop with Ctrl+C.

Unlike 'pkgcheck scan', error findings do not terminate the watch; each scan's
results are printed and recorded, then the watch keeps going.`,
	Example: `  # Watch the repository in the current directory
  pkgcheck watch

  # Watch a specific repository
  pkgcheck watch --repo /srv/gentoo`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg := loadConfig(log)
	root, err := resolveRepoPath(cfg)
	if err != nil {
		return err
	}

	rescan := func() {
		result, err := executeScan(log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "watch: scan failed: %v\n", err)
			return
		}
		fmt.Print(output.RenderSummary(result.packages, result.errors, result.warnings))
	}

	w, err := watcher.New(root, rescan)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Printf("Watching %s for new commits (Ctrl+C to stop)\n", root)
	rescan()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nStopping watch...")
	return nil
}
