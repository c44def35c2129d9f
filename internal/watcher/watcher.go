// Package watcher triggers re-scans when new commits land in the watched
// repository. Every git command that moves HEAD appends to .git/logs/HEAD,
// so watching that single file covers commits, amends, rebases, and resets
// without recursively watching the work tree.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay batches the several writes one git operation produces into a
// single callback.
const debounceDelay = 500 * time.Millisecond

// Watcher invokes a callback whenever the watched repository's HEAD moves.
type Watcher struct {
	logsDir  string
	onChange func()

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Watcher for the git repository at root. onChange runs on the
// watcher's goroutine after each (debounced) HEAD movement.
func New(root string, onChange func()) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback cannot be nil")
	}
	logsDir := filepath.Join(root, ".git", "logs")
	if _, err := os.Stat(logsDir); err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", logsDir, err)
	}
	return &Watcher{
		logsDir:  logsDir,
		onChange: onChange,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It returns once the filesystem watch is installed;
// events are handled on a background goroutine until Stop is called.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	if err := fsw.Add(w.logsDir); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.logsDir, err)
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.run()
	return nil
}

// run dispatches filesystem events until the stop signal is received.
func (w *Watcher) run() {
	defer w.wg.Done()

	var debounce *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != "HEAD" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.AfterFunc(debounceDelay, func() {
					select {
					case pending <- struct{}{}:
					default:
					}
				})
			} else {
				debounce.Reset(debounceDelay)
			}

		case <-pending:
			debounce = nil
			w.onChange()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "watcher: filesystem watch error: %v\n", err)

		case <-w.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return
		}
	}
}

// Stop halts the watcher and waits for the event goroutine to exit.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	w.wg.Wait()
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}
