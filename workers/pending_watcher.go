package workers

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultWatchDebounce = 1500 * time.Millisecond

// RunFunc performs one reconcile-and-publish pass
type RunFunc func(ctx context.Context) error

// PendingWatcher triggers a run whenever annotation batches land in the
// pending directory. bursts of events collapse into one run after the debounce
// window and runs never overlap.
type PendingWatcher struct {
	Dir      string
	Debounce time.Duration
	Run      RunFunc

	watcher  *fsnotify.Watcher
	trigger  chan struct{}
	StopChan chan struct{}
	Wg       sync.WaitGroup

	mu       sync.Mutex
	timer    *time.Timer
	stopOnce sync.Once
}

func NewPendingWatcher(dir string, debounce time.Duration, run RunFunc) (*PendingWatcher, error) {
	if run == nil {
		return nil, fmt.Errorf("pending watcher requires a run function")
	}
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create pending directory '%s': %w", dir, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch '%s': %w", dir, err)
	}

	return &PendingWatcher{
		Dir:      dir,
		Debounce: debounce,
		Run:      run,
		watcher:  fsWatcher,
		trigger:  make(chan struct{}, 1),
		StopChan: make(chan struct{}),
	}, nil
}

// Start launches the event and run loops; they exit on Stop or when ctx ends
func (pw *PendingWatcher) Start(ctx context.Context) {
	pw.Wg.Add(2)
	go pw.watchLoop()
	go pw.runLoop(ctx)
	log.Printf("workers.watch: Watching %s (debounce %s)", pw.Dir, pw.Debounce)
}

// Stop closes the watcher and waits for an in-flight run to finish
func (pw *PendingWatcher) Stop() {
	pw.stopOnce.Do(func() {
		close(pw.StopChan)
		pw.mu.Lock()
		if pw.timer != nil {
			pw.timer.Stop()
			pw.timer = nil
		}
		pw.mu.Unlock()
		_ = pw.watcher.Close()
	})
	pw.Wg.Wait()
}

func (pw *PendingWatcher) watchLoop() {
	defer pw.Wg.Done()
	for {
		select {
		case <-pw.StopChan:
			return
		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if isBatchEvent(event) {
				pw.schedule()
			}
		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("workers.watch: Warning - watcher error: %v", err)
		}
	}
}

// isBatchEvent ignores removals; the pipeline deletes batches it has applied
func isBatchEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".json")
}

func (pw *PendingWatcher) schedule() {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	if pw.timer != nil {
		pw.timer.Stop()
	}
	pw.timer = time.AfterFunc(pw.Debounce, func() {
		select {
		case pw.trigger <- struct{}{}:
		default:
		}
	})
}

func (pw *PendingWatcher) runLoop(ctx context.Context) {
	defer pw.Wg.Done()
	for {
		select {
		case <-pw.StopChan:
			return
		case <-ctx.Done():
			return
		case <-pw.trigger:
			log.Printf("workers.watch: Pending batches changed, starting run")
			if err := pw.Run(ctx); err != nil {
				log.Printf("workers.watch: ERROR run failed: %v", err)
			}
		}
	}
}
