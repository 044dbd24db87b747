package session

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/askuser/internal/event"
	"github.com/Iron-Ham/askuser/internal/logging"
)

// watchDebounce collapses the burst of events produced by one atomic write.
const watchDebounce = 50 * time.Millisecond

// Watcher observes a store directory and publishes a SessionChangedEvent for
// every record written or removed, including changes made by other processes.
type Watcher struct {
	watcher *fsnotify.Watcher
	dir     string
	bus     *event.Bus
	logger  *logging.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewWatcher creates a watcher for the records in dir.
func NewWatcher(dir string, bus *event.Bus, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return &Watcher{
		watcher: fw,
		dir:     dir,
		bus:     bus,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
	})
}

func (w *Watcher) watchLoop() {
	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain initial timer

	pending := make(map[string]struct{})

	for {
		select {
		case <-w.stopCh:
			debounceTimer.Stop()
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			id, ok := recordID(ev.Name)
			if !ok {
				continue
			}
			pending[id] = struct{}{}
			debounceTimer.Reset(watchDebounce)

		case <-debounceTimer.C:
			for id := range pending {
				w.publish(id)
			}
			pending = make(map[string]struct{})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("session watcher error", "dir", w.dir, "error", err)
		}
	}
}

// publish reports the settled state of a record after a burst of events.
func (w *Watcher) publish(id string) {
	op := event.ChangeWritten
	if _, err := os.Stat(filepath.Join(w.dir, id+RecordSuffix)); os.IsNotExist(err) {
		op = event.ChangeRemoved
	}
	w.logger.Debug("session record changed", "session_id", id, "op", op)
	w.bus.Publish(event.NewSessionChangedEvent(id, op))
}

// recordID extracts the session id from a record path, ignoring temp and
// lock files.
func recordID(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, RecordSuffix) {
		return "", false
	}
	return strings.TrimSuffix(name, RecordSuffix), true
}
