package intake

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nulltoken/heimdall2/errors"
)

// debounceDelay coalesces the write bursts editors and scanners produce
// while a report file is still being written.
const debounceDelay = 500 * time.Millisecond

// DirWatcher feeds files dropped into watched directories through the
// orchestrator. Each directory gets its own rate limiter so a flood of
// dropped files cannot stampede ingestion.
type DirWatcher struct {
	orchestrator *Orchestrator
	logger       *zap.SugaredLogger

	dirs       []string
	extensions map[string]bool // lowercased, with leading dot; empty matches everything
	limiters   map[string]*rate.Limiter

	watcher *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]*time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDirWatcher creates a watcher over the given directories. Only files
// whose extension is listed are ingested; an empty extension list accepts
// every file. maxFiresPerMinute bounds ingestions per directory; zero
// means unlimited.
func NewDirWatcher(orch *Orchestrator, dirs, extensions []string, maxFiresPerMinute int, logger *zap.SugaredLogger) (*DirWatcher, error) {
	if len(dirs) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "no directories to watch")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating fsnotify watcher")
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &DirWatcher{
		orchestrator: orch,
		logger:       logger,
		extensions:   make(map[string]bool, len(extensions)),
		limiters:     make(map[string]*rate.Limiter, len(dirs)),
		watcher:      fsWatcher,
		pending:      make(map[string]*time.Timer),
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		w.extensions[ext] = true
	}
	limit := rate.Inf
	if maxFiresPerMinute > 0 {
		limit = rate.Limit(float64(maxFiresPerMinute) / 60.0)
	}
	for _, dir := range dirs {
		dir = filepath.Clean(dir)
		w.dirs = append(w.dirs, dir)
		w.limiters[dir] = rate.NewLimiter(limit, 1)
	}
	return w, nil
}

// Start registers the directories and begins the event loop.
func (w *DirWatcher) Start() error {
	for _, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			w.watcher.Close()
			return errors.Wrapf(err, "watching %s", dir)
		}
	}

	w.wg.Add(1)
	go w.eventLoop()

	w.logger.Infow("intake watcher started",
		"dirs", len(w.dirs),
		"extensions", len(w.extensions),
	)
	return nil
}

// Stop shuts the watcher down and waits for the event loop to exit.
// Debounced files that have not fired yet are dropped.
func (w *DirWatcher) Stop() {
	w.cancel()
	w.watcher.Close()

	w.pendingMu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.pendingMu.Unlock()

	w.wg.Wait()
	w.logger.Info("intake watcher stopped")
}

func (w *DirWatcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				w.handleEvent(event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("intake watcher error", "error", err)
		}
	}
}

func (w *DirWatcher) handleEvent(path string) {
	if !w.matchesExtension(path) {
		return
	}

	// Writes arrive in bursts while the file is being produced; reset the
	// timer on every event and ingest once the file settles.
	w.pendingMu.Lock()
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(debounceDelay, func() {
		w.ingest(path)
	})
	w.pendingMu.Unlock()
}

func (w *DirWatcher) matchesExtension(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

func (w *DirWatcher) ingest(path string) {
	w.pendingMu.Lock()
	delete(w.pending, path)
	w.pendingMu.Unlock()

	if w.ctx.Err() != nil {
		return
	}

	if limiter := w.limiters[filepath.Dir(path)]; limiter != nil && !limiter.Allow() {
		w.logger.Warnw("intake rate limited, skipping file",
			"file", path,
		)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Errorw("failed to read watched file",
			"file", path,
			"error", err)
		return
	}

	result, err := w.orchestrator.LoadFile(w.ctx, filepath.Base(path), data)
	if err != nil {
		w.logger.Errorw("watched file ingestion failed",
			"file", path,
			"error", err)
		return
	}
	w.logger.Debugw("watched file ingested",
		"file", path,
		"evaluations", len(result.EvaluationIDs),
	)
}
