// Package inbox turns files dropped into a directory into captures.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/albeorla/task-pri-lite-sub001/internal/capture"
	"github.com/albeorla/task-pri-lite-sub001/internal/logging"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

var (
	// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
	ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

	// ErrUnsupportedFile is returned by ReadFile for unknown extensions.
	ErrUnsupportedFile = errors.New("unsupported capture file")
)

// ProcessedDir is the subdirectory captured files are moved into.
const ProcessedDir = "processed"

// DefaultSettle is how long a file must stay unchanged before it is read.
const DefaultSettle = 250 * time.Millisecond

// Capture is an item read from a dropped file.
type Capture struct {
	Path string
	Item capture.Item
}

// Watcher watches a drop folder. Files ending in .txt become free-text
// captures; the part of the name before the first '-' picks the source
// ("email-invoice.txt" is an email). Files ending in .toml hold a manual
// entry. Captured files move to the processed subdirectory.
type Watcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	captures chan Capture
	stop     chan struct{}
	stopOnce sync.Once
	settle   time.Duration
	logger   *logging.Logger
	now      func() time.Time

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle overrides DefaultSettle.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) { w.settle = d }
}

// WithClock sets the capture timestamp source.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) { w.now = now }
}

// NewWatcher creates a watcher for dir, creating it if needed.
func NewWatcher(dir string, logger *logging.Logger, opts ...Option) (*Watcher, error) {
	if err := os.MkdirAll(filepath.Join(dir, ProcessedDir), 0o700); err != nil {
		return nil, fmt.Errorf("creating drop folder: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	w := &Watcher{
		dir:      dir,
		watcher:  fw,
		captures: make(chan Capture, 16),
		stop:     make(chan struct{}),
		settle:   DefaultSettle,
		logger:   logger.Named("inbox"),
		now:      time.Now,
		pending:  make(map[string]*time.Timer),
		ready:    make(chan string, 16),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start watches the folder and captures files already present. Captures are
// delivered on Captures until ctx ends or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if e.Type().IsRegular() && supported(e.Name()) {
			w.schedule(filepath.Join(w.dir, e.Name()))
		}
	}
	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher and cleans up resources.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		_ = w.watcher.Close()
		w.mu.Lock()
		for _, t := range w.pending {
			t.Stop()
		}
		w.mu.Unlock()
	})
}

// Captures returns the channel of captured items.
func (w *Watcher) Captures() <-chan Capture {
	return w.captures
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && supported(event.Name) {
				w.schedule(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, "drop folder watch error", zap.Error(err))
		case path := <-w.ready:
			w.capture(ctx, path)
		}
	}
}

// schedule (re)arms the settle timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case w.ready <- path:
		case <-w.stop:
		}
	})
}

func (w *Watcher) capture(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		// Already moved or removed.
		return
	}
	item, err := ReadFile(path, w.now())
	if err != nil {
		w.logger.Warn(ctx, "skipping drop folder file", zap.String("path", path), zap.Error(err))
		return
	}
	if err := os.Rename(path, filepath.Join(w.dir, ProcessedDir, filepath.Base(path))); err != nil {
		w.logger.Warn(ctx, "could not move captured file", zap.String("path", path), zap.Error(err))
	}
	w.logger.Info(logging.WithCaptureID(ctx, item.ID()), "file captured",
		zap.String("path", path),
		zap.String("source", string(item.Source())),
	)
	select {
	case w.captures <- Capture{Path: path, Item: item}:
	case <-w.stop:
	case <-ctx.Done():
	}
}

// ReadFile reads one capture file.
func ReadFile(path string, at time.Time) (capture.Item, error) {
	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		b, err := os.ReadFile(path)
		if err != nil {
			return capture.Item{}, fmt.Errorf("reading %s: %w", name, err)
		}
		return capture.NewText(sourceFromName(name), string(b), at), nil
	case ".toml":
		var entry capture.ManualEntry
		if _, err := toml.DecodeFile(path, &entry); err != nil {
			return capture.Item{}, fmt.Errorf("decoding %s: %w", name, err)
		}
		if strings.TrimSpace(entry.Title) == "" {
			return capture.Item{}, fmt.Errorf("%s: title is required", name)
		}
		return capture.NewManual(entry, at), nil
	default:
		return capture.Item{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
	}
}

func supported(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".txt", ".toml":
		return true
	}
	return false
}

func sourceFromName(name string) capture.Source {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	prefix, _, found := strings.Cut(stem, "-")
	if !found {
		return capture.SourceOther
	}
	return capture.ParseSource(prefix)
}
