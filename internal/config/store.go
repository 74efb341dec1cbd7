package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dusk-indust/voxflow/internal/orchestrator"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 200 * time.Millisecond

// Store holds the active catalog and swaps it atomically when the file on
// disk changes. Readers always get a complete snapshot.
type Store struct {
	path   string
	logger *zap.Logger

	current      atomic.Pointer[orchestrator.Catalog]
	usingDefault atomic.Bool

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	onReload func(*orchestrator.Catalog, error)
}

var _ orchestrator.CatalogSource = (*Store)(nil)

// Open loads the configuration at path. A missing file yields the built-in
// default configuration; an invalid file is an error.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{path: path, logger: logger}

	f, err := Load(path)
	switch {
	case err == nil:
		s.persistIDs(f)
	case IsNotExist(err):
		logger.Info("configuration file not found, using defaults", zap.String("path", path))
		if f, err = Default(); err != nil {
			return nil, err
		}
		s.usingDefault.Store(true)
	default:
		return nil, err
	}
	s.current.Store(f.Catalog())
	return s, nil
}

// Path returns the configuration file location.
func (s *Store) Path() string { return s.path }

// UsingDefault reports whether the store fell back to the built-in
// configuration because no file existed.
func (s *Store) UsingDefault() bool { return s.usingDefault.Load() }

// Catalog returns the current snapshot.
func (s *Store) Catalog() *orchestrator.Catalog {
	return s.current.Load()
}

// OnReload registers a callback invoked after every reload attempt. err is
// non-nil when the file was rejected and the previous catalog kept.
func (s *Store) OnReload(fn func(*orchestrator.Catalog, error)) {
	s.mu.Lock()
	s.onReload = fn
	s.mu.Unlock()
}

// Reload re-reads the file. On failure the previous catalog stays active.
func (s *Store) Reload() error {
	f, err := Load(s.path)
	if err != nil {
		s.logger.Warn("configuration reload rejected, keeping previous", zap.String("path", s.path), zap.Error(err))
		s.notify(s.current.Load(), err)
		return err
	}
	s.persistIDs(f)
	cat := f.Catalog()
	s.current.Store(cat)
	s.usingDefault.Store(false)
	s.logger.Info("configuration reloaded",
		zap.String("path", s.path),
		zap.Int("providers", len(cat.Providers)),
		zap.Int("modes", len(cat.Modes)))
	s.notify(cat, nil)
	return nil
}

func (s *Store) notify(cat *orchestrator.Catalog, err error) {
	s.mu.Lock()
	fn := s.onReload
	s.mu.Unlock()
	if fn != nil {
		fn(cat, err)
	}
}

// persistIDs writes generated identifiers back so they stay stable across
// loads. Failure only costs stability, so it is logged.
func (s *Store) persistIDs(f *File) {
	if !f.IDsAssigned {
		return
	}
	if err := Save(s.path, f); err != nil {
		s.logger.Warn("could not persist generated identifiers", zap.String("path", s.path), zap.Error(err))
		return
	}
	f.IDsAssigned = false
}

// Watch reloads the catalog whenever the configuration file changes. The
// parent directory is watched so editors that replace the file are seen.
// Watching stops when ctx is done or Close is called.
func (s *Store) Watch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.watcher = w
	s.cancel = cancel

	changed := make(chan struct{}, 1)
	s.wg.Add(2)
	go s.eventLoop(ctx, w, changed)
	go s.debounceLoop(ctx, changed)
	return nil
}

// Close stops watching. It is safe to call without Watch.
func (s *Store) Close() error {
	s.mu.Lock()
	w, cancel := s.watcher, s.cancel
	s.watcher, s.cancel = nil, nil
	s.mu.Unlock()

	if w == nil {
		return nil
	}
	cancel()
	s.wg.Wait()
	return w.Close()
}

func (s *Store) eventLoop(ctx context.Context, w *fsnotify.Watcher, changed chan<- struct{}) {
	defer s.wg.Done()
	name := filepath.Clean(s.path)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				select {
				case changed <- struct{}{}:
				default:
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Warn("configuration watcher error", zap.Error(err))
		}
	}
}

// debounceLoop coalesces bursts of events into a single reload.
func (s *Store) debounceLoop(ctx context.Context, changed <-chan struct{}) {
	defer s.wg.Done()

	timer := time.NewTimer(reloadDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-changed:
			timer.Reset(reloadDebounce)
		case <-timer.C:
			_ = s.Reload()
		}
	}
}
