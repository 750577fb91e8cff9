// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// ErrWatchExhausted is returned when the platform refuses further watches.
// The watcher cannot recover from it; raising the limit or narrowing the
// roots is required.
var ErrWatchExhausted = errors.New("watch: watch limit reached")

// defaultIgnores lists path patterns that never trigger callbacks. They
// cover VCS metadata, editor swap and backup files, and OS metadata files.
var defaultIgnores = []string{
	"**/.git/**",
	"**/.hg/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.#*",
	"**/.DS_Store",
}

type (
	// Watcher monitors its roots and fires a debounced callback when
	// matching files change. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		roots    []Root
		ignores  []string
		debounce time.Duration
		logger   *slog.Logger
		started  atomic.Bool

		dirsMu sync.Mutex
		dirs   map[string]struct{}
	}
)

// New validates cfg, resolves every root to an absolute path, and registers
// all non-ignored directories under the roots for monitoring. A root that
// does not exist yet is skipped with a warning.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	roots := make([]Root, 0, len(cfg.Roots))
	for _, r := range cfg.Roots {
		abs, err := filepath.Abs(r.Dir)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve root %q: %w", r.Dir, err)
		}
		roots = append(roots, Root{Dir: abs, Patterns: r.Patterns})
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		roots:    roots,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		debounce: debounce,
		logger:   logger,
		dirs:     make(map[string]struct{}),
	}

	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			if closeErr := fsw.Close(); closeErr != nil {
				logger.Warn("watch: close after init failure", "error", closeErr)
			}
			return nil, err
		}
	}

	return w, nil
}

// Run blocks until ctx is cancelled, processing filesystem events and
// dispatching debounced callbacks. It returns nil on cancellation and an
// error when the watcher breaks (resource exhaustion or closed channels).
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire drains the pending set and invokes OnChange. A callback still
	// running when the next burst settles postpones that burst instead of
	// overlapping it.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("watch: callback busy, postponing")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		w.logger.Debug("watch: change detected", "paths", len(changed))
		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("watch: callback failed", "error", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if closeErr := w.fsw.Close(); closeErr != nil {
			w.logger.Warn("watch: close fsnotify", "error", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if !w.relevant(evt) {
				continue
			}

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if exhausted(err) {
				return fmt.Errorf("%w: %w", ErrWatchExhausted, err)
			}
			w.logger.Warn("watch: fsnotify error", "error", err)
		}
	}
}

// relevant reports whether evt should schedule a callback. Newly created
// directories are added to the watch set; removing a watched directory
// counts as a change because it may have held matching files.
func (w *Watcher) relevant(evt fsnotify.Event) bool {
	root, rel, ok := w.locate(evt.Name)
	if !ok || w.isIgnored(rel) {
		return false
	}

	if evt.Has(fsnotify.Create) {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			// TODO: surface ErrWatchExhausted from here instead of only logging it.
			if err := w.addTree(Root{Dir: evt.Name, Patterns: root.Patterns}); err != nil {
				w.logger.Warn("watch: add new directory", "path", evt.Name, "error", err)
			}
			return true
		}
	}

	if evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename) {
		w.dirsMu.Lock()
		_, wasDir := w.dirs[evt.Name]
		delete(w.dirs, evt.Name)
		w.dirsMu.Unlock()
		if wasDir {
			return true
		}
	}

	if evt.Op == fsnotify.Chmod {
		return false
	}
	return matches(root.Patterns, rel)
}

// locate returns the root containing path and path relative to it.
func (w *Watcher) locate(path string) (Root, string, bool) {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root.Dir, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return root, rel, true
	}
	return Root{}, "", false
}

// addTree walks dir and adds every non-ignored directory to fsnotify.
// Inaccessible paths are skipped and logged.
func (w *Watcher) addTree(root Root) error {
	if _, err := os.Stat(root.Dir); errors.Is(err, os.ErrNotExist) {
		w.logger.Warn("watch: root does not exist, skipping", "path", root.Dir)
		return nil
	}

	walkErr := filepath.WalkDir(root.Dir, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			w.logger.Warn("watch: skipping inaccessible path", "path", path, "error", walkDirErr)
			return nil //nolint:nilerr // inaccessible paths are skipped
		}
		if !d.IsDir() {
			return nil
		}

		if _, rel, ok := w.locate(path); ok && rel != "." && (w.isIgnored(rel) || w.isIgnored(rel+"/")) {
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			if exhausted(addErr) {
				return fmt.Errorf("%w: add directory %q: %w", ErrWatchExhausted, path, addErr)
			}
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		w.dirsMu.Lock()
		w.dirs[path] = struct{}{}
		w.dirsMu.Unlock()
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

// isIgnored reports whether rel matches a default or configured ignore.
func (w *Watcher) isIgnored(rel string) bool {
	return matchesAny(w.ignores, rel)
}

// matches reports whether rel matches one of patterns; an empty list
// matches everything.
func matches(patterns []string, rel string) bool {
	if len(patterns) == 0 {
		return true
	}
	return matchesAny(patterns, rel)
}

func matchesAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}
