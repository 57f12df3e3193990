// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs validation when a package tree changes.
//
// It monitors every directory the scanner would walk and invokes a callback
// after a debounce period. Events within the debounce window are coalesced
// so the callback fires once with the full set of changed paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skillkit/skillkit/pkg/scan"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the quiet period before the callback fires. Editors
// that write a temp file and rename it produce several events per save.
const defaultDebounce = 300 * time.Millisecond

// editorNoise lists temp and swap files that never count as a change even
// though the scanner would pick them up.
var editorNoise = []string{
	"**/*.swp",
	"**/*.swo",
	"**/*.swx",
	"**/*~",
	"**/.#*",
	"**/#*#",
	"**/4913",
}

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Root is the package directory to watch.
		Root string

		// Ignore are extra doublestar patterns, the same ones handed to
		// the scanner, for paths that never trigger the callback. Callers
		// writing into Root add their output files here.
		Ignore []string

		// Debounce is the quiet period after the last event before the
		// callback fires. Zero or negative values use defaultDebounce.
		Debounce time.Duration

		// ClearScreen writes an ANSI clear sequence to Stdout before each
		// callback. Callers decide whether Stdout is a terminal.
		ClearScreen bool

		// OnChange receives the sorted, deduplicated changed paths relative
		// to Root. Errors are logged and watching continues.
		OnChange func(ctx context.Context, changed []string) error

		// Stdout receives the clear sequence. nil means os.Stdout.
		Stdout io.Writer

		// Logger receives watcher diagnostics. nil discards them.
		Logger *log.Logger
	}

	// Watcher monitors a package tree and fires a debounced callback when
	// content changes. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignorer  *scan.Ignorer
		stdout   io.Writer
		logger   *log.Logger
		debounce time.Duration
		root     string
		started  atomic.Bool
	}
)

// New resolves Root, compiles the ignore set and registers every directory
// the scanner would visit.
func New(cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, errors.New("watch: root directory is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}

	ignorer, err := scan.NewIgnorer(cfg.Ignore)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignorer:  ignorer,
		stdout:   cfg.Stdout,
		logger:   cfg.Logger,
		debounce: cfg.Debounce,
		root:     root,
	}
	if w.stdout == nil {
		w.stdout = os.Stdout
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}

	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			w.logger.Warn("close watcher after init failure", "err", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// Run blocks until ctx is canceled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when the watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire runs on the timer goroutine. A run that outlasts the debounce
	// period reschedules instead of overlapping.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("previous validation still running, rescheduling")
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

		if w.cfg.ClearScreen {
			fmt.Fprint(w.stdout, "\033[2J\033[H")
		}
		w.logger.Debug("change detected", "paths", changed)

		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("validation failed", "err", err)
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
			w.logger.Warn("close fsnotify", "err", closeErr)
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

			rel, err := scan.RelPath(w.root, evt.Name)
			if err != nil {
				continue
			}

			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name, rel)
			}
			if !w.relevant(rel) {
				continue
			}

			mu.Lock()
			pending[rel] = struct{}{}
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
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// addDirectories registers Root and every directory below it that the
// scanner does not skip.
func (w *Watcher) addDirectories() error {
	err := filepath.WalkDir(w.root, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.logger.Warn("skipping inaccessible path", "path", p, "err", walkErr)
			return nil //nolint:nilerr // an unreadable subtree must not stop the watch
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root {
			rel, relErr := scan.RelPath(w.root, p)
			if relErr != nil || w.ignorer.SkipDir(rel) {
				return filepath.SkipDir
			}
		}
		if addErr := w.fsw.Add(p); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", p, addErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk package tree: %w", err)
	}
	return nil
}

func (w *Watcher) maybeAddDir(p, rel string) {
	info, err := os.Stat(p)
	if err != nil || !info.IsDir() || w.ignorer.SkipDir(rel) {
		return
	}
	if addErr := w.fsw.Add(p); addErr != nil {
		w.logger.Warn("add new directory", "path", p, "err", addErr)
	}
}

// relevant reports whether a change at rel can alter the validation
// result. The package config file is not scanned but still counts.
func (w *Watcher) relevant(rel string) bool {
	if rel == "." || rel == "" {
		return false
	}
	if rel == scan.ConfigFileName {
		return true
	}
	if isEditorNoise(rel) {
		return false
	}
	if dir := filepath.ToSlash(filepath.Dir(rel)); dir != "." {
		for d := dir; d != "."; d = filepath.ToSlash(filepath.Dir(d)) {
			if w.ignorer.SkipDir(d) {
				return false
			}
		}
	}
	if info, err := os.Stat(filepath.Join(w.root, filepath.FromSlash(rel))); err == nil && info.IsDir() {
		return !w.ignorer.SkipDir(rel)
	}
	return !w.ignorer.SkipFile(rel)
}

func isEditorNoise(rel string) bool {
	for _, pat := range editorNoise {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}
