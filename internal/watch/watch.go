// Package watch re-runs a snapshot whenever files under the scanned roots change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/temirov/dir2yaml/internal/utils"
)

// DefaultDebounce is the quiet period that closes a burst of changes.
const DefaultDebounce = 500 * time.Millisecond

// RebuildFunc performs a full re-scan. A returned error is logged and watching continues.
type RebuildFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	Roots          []string
	IgnorePatterns []string
	// IgnoredPaths are files whose changes never trigger a rebuild, such as the output file.
	IgnoredPaths []string
	Debounce     time.Duration
	Logger       *zap.Logger
}

// Watcher observes every directory the snapshot would descend into.
type Watcher struct {
	notifier       *fsnotify.Watcher
	ignorePatterns []string
	ignoredPaths   map[string]struct{}
	debounce       time.Duration
	logger         *zap.Logger
}

// New registers watches for all roots before returning, so changes made after
// New returns are observed by Run.
func New(options Options) (*Watcher, error) {
	notifier, notifierError := fsnotify.NewWatcher()
	if notifierError != nil {
		return nil, fmt.Errorf("create file watcher: %w", notifierError)
	}
	watcher := &Watcher{
		notifier:       notifier,
		ignorePatterns: utils.CombineIgnorePatterns(options.IgnorePatterns),
		ignoredPaths:   make(map[string]struct{}, len(options.IgnoredPaths)),
		debounce:       options.Debounce,
		logger:         options.Logger,
	}
	if watcher.debounce <= 0 {
		watcher.debounce = DefaultDebounce
	}
	if watcher.logger == nil {
		watcher.logger = zap.NewNop()
	}
	for _, ignoredPath := range options.IgnoredPaths {
		watcher.ignoredPaths[filepath.Clean(ignoredPath)] = struct{}{}
	}
	for _, rootDirectoryPath := range options.Roots {
		if addError := watcher.addTree(rootDirectoryPath); addError != nil {
			_ = notifier.Close()
			return nil, addError
		}
	}
	return watcher, nil
}

// Run calls rebuild once after each debounced burst of relevant changes until
// ctx is cancelled. Rebuilds never overlap.
func (watcher *Watcher) Run(ctx context.Context, rebuild RebuildFunc) error {
	defer func() {
		_ = watcher.notifier.Close()
	}()

	debounceTimer := time.NewTimer(watcher.debounce)
	stopTimer(debounceTimer)
	pending := false

	for {
		select {
		case <-ctx.Done():
			stopTimer(debounceTimer)
			return nil
		case event, ok := <-watcher.notifier.Events:
			if !ok {
				return nil
			}
			if !watcher.handleEvent(event) {
				continue
			}
			stopTimer(debounceTimer)
			debounceTimer.Reset(watcher.debounce)
			pending = true
		case watchError, ok := <-watcher.notifier.Errors:
			if !ok {
				return nil
			}
			watcher.logger.Warn("file watcher error", zap.Error(watchError))
		case <-debounceTimer.C:
			if !pending {
				continue
			}
			pending = false
			if rebuildError := rebuild(ctx); rebuildError != nil {
				if errors.Is(rebuildError, context.Canceled) {
					return nil
				}
				watcher.logger.Error("rebuild failed", zap.Error(rebuildError))
			}
		}
	}
}

// handleEvent reports whether event should trigger a rebuild, registering new directories on the way.
func (watcher *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	if _, ignored := watcher.ignoredPaths[filepath.Clean(event.Name)]; ignored {
		return false
	}
	if watcher.isSkippedName(filepath.Base(event.Name)) {
		return false
	}
	if event.Has(fsnotify.Create) && !utils.IsHardExcludedDirectoryName(filepath.Base(event.Name)) {
		if info, statError := os.Stat(event.Name); statError == nil && info.IsDir() {
			if addError := watcher.addTree(event.Name); addError != nil {
				watcher.logger.Warn("unable to watch new directory", zap.String("path", event.Name), zap.Error(addError))
			}
		}
	}
	watcher.logger.Debug("change detected", zap.String("path", event.Name), zap.String("operation", event.Op.String()))
	return true
}

func (watcher *Watcher) isSkippedName(name string) bool {
	return utils.MatchesAnyPattern(name, watcher.ignorePatterns)
}

// addTree watches rootDirectoryPath and every directory below it that the
// snapshot descends into. Unreadable subdirectories are skipped.
func (watcher *Watcher) addTree(rootDirectoryPath string) error {
	return filepath.WalkDir(rootDirectoryPath, func(path string, entry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if path == rootDirectoryPath {
				return fmt.Errorf("watch %s: %w", path, walkError)
			}
			watcher.logger.Debug("skipping unreadable directory", zap.String("path", path), zap.Error(walkError))
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != rootDirectoryPath {
			name := entry.Name()
			if utils.IsHardExcludedDirectoryName(name) || watcher.isSkippedName(name) {
				return filepath.SkipDir
			}
		}
		if addError := watcher.notifier.Add(path); addError != nil {
			return fmt.Errorf("watch %s: %w", path, addError)
		}
		return nil
	})
}

func stopTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
