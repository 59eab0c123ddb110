package script

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Ext is the file extension of authored dialogue scripts.
const Ext = ".txt"

var ErrNotFound = errors.New("script not found")

// Library holds the authored scripts of a directory, keyed by file name.
// Scripts handed out by Get are private copies, so a running session never
// sees a reload.
type Library struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	scripts map[string]*Script
}

// NewLibrary creates an empty library rooted at dir. Call Load to read it.
func NewLibrary(dir string, logger *slog.Logger) *Library {
	return &Library{
		dir:     dir,
		logger:  logger,
		scripts: make(map[string]*Script),
	}
}

// Load reads every script file in the library directory, replacing what
// was loaded before.
func (l *Library) Load() error {
	scripts := make(map[string]*Script)

	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != Ext {
			return nil
		}
		s, err := ReadFile(path)
		if err != nil {
			l.logger.Warn("Failed to read script file", "path", path, "error", err)
			return nil
		}
		scripts[filepath.Base(path)] = s
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load scripts from %s: %w", l.dir, err)
	}

	l.mu.Lock()
	l.scripts = scripts
	l.mu.Unlock()

	l.logger.Info("Scripts loaded", "dir", l.dir, "count", len(scripts))
	return nil
}

// Get returns a copy of the named script.
func (l *Library) Get(name string) (*Script, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s, ok := l.scripts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return s.Clone(), nil
}

// Names lists the loaded script names in sorted order.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.scripts))
	for name := range l.scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Watch reloads individual scripts as they change on disk until ctx is done.
func (l *Library) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create script watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", l.dir, err)
	}
	l.logger.Info("Watching scripts", "dir", l.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			l.handleEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("Script watcher error", "error", err)
		}
	}
}

func (l *Library) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, Ext) {
		return
	}
	name := filepath.Base(event.Name)

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		s, err := ReadFile(event.Name)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				l.logger.Warn("Failed to reload script", "script", name, "error", err)
			}
			return
		}
		l.mu.Lock()
		l.scripts[name] = s
		l.mu.Unlock()
		l.logger.Debug("Script reloaded", "script", name, "lines", s.Len())
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		l.mu.Lock()
		delete(l.scripts, name)
		l.mu.Unlock()
		l.logger.Debug("Script removed", "script", name)
	}
}
