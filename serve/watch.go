package main

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	jsonadapter "github.com/Paranoid-AF/jsonadapter"
)

// reloadDelay coalesces the burst of events an editor save produces.
const reloadDelay = 200 * time.Millisecond

// fileWatcher calls onChange once a burst of writes to any watched file
// has settled. It watches parent directories so that editors which save by
// rename are still seen.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	onChange func()
	delay    time.Duration

	mu     sync.Mutex
	closed bool
	files  map[string]bool
	dirs   map[string]bool
	timer  *time.Timer
	done   chan struct{}
}

func newFileWatcher(delay time.Duration, onChange func()) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	fw := &fileWatcher{
		watcher:  w,
		onChange: onChange,
		delay:    delay,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		done:     make(chan struct{}),
	}
	go fw.loop()
	return fw, nil
}

// Watch replaces the watched file set. Directories that do not exist are
// skipped.
func (fw *fileWatcher) Watch(paths []string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.files = make(map[string]bool, len(paths))
	for _, p := range paths {
		p = filepath.Clean(p)
		fw.files[p] = true
		dir := filepath.Dir(p)
		if fw.dirs[dir] {
			continue
		}
		if err := fw.watcher.Add(dir); err != nil {
			slog.Debug("cannot watch directory", "dir", dir, "error", err)
			continue
		}
		fw.dirs[dir] = true
	}
}

func (fw *fileWatcher) loop() {
	for {
		select {
		case <-fw.done:
			return
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			fw.mu.Lock()
			if fw.files[filepath.Clean(ev.Name)] {
				fw.scheduleLocked()
			}
			fw.mu.Unlock()
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			slog.Debug("file watcher error", "error", err)
		}
	}
}

func (fw *fileWatcher) scheduleLocked() {
	if fw.closed {
		return
	}
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.delay, fw.onChange)
}

// Close stops watching. A pending change notification is dropped and no
// new one is scheduled.
func (fw *fileWatcher) Close() error {
	fw.mu.Lock()
	if fw.closed {
		fw.mu.Unlock()
		return nil
	}
	fw.closed = true
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.mu.Unlock()
	close(fw.done)
	return fw.watcher.Close()
}

// watchedFiles lists the files whose change should rebuild the engine.
func watchedFiles(cfg *jsonadapter.Config) []string {
	paths := []string{jsonadapter.ConfigPath()}
	if cfg != nil {
		for _, p := range cfg.Shell.DefinitionFiles {
			paths = append(paths, jsonadapter.ExpandHome(p))
		}
	}
	return paths
}

// WatchConfig reloads the engine whenever the config file or one of its
// shell definition files changes.
func (s *Server) WatchConfig(cfg *jsonadapter.Config) error {
	var fw *fileWatcher
	var err error
	fw, err = newFileWatcher(reloadDelay, func() {
		next, err := jsonadapter.LoadConfig()
		if err != nil {
			slog.Warn("config changed but failed to load", "error", err)
			return
		}
		for _, w := range jsonadapter.ValidateConfig(next) {
			slog.Warn("config", "warning", w)
		}
		s.reloadEngine(next)
		fw.Watch(watchedFiles(next))
	})
	if err != nil {
		return err
	}
	fw.Watch(watchedFiles(cfg))

	s.mu.Lock()
	s.watcher = fw
	s.mu.Unlock()
	return nil
}
