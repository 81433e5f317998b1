package mcp

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kiosk404/sqlite-mcp/pkg/logger"
)

// reloadDebounce is the quiet period after the last file event before the
// configuration is re-read.
const reloadDebounce = 500 * time.Millisecond

// ConfigWatcher re-reads an MCP configuration file when it changes.
type ConfigWatcher struct {
	path     string
	onChange func(*MCPConfig)
	watcher  *fsnotify.Watcher
	closeCh  chan struct{}

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// WatchConfig starts watching path. The directory is watched rather than
// the file so that editors replacing the file by rename are noticed.
func WatchConfig(path string, onChange func(*MCPConfig)) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %q: %w", filepath.Dir(abs), err)
	}

	w := &ConfigWatcher{
		path:     abs,
		onChange: onChange,
		watcher:  watcher,
		closeCh:  make(chan struct{}),
	}
	go w.watchLoop()
	logger.Debug("[MCP] watching %s", abs)
	return w, nil
}

func (w *ConfigWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.trigger()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("[MCP] config watcher: %v", err)
		case <-w.closeCh:
			return
		}
	}
}

func (w *ConfigWatcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(reloadDebounce, w.reload)
}

func (w *ConfigWatcher) reload() {
	cfg, err := LoadMCPConfig(w.path)
	if err != nil {
		logger.Warn("[MCP] ignoring config change: %v", err)
		return
	}
	logger.Info("[MCP] %s changed, reloading %d servers", w.path, len(cfg.MCPServers))
	w.onChange(cfg)
}

// Close stops watching. Pending reloads are dropped.
func (w *ConfigWatcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.closeCh)
	_ = w.watcher.Close()
}
