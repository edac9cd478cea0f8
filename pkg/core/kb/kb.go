// Package kb loads the user's knowledge base from a directory of text files
// and keeps it fresh by watching for changes.
package kb

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

var watchedExtensions = []string{".md", ".txt"}

// Base is a live view over a knowledge base directory.
type Base struct {
	dir     string
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	mu   sync.RWMutex
	text string

	done chan struct{}
}

// Open loads the directory and starts watching it. A missing directory
// yields an empty base without a watcher.
func Open(dir string, logger *slog.Logger) (*Base, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Base{dir: dir, logger: logger, done: make(chan struct{})}

	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			close(b.done)
			return b, nil
		}
		return nil, fmt.Errorf("stat knowledge base %q: %w", dir, err)
	}

	if err := b.reload(); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %q: %w", dir, err)
	}
	b.watcher = w
	go b.watchLoop()

	return b, nil
}

// Text returns the combined knowledge base content.
func (b *Base) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Close stops the watcher.
func (b *Base) Close() error {
	if b.watcher == nil {
		return nil
	}
	err := b.watcher.Close()
	<-b.done
	return err
}

func (b *Base) watchLoop() {
	defer close(b.done)
	for {
		select {
		case event, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			if !watched(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := b.reload(); err != nil {
				b.logger.Warn("knowledge base reload failed", "error", err)
			}
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			b.logger.Warn("knowledge base watcher error", "error", err)
		}
	}
}

func watched(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range watchedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (b *Base) reload() error {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return fmt.Errorf("read knowledge base %q: %w", b.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !watched(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(b.dir, name))
		if err != nil {
			b.logger.Warn("skipping unreadable knowledge base file", "file", name, "error", err)
			continue
		}
		content := strings.TrimSpace(string(data))
		if content == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("## %s\n%s", name, content))
	}

	b.mu.Lock()
	b.text = strings.Join(parts, "\n\n")
	b.mu.Unlock()
	return nil
}
