package rules

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a rules file. YAML and JSON are both accepted.
func LoadFile(path string) (*RuleSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules.LoadFile: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("rules.LoadFile: decode %s: %w", path, err)
	}
	rs, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("rules.LoadFile: %w", err)
	}
	return rs, nil
}

// Watcher reloads a rules file into an Engine whenever the file changes.
// A file that fails to parse leaves the active rules in place.
type Watcher struct {
	path   string
	engine *Engine
	log    *slog.Logger
}

// NewWatcher creates a Watcher for path.
func NewWatcher(path string, engine *Engine, logger *slog.Logger) *Watcher {
	return &Watcher{
		path:   filepath.Clean(path),
		engine: engine,
		log:    logger.With("component", "rules_watcher", "path", path),
	}
}

// Run watches until ctx is cancelled. The directory is watched rather than
// the file so that editors replacing the file by rename are noticed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("rules.Watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("rules.Watcher: watch %s: %w", filepath.Dir(w.path), err)
	}
	w.log.Info("watching rules file")

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) reload() {
	rs, err := LoadFile(w.path)
	if err != nil {
		w.log.Error("reload failed, keeping previous rules", slog.String("error", err.Error()))
		return
	}
	w.engine.Swap(rs)
	w.log.Info("rules reloaded", slog.Int("collections", len(rs.Collections())))
}
