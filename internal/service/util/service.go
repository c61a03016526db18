// Package util holds runtime toggles switched over HTTP, such as response
// throttling.
package util

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/heartmarshall/docstore/internal/config"
)

// Throttle is the toggle that delays every response.
const Throttle = "throttle"

// Service stores named boolean toggles.
type Service struct {
	log *slog.Logger

	mu      sync.RWMutex
	toggles map[string]bool
}

// NewService creates a util service with toggles initialised from cfg.
func NewService(logger *slog.Logger, cfg config.UtilConfig) *Service {
	return &Service{
		log:     logger.With("service", "util"),
		toggles: map[string]bool{Throttle: cfg.Throttle},
	}
}

// Get returns the state of a toggle. Unknown toggles report ok=false.
func (s *Service) Get(name string) (value bool, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok = s.toggles[name]
	return value, ok
}

// Enabled reports whether a toggle is on.
func (s *Service) Enabled(name string) bool {
	v, _ := s.Get(name)
	return v
}

// Set switches every toggle named in values.
func (s *Service) Set(ctx context.Context, values map[string]bool) {
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)

	s.mu.Lock()
	for _, k := range names {
		s.toggles[k] = values[k]
	}
	s.mu.Unlock()

	for _, k := range names {
		s.log.InfoContext(ctx, "toggle switched",
			slog.String("name", k),
			slog.Bool("enabled", values[k]))
	}
}
