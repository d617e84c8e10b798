package core

// scheduler.go closes windows nobody has touched for a while.
//
// The reaper is long-running and context-aware for graceful shutdown. Each
// pass logs how many windows it closed.

import (
	"context"
	"log/slog"
	"time"
)

// ReaperConfig holds configuration for the window reaper.
type ReaperConfig struct {
	IdleTimeout   time.Duration // Close windows unused for this long (default: 30m)
	CheckInterval time.Duration // How often to look (default: 1m)
}

func (c ReaperConfig) withDefaults() ReaperConfig {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 30 * time.Minute
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = time.Minute
	}
	return c
}

// StartWindowReaper closes idle windows every CheckInterval until ctx is
// cancelled. Run it in its own goroutine.
func (s *Service) StartWindowReaper(ctx context.Context, cfg ReaperConfig) {
	cfg = cfg.withDefaults()
	slog.Info("window reaper started",
		"idle_timeout", cfg.IdleTimeout,
		"check_interval", cfg.CheckInterval,
	)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("window reaper stopped")
			return
		case <-ticker.C:
			if n := s.ReapIdleWindows(cfg.IdleTimeout); n > 0 {
				slog.Info("idle windows closed", "closed", n, "open_windows", s.WindowCount())
			}
		}
	}
}

// ReapIdleWindows closes every window unused for longer than idle and
// returns how many it closed.
func (s *Service) ReapIdleWindows(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.RLock()
	var stale []*Window
	for _, w := range s.windows {
		if w.idleSince().Before(cutoff) {
			stale = append(stale, w)
		}
	}
	s.mu.RUnlock()

	closed := 0
	for _, w := range stale {
		s.mu.Lock()
		// Recheck under the write lock in case it was used or closed meanwhile
		current, ok := s.windows[w.id]
		if ok && current == w && w.idleSince().Before(cutoff) {
			delete(s.windows, w.id)
			closed++
		} else {
			ok = false
		}
		s.mu.Unlock()

		if ok {
			w.close()
			slog.Debug("window reaped", "window_id", w.id)
		}
	}
	return closed
}
