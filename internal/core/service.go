package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/coordgrid/internal/crs"
	"github.com/JonMunkholm/coordgrid/internal/logging"
	"github.com/JonMunkholm/coordgrid/internal/reproject"
	"github.com/JonMunkholm/coordgrid/internal/table"
)

// DefaultReprojectTimeout is the maximum duration for one reprojection
// when Config.ReprojectTimeout is zero.
const DefaultReprojectTimeout = 2 * time.Minute

// Config tunes a Service. Zero values select defaults.
type Config struct {
	MaxWindows         int           // 0 means unlimited
	MaxRows            int           // per table, table.DefaultMaxRows if zero
	MaxCols            int           // per table, table.DefaultMaxCols if zero
	SuggestLimit       int           // labels per suggestion list, 0 means all
	MaxReprojections   int           // concurrent reprojection jobs
	ReprojectQueueWait time.Duration // wait for a job slot before failing
	ReprojectTimeout   time.Duration // per job, DefaultReprojectTimeout if zero
}

// Service owns the open windows. Each window holds an input table, a result
// table and the chosen source and target systems.
type Service struct {
	catalog *crs.Catalog
	engine  *reproject.Engine
	limiter *ReprojectLimiter
	cfg     Config
	now     func() time.Time

	mu      sync.RWMutex
	windows map[string]*Window
}

// Window is one editing session. Its tables are not synchronised
// themselves; every access goes through mu.
type Window struct {
	id        string
	createdAt time.Time

	mu       sync.Mutex
	input    *table.Store
	result   *table.Store
	source   CRSChoice
	target   CRSChoice
	lastUsed time.Time
}

// NewService creates a Service. catalog may be empty but not nil.
func NewService(catalog *crs.Catalog, engine *reproject.Engine, cfg Config) *Service {
	if cfg.ReprojectTimeout <= 0 {
		cfg.ReprojectTimeout = DefaultReprojectTimeout
	}
	return &Service{
		catalog: catalog,
		engine:  engine,
		limiter: NewReprojectLimiter(cfg.MaxReprojections, cfg.ReprojectQueueWait),
		cfg:     cfg,
		now:     time.Now,
		windows: make(map[string]*Window),
	}
}

func (s *Service) tableLimits() table.Limits {
	return table.Limits{Rows: s.cfg.MaxRows, Cols: s.cfg.MaxCols}
}

// Catalog returns the CRS catalog the service suggests from.
func (s *Service) Catalog() *crs.Catalog { return s.catalog }

// Limiter exposes the reprojection limiter for status and shutdown.
func (s *Service) Limiter() *ReprojectLimiter { return s.limiter }

// NewWindow opens an empty window and returns its id.
func (s *Service) NewWindow(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.MaxWindows > 0 && len(s.windows) >= s.cfg.MaxWindows {
		return "", ErrTooManyWindows
	}

	now := s.now()
	w := &Window{
		id:        uuid.New().String(),
		createdAt: now,
		input:     table.NewStoreWithLimits(s.tableLimits()),
		result:    table.NewStoreWithLimits(s.tableLimits()),
		lastUsed:  now,
	}
	s.windows[w.id] = w

	logging.WithFields(logging.ContextWithWindow(ctx, w.id), clientFields(ctx)...).
		Info("window opened", "open_windows", len(s.windows))
	return w.id, nil
}

// CloseWindow discards a window and ends its change subscriptions.
func (s *Service) CloseWindow(ctx context.Context, id string) error {
	s.mu.Lock()
	w, ok := s.windows[id]
	if ok {
		delete(s.windows, id)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("window %s: %w", id, ErrWindowNotFound)
	}
	w.close()
	logging.FromContext(logging.ContextWithWindow(ctx, id)).Info("window closed")
	return nil
}

// WindowCount returns the number of open windows.
func (s *Service) WindowCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.windows)
}

// window looks up id.
func (s *Service) window(id string) (*Window, error) {
	s.mu.RLock()
	w, ok := s.windows[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("window %s: %w", id, ErrWindowNotFound)
	}
	return w, nil
}

// withWindow runs fn with the window locked and marks it used.
func (s *Service) withWindow(id string, fn func(w *Window) error) error {
	w, err := s.window(id)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastUsed = s.now()
	return fn(w)
}

// State returns a detached copy of a window.
func (s *Service) State(id string) (WindowState, error) {
	var st WindowState
	err := s.withWindow(id, func(w *Window) error {
		st = WindowState{
			ID:        w.id,
			Input:     w.input.Snapshot(),
			Result:    w.result.Snapshot(),
			Source:    w.source,
			Target:    w.target,
			CreatedAt: w.createdAt,
			LastUsed:  w.lastUsed,
		}
		return nil
	})
	return st, err
}

// Subscribe registers for change notifications of one table of a window.
// The channel closes when cancel is called or the window is closed.
func (s *Service) Subscribe(id string, which TableKind) (<-chan table.Change, func(), error) {
	var (
		ch     <-chan table.Change
		cancel func()
	)
	err := s.withWindow(id, func(w *Window) error {
		ch, cancel = w.store(which).Subscribe()
		return nil
	})
	return ch, cancel, err
}

func (w *Window) store(which TableKind) *table.Store {
	if which == TableResult {
		return w.result
	}
	return w.input
}

func (w *Window) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.input.Close()
	w.result.Close()
}

func (w *Window) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}
