package core

import (
	"context"
	"strings"
	"time"

	"github.com/JonMunkholm/coordgrid/internal/crs"
	"github.com/JonMunkholm/coordgrid/internal/logging"
	"github.com/JonMunkholm/coordgrid/internal/reproject"
)

// ResolveCRS turns user text into a validated EPSG code.
func (s *Service) ResolveCRS(text string) (CRSChoice, error) {
	code, err := crs.ParseCode(text)
	if err != nil {
		return CRSChoice{}, err
	}
	if !s.engine.ValidCRS(code) {
		return CRSChoice{}, &crs.InvalidError{Input: text, Code: code}
	}
	return CRSChoice{Text: strings.TrimSpace(text), Code: code}, nil
}

// SetCRS chooses the source and target systems of a window. Both are
// validated before either is stored.
func (s *Service) SetCRS(ctx context.Context, id, source, target string) error {
	src, err := s.ResolveCRS(source)
	if err != nil {
		return err
	}
	dst, err := s.ResolveCRS(target)
	if err != nil {
		return err
	}

	err = s.withWindow(id, func(w *Window) error {
		w.source, w.target = src, dst
		return nil
	})
	if err != nil {
		return err
	}
	logging.FromContext(logging.ContextWithWindow(ctx, id)).Info("crs selected",
		"source", src.Code, "target", dst.Code)
	return nil
}

// Reproject converts the input table of a window with its chosen systems and
// replaces the result table. Rows that fail are written as "Error" cells; the
// batch itself fails only for a missing mapping or system.
func (s *Service) Reproject(ctx context.Context, id string) (ReprojectSummary, error) {
	w, err := s.window(id)
	if err != nil {
		return ReprojectSummary{}, err
	}

	// Snapshot under the lock so the transform runs without holding it
	w.mu.Lock()
	w.lastUsed = s.now()
	snap := w.input.Snapshot()
	src, dst := w.source, w.target
	w.mu.Unlock()

	if !src.IsSet() || !dst.IsSet() {
		return ReprojectSummary{}, ErrCRSNotSet
	}
	if err := snap.Mapping.Require(); err != nil {
		return ReprojectSummary{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ReprojectTimeout)
	defer cancel()
	if err := s.limiter.Acquire(ctx); err != nil {
		return ReprojectSummary{}, err
	}
	defer s.limiter.Release()

	logger := logging.WithFields(logging.ContextWithWindow(ctx, id), "source", src.Code, "target", dst.Code)
	start := time.Now()

	points, err := s.engine.Reproject(ctx, snap, snap.Mapping, src.Code, dst.Code)
	if err != nil {
		return ReprojectSummary{}, err
	}
	withName := snap.Mapping.HasName()
	grid, header := reproject.ResultTable(points, withName)

	err = s.withWindow(id, func(w *Window) error {
		if len(grid) == 0 {
			w.result.Clear()
			return nil
		}
		return w.result.Replace(grid, header, reproject.ResultMapping(withName))
	})
	if err != nil {
		return ReprojectSummary{}, err
	}

	summary := ReprojectSummary{
		Source:   src.Code,
		Target:   dst.Code,
		Rows:     len(points),
		Failed:   reproject.Failed(points),
		Errors:   rowErrors(points, maxReportedErrors),
		Duration: time.Since(start),
	}
	if summary.Failed > 0 {
		logger.Warn("rows failed to reproject", "failed", summary.Failed, "rows", summary.Rows)
	}
	logger.Info("reprojection completed",
		"rows", summary.Rows,
		"duration_ms", summary.Duration.Milliseconds(),
	)
	return summary, nil
}

// maxReportedErrors caps the per-row messages returned with a summary.
const maxReportedErrors = 100

func rowErrors(points []reproject.TransformedPoint, limit int) []RowError {
	out := make([]RowError, 0)
	for i, p := range points {
		if p.Err == nil {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, RowError{Row: i, Message: p.Err.Error()})
	}
	return out
}
