package core

import (
	"context"
	"io"

	"github.com/JonMunkholm/coordgrid/internal/crs"
	"github.com/JonMunkholm/coordgrid/internal/logging"
	"github.com/JonMunkholm/coordgrid/internal/table"
)

// MappingOptions parses text and returns the selector entries the mapping
// prompt would offer. It changes nothing; an empty paste yields only the
// "Not used" entry.
func (s *Service) MappingOptions(text string) ([]table.MappingOption, error) {
	grid, err := table.Parse(text)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return table.MappingOptions(nil), nil
	}
	return table.MappingOptions(grid[0]), nil
}

// Copy renders one table as clipboard text, header line first. ok is false
// for an empty table, in which case the clipboard should be left alone.
func (s *Service) Copy(id string, which TableKind) (text string, ok bool, err error) {
	err = s.withWindow(id, func(w *Window) error {
		text, ok = table.SerializeTSV(w.store(which))
		return nil
	})
	return text, ok, err
}

// CopyRange renders a rectangular selection of one table as clipboard text,
// without a header. Corners are inclusive and may be given in any order.
func (s *Service) CopyRange(id string, which TableKind, r0, c0, r1, c1 int) (string, error) {
	var text string
	err := s.withWindow(id, func(w *Window) error {
		g, err := w.store(which).Range(r0, c0, r1, c1)
		if err != nil {
			return err
		}
		text = table.Format(g)
		return nil
	})
	return text, err
}

// ExportCSV writes the result table as CSV with a UTF-8 BOM.
func (s *Service) ExportCSV(ctx context.Context, id string, w io.Writer) error {
	var rows int
	err := s.withWindow(id, func(win *Window) error {
		if win.result.IsEmpty() {
			return ErrNothingToExport
		}
		rows = win.result.Rows()
		return table.WriteCSV(w, win.result)
	})
	if err != nil {
		return err
	}
	logging.FromContext(logging.ContextWithWindow(ctx, id)).Info("result exported", "rows", rows)
	return nil
}

// Suggest returns the CRS suggestion list for text.
func (s *Service) Suggest(text string) crs.Suggestions {
	return s.catalog.Suggestions(text, s.cfg.SuggestLimit)
}
