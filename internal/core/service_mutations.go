package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/coordgrid/internal/logging"
	"github.com/JonMunkholm/coordgrid/internal/table"
)

// Paste replaces the input table of a window with clipboard text.
//
// The text is parsed, then prompter is asked for the column mapping. Nothing
// changes if parsing fails, the prompt is cancelled or the mapping does not
// fit the pasted grid. Text with no non-blank line is a no-op and does not
// prompt.
func (s *Service) Paste(ctx context.Context, id, text string, prompter MappingPrompter) error {
	return s.ingest(ctx, id, text, prompter, "paste", table.Parse)
}

// Drop is Paste for text delivered by drag-and-drop. Dropped files often
// start with a UTF-8 BOM, which is removed before parsing.
func (s *Service) Drop(ctx context.Context, id, text string, prompter MappingPrompter) error {
	parse := func(text string) (table.Grid, error) {
		return table.ParseReader(strings.NewReader(text))
	}
	return s.ingest(ctx, id, text, prompter, "drop", parse)
}

func (s *Service) ingest(ctx context.Context, id, text string, prompter MappingPrompter, source string, parse func(string) (table.Grid, error)) error {
	// Fail fast on an unknown window before bothering the user
	if _, err := s.window(id); err != nil {
		return err
	}

	grid, err := parse(text)
	if err != nil {
		return err
	}
	if len(grid) == 0 {
		return nil
	}

	// The prompt may block on the user, so it runs without the window lock
	mapping, err := prompter.PromptMapping(ctx, grid[0], table.MappingOptions(grid[0]))
	if err != nil {
		return err
	}
	cols := grid.Columns()
	if err := mapping.Validate(cols); err != nil {
		return err
	}

	err = s.withWindow(id, func(w *Window) error {
		return w.input.Replace(grid, table.HeaderFor(cols, mapping), mapping)
	})
	if err != nil {
		return err
	}

	logging.WithFields(logging.ContextWithWindow(ctx, id), clientFields(ctx)...).Info(source+" committed",
		"rows", len(grid),
		"columns", cols,
		"name_col", mapping.Name,
		"lon_col", mapping.Longitude,
		"lat_col", mapping.Latitude,
	)
	return nil
}

// PasteAt writes clipboard text into the input table with its top-left cell
// at (row, col), growing the table as needed within the configured row and
// column limits. No mapping is asked for; an empty table is first filled
// with blank cells up to the offset.
func (s *Service) PasteAt(ctx context.Context, id, text string, row, col int) error {
	grid, err := table.Parse(text)
	if err != nil {
		return err
	}

	err = s.withWindow(id, func(w *Window) error {
		if len(grid) == 0 {
			return nil
		}
		if row < 0 || col < 0 {
			return &table.IndexOutOfRangeError{Row: row, Col: col, Rows: w.input.Rows(), Cols: w.input.Columns()}
		}
		// Checked before the blank grid below is allocated
		if err := w.input.Limits().CheckPaste(grid, row, col); err != nil {
			return err
		}
		if w.input.IsEmpty() {
			blank := blankGrid(row+len(grid), col+grid.Columns())
			if err := w.input.Replace(blank, nil, table.UnsetMapping()); err != nil {
				return err
			}
		}
		return w.input.PasteAt(grid, row, col)
	})
	if err != nil {
		return err
	}

	logging.WithFields(logging.ContextWithWindow(ctx, id), clientFields(ctx)...).Info("paste at offset committed",
		"rows", len(grid),
		"columns", grid.Columns(),
		"row", row,
		"col", col,
	)
	return nil
}

func blankGrid(rows, cols int) table.Grid {
	g := make(table.Grid, rows)
	for i := range g {
		g[i] = make([]string, cols)
	}
	return g
}

// SetCell edits one cell of either table.
func (s *Service) SetCell(ctx context.Context, id string, which TableKind, row, col int, value string) error {
	err := s.withWindow(id, func(w *Window) error {
		return w.store(which).SetCell(row, col, value)
	})
	if err != nil {
		return err
	}
	logging.FromContext(logging.ContextWithWindow(ctx, id)).Debug("cell updated",
		"table", which, "row", row, "col", col)
	return nil
}

// AddPoint appends a blank row to the input table. An empty table gets one
// blank row with Name, Longitude/X and Latitude/Y columns already mapped.
func (s *Service) AddPoint(ctx context.Context, id string) (int, error) {
	var rows int
	err := s.withWindow(id, func(w *Window) error {
		if w.input.IsEmpty() {
			m := table.ColumnMapping{Name: 0, Longitude: 1, Latitude: 2}
			if err := w.input.Replace(blankGrid(1, 3), table.HeaderFor(3, m), m); err != nil {
				return err
			}
		} else if err := w.input.InsertRowAtEnd(); err != nil {
			return err
		}
		rows = w.input.Rows()
		return nil
	})
	if err != nil {
		return 0, err
	}
	logging.FromContext(logging.ContextWithWindow(ctx, id)).Info("point added", "rows", rows)
	return rows, nil
}

// RemoveRows deletes input rows by index. Either every index is valid and
// all are removed, or nothing changes.
func (s *Service) RemoveRows(ctx context.Context, id string, rows []int) error {
	err := s.withWindow(id, func(w *Window) error {
		return w.input.RemoveRows(rows)
	})
	if err != nil {
		return err
	}
	logging.WithFields(logging.ContextWithWindow(ctx, id), clientFields(ctx)...).Info("rows removed", "count", len(rows))
	return nil
}

// SwapLatLon exchanges the Longitude/X and Latitude/Y labels and mapping of
// the input table without touching any cell. It fails with a
// *table.MappingIncompleteError unless both roles are mapped.
func (s *Service) SwapLatLon(ctx context.Context, id string) error {
	err := s.withWindow(id, func(w *Window) error {
		if w.input.SwapLatLonHeaders() {
			return nil
		}
		if err := w.input.Mapping().Require(); err != nil {
			return err
		}
		return fmt.Errorf("swap longitude and latitude: %w", table.ErrInvalidMapping)
	})
	if err != nil {
		return err
	}
	logging.FromContext(logging.ContextWithWindow(ctx, id)).Info("longitude and latitude swapped")
	return nil
}

// Clear empties one table of a window.
func (s *Service) Clear(ctx context.Context, id string, which TableKind) error {
	err := s.withWindow(id, func(w *Window) error {
		w.store(which).Clear()
		return nil
	})
	if err != nil {
		return err
	}
	logging.FromContext(logging.ContextWithWindow(ctx, id)).Info("table cleared", "table", which)
	return nil
}
