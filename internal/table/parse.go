package table

// parse.go turns clipboard text into a Grid.
//
// Spreadsheet tools put a rectangular selection on the clipboard as one line
// per row with tab-separated cells, usually followed by a final line break.
// Drag-and-drop and file input can also carry a UTF-8 BOM and the odd invalid
// byte, so ParseReader cleans the stream before splitting.

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Grid is an ordered list of rows of text cells.
type Grid [][]string

// Header is one label per grid column.
type Header []string

// Columns returns the cell count of the first row, or 0 for an empty grid.
func (g Grid) Columns() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Validate reports the first row whose length differs from the first row.
func (g Grid) Validate() error {
	want := g.Columns()
	for i, row := range g {
		if len(row) != want {
			return &MalformedTableError{Line: i + 1, Got: len(row), Want: want}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Parse splits raw clipboard text into a rectangular grid.
//
// Trailing rows that are empty or hold only whitespace are dropped; rows
// before them are kept as-is. Text without any non-blank line yields an empty
// grid and no error.
func Parse(raw string) (Grid, error) {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	lines := strings.Split(raw, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return Grid{}, nil
	}

	grid := make(Grid, len(lines))
	for i, line := range lines {
		grid[i] = strings.Split(line, "\t")
	}

	if err := grid.Validate(); err != nil {
		return nil, err
	}
	return grid, nil
}

// ReadText reads all of r with a leading UTF-8 BOM removed and invalid UTF-8
// replaced. File and drag-and-drop input go through it before parsing.
func ReadText(r io.Reader) (string, error) {
	data, err := io.ReadAll(NewBOMSkippingReader(r))
	if err != nil {
		return "", fmt.Errorf("read table text: %w", err)
	}
	return string(sanitizeUTF8(data)), nil
}

// ParseReader cleans r with ReadText and parses the result.
func ParseReader(r io.Reader) (Grid, error) {
	text, err := ReadText(r)
	if err != nil {
		return nil, err
	}
	return Parse(text)
}

// sanitizeUTF8 replaces each run of invalid bytes with U+FFFD.
func sanitizeUTF8(data []byte) []byte {
	return bytes.ToValidUTF8(data, []byte("\uFFFD"))
}
