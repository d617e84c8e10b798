// Package reproject converts the mapped coordinate columns of a table from
// one coordinate reference system to another.
//
// The geodetic math is behind the Transformer and Validator interfaces; the
// PROJ-backed implementation lives in internal/geodesy. Coordinates are
// always passed longitude/X first, with geographic systems in degrees.
package reproject

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/coordgrid/internal/crs"
	"github.com/JonMunkholm/coordgrid/internal/table"
)

// Transformer converts one point between two EPSG codes.
type Transformer interface {
	Transform(src, dst int, x, y float64) (float64, float64, error)
}

// Validator reports whether an EPSG code can be used.
type Validator interface {
	ValidCRS(code int) bool
}

// Backend is what Engine needs from a geodesy library.
type Backend interface {
	Transformer
	Validator
}

// Source is the read side of a table.
// Satisfied by *table.Store and table.Snapshot.
type Source interface {
	Rows() int
	Cell(row, col int) (string, error)
}

// ErrCoordinateParse is wrapped by CoordinateParseError.
var ErrCoordinateParse = errors.New("coordinate is not a number")

// CoordinateParseError names the cell that could not be read as a number.
type CoordinateParseError struct {
	Row    int
	Column int
	Value  string
}

func (e *CoordinateParseError) Error() string {
	return fmt.Sprintf("row %d, column %d: %q is not a number", e.Row+1, e.Column+1, e.Value)
}

func (e *CoordinateParseError) Unwrap() error {
	return ErrCoordinateParse
}

// TransformError wraps a per-row failure reported by the Transformer.
type TransformError struct {
	Row int
	Err error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("row %d: transform failed: %v", e.Row+1, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// ParseCoordinate trims value, accepts a decimal comma and parses the rest
// as a float.
func ParseCoordinate(value string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// TransformedPoint is the outcome for one input row. Err is non-nil when the
// row could not be converted; X and Y are then meaningless.
type TransformedPoint struct {
	Name    string
	HasName bool
	X, Y    float64
	Err     error
}

// Engine reprojects table rows through a Backend.
type Engine struct {
	backend Backend
}

// NewEngine returns an engine using b for validation and transforms.
func NewEngine(b Backend) *Engine {
	return &Engine{backend: b}
}

// ValidCRS reports whether code can be used as a source or target.
func (e *Engine) ValidCRS(code int) bool {
	return e.backend.ValidCRS(code)
}

// Reproject converts every row of src. The batch fails only when the mapping
// lacks a coordinate role or a code is invalid; bad rows are reported in
// their point's Err and never abort the batch. ctx is checked between rows.
func (e *Engine) Reproject(ctx context.Context, src Source, mapping table.ColumnMapping, from, to int) ([]TransformedPoint, error) {
	if err := mapping.Require(); err != nil {
		return nil, err
	}
	for _, code := range []int{from, to} {
		if !e.backend.ValidCRS(code) {
			return nil, &crs.InvalidError{Input: strconv.Itoa(code), Code: code}
		}
	}

	points := make([]TransformedPoint, src.Rows())
	for r := range points {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		points[r] = e.transformRow(src, mapping, r, from, to)
	}
	return points, nil
}

func (e *Engine) transformRow(src Source, m table.ColumnMapping, row, from, to int) TransformedPoint {
	var p TransformedPoint
	if m.HasName() {
		name, err := src.Cell(row, m.Name)
		if err != nil {
			p.Err = err
			return p
		}
		p.Name, p.HasName = name, true
	}

	x, err := readCoordinate(src, row, m.Longitude)
	if err != nil {
		p.Err = err
		return p
	}
	y, err := readCoordinate(src, row, m.Latitude)
	if err != nil {
		p.Err = err
		return p
	}

	p.X, p.Y, err = e.backend.Transform(from, to, x, y)
	if err != nil {
		p.Err = &TransformError{Row: row, Err: err}
	}
	return p
}

func readCoordinate(src Source, row, col int) (float64, error) {
	raw, err := src.Cell(row, col)
	if err != nil {
		return 0, err
	}
	v, ok := ParseCoordinate(raw)
	if !ok {
		return 0, &CoordinateParseError{Row: row, Column: col, Value: raw}
	}
	return v, nil
}

// ErrorCell is written in place of both coordinates of a failed row.
const ErrorCell = "Error"

// ResultTable lays points out as a grid: the name column first when
// withName is set, then longitude/X and latitude/Y.
func ResultTable(points []TransformedPoint, withName bool) (table.Grid, table.Header) {
	header := table.Header{table.LabelLongitude, table.LabelLatitude}
	if withName {
		header = append(table.Header{table.LabelName}, header...)
	}

	grid := make(table.Grid, len(points))
	for i, p := range points {
		row := make([]string, 0, len(header))
		if withName {
			row = append(row, p.Name)
		}
		if p.Err != nil {
			row = append(row, ErrorCell, ErrorCell)
		} else {
			row = append(row, FormatCoordinate(p.X), FormatCoordinate(p.Y))
		}
		grid[i] = row
	}
	return grid, header
}

// ResultMapping is the column mapping of a grid built by ResultTable.
func ResultMapping(withName bool) table.ColumnMapping {
	if withName {
		return table.ColumnMapping{Name: 0, Longitude: 1, Latitude: 2}
	}
	return table.ColumnMapping{Name: table.Unset, Longitude: 0, Latitude: 1}
}

// FormatCoordinate renders v with the fewest digits that parse back to v.
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Failed counts the points with an error.
func Failed(points []TransformedPoint) int {
	n := 0
	for _, p := range points {
		if p.Err != nil {
			n++
		}
	}
	return n
}
