package table

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedTable is returned when pasted rows do not share one column count.
	ErrMalformedTable = errors.New("malformed table")

	// ErrMappingIncomplete is returned when a required role has no column.
	ErrMappingIncomplete = errors.New("mapping incomplete")

	// ErrInvalidMapping is returned when a role points outside the grid or
	// two coordinate roles share a column.
	ErrInvalidMapping = errors.New("invalid column mapping")

	// ErrIndexOutOfRange is returned for cell or row access outside the grid.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrEmptyStore is returned by operations that extend an existing grid
	// when the store has never been initialised with Replace.
	ErrEmptyStore = errors.New("empty store: initialise with replace first")
)

// MalformedTableError reports the first row whose cell count differs from
// the first row of the paste.
type MalformedTableError struct {
	Line int // 1-based line in the pasted text
	Got  int
	Want int
}

func (e *MalformedTableError) Error() string {
	return fmt.Sprintf("malformed table: line %d has %d cells, expected %d", e.Line, e.Got, e.Want)
}

func (e *MalformedTableError) Unwrap() error {
	return ErrMalformedTable
}

// MappingIncompleteError lists the coordinate roles that are not assigned.
type MappingIncompleteError struct {
	Missing []Role
}

func (e *MappingIncompleteError) Error() string {
	names := make([]string, len(e.Missing))
	for i, r := range e.Missing {
		names[i] = string(r)
	}
	return fmt.Sprintf("mapping incomplete: %s not assigned", strings.Join(names, ", "))
}

func (e *MappingIncompleteError) Unwrap() error {
	return ErrMappingIncomplete
}

// InvalidMappingError describes why a mapping cannot be applied to a grid.
type InvalidMappingError struct {
	Role    Role
	Index   int
	Columns int
	Reason  string
}

func (e *InvalidMappingError) Error() string {
	return fmt.Sprintf("invalid column mapping: %s -> column %d: %s", e.Role, e.Index+1, e.Reason)
}

func (e *InvalidMappingError) Unwrap() error {
	return ErrInvalidMapping
}

// IndexOutOfRangeError carries the offending position and the grid size.
// Col is Unset for row-only operations.
type IndexOutOfRangeError struct {
	Row  int
	Col  int
	Rows int
	Cols int

	// Limit is set when Rows and Cols are the size limits, not the
	// current table size.
	Limit bool
}

func (e *IndexOutOfRangeError) Error() string {
	if e.Limit {
		return fmt.Sprintf("index out of range: row %d, column %d (tables hold at most %d rows and %d columns)", e.Row, e.Col, e.Rows, e.Cols)
	}
	if e.Col == Unset {
		return fmt.Sprintf("index out of range: row %d (table has %d rows)", e.Row, e.Rows)
	}
	return fmt.Sprintf("index out of range: row %d, column %d (table is %dx%d)", e.Row, e.Col, e.Rows, e.Cols)
}

func (e *IndexOutOfRangeError) Unwrap() error {
	return ErrIndexOutOfRange
}
