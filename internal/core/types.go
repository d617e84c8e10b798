package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/coordgrid/internal/table"
)

var (
	// ErrWindowNotFound is returned for an unknown or reaped window id.
	ErrWindowNotFound = errors.New("window not found")

	// ErrTooManyWindows is returned by NewWindow when the limit is reached.
	ErrTooManyWindows = errors.New("too many windows open")

	// ErrCRSNotSet is returned by Reproject before both systems are chosen.
	ErrCRSNotSet = errors.New("source or target crs not set")

	// ErrNothingToExport is returned when the result table is empty.
	ErrNothingToExport = errors.New("nothing to export")
)

// TableKind selects one of the two tables of a window.
type TableKind string

const (
	TableInput  TableKind = "input"  // pasted and edited points
	TableResult TableKind = "result" // output of the last reprojection
)

// ParseTableKind accepts "input", "result" or "" (input).
func ParseTableKind(s string) (TableKind, error) {
	switch TableKind(s) {
	case "", TableInput:
		return TableInput, nil
	case TableResult:
		return TableResult, nil
	}
	return "", fmt.Errorf("invalid request: unknown table %q", s)
}

// CRSChoice is a coordinate system picked by the user: the text as typed or
// chosen from the suggestions, and the EPSG code extracted from it.
type CRSChoice struct {
	Text string `json:"text"`
	Code int    `json:"code"`
}

// IsSet reports whether a code was chosen.
func (c CRSChoice) IsSet() bool { return c.Code > 0 }

// WindowState is a detached view of one window.
type WindowState struct {
	ID        string         `json:"id"`
	Input     table.Snapshot `json:"input"`
	Result    table.Snapshot `json:"result"`
	Source    CRSChoice      `json:"source"`
	Target    CRSChoice      `json:"target"`
	CreatedAt time.Time      `json:"created_at"`
	LastUsed  time.Time      `json:"last_used"`
}

// ReprojectSummary reports the outcome of one reprojection.
type ReprojectSummary struct {
	Source   int           `json:"source"`
	Target   int           `json:"target"`
	Rows     int           `json:"rows"`
	Failed   int           `json:"failed"`
	Errors   []RowError    `json:"errors"`
	Duration time.Duration `json:"duration_ns"`
}

// RowError describes one row that could not be reprojected.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}
