// Package core provides the window-session logic for coordinate tables.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Typed errors are resolved first (errors.Is / errors.As) so the message can
// name the offending line, row, column or EPSG code. Untyped errors fall back
// to case-insensitive message patterns.
//
// # Table Errors (GRID001-GRID099)
//
//	GRID001 - Malformed table: Pasted rows have different cell counts
//	          Action: Copy a rectangular selection from the spreadsheet
//	          Typed: table.ErrMalformedTable
//
//	GRID002 - Out of range: Row or column is outside the table
//	          Action: Refresh the table and select a cell that exists
//	          Typed: table.ErrIndexOutOfRange
//
//	GRID003 - Empty table: The table has no rows yet
//	          Action: Paste data or add a point first
//	          Typed: table.ErrEmptyStore
//
// # Mapping Errors (MAP001-MAP099)
//
//	MAP001 - Mapping incomplete: Longitude/X or Latitude/Y column not chosen
//	         Action: Paste again and choose both coordinate columns
//	         Typed: table.ErrMappingIncomplete
//
//	MAP002 - Invalid mapping: A role points at a missing or shared column
//	         Action: Choose different columns for longitude and latitude
//	         Typed: table.ErrInvalidMapping
//
// # CRS Errors (CRS001-CRS099)
//
//	CRS001 - Invalid CRS: The coordinate system is not recognised
//	         Action: Pick a system from the suggestion list
//	         Typed: crs.ErrInvalidCRS
//
//	CRS002 - CRS not set: Source or target coordinate system missing
//	         Action: Choose both coordinate systems before converting
//	         Typed: ErrCRSNotSet
//
// # Window Errors (WIN001-WIN099)
//
//	WIN001 - Window not found: The session expired or was closed
//	         Action: Open a new window
//	         Typed: ErrWindowNotFound
//
//	WIN002 - Too many windows: The server limit was reached
//	         Action: Close an unused window and try again
//	         Typed: ErrTooManyWindows
//
//	WIN003 - Nothing to export: The result table is empty
//	         Action: Convert coordinates before exporting
//	         Typed: ErrNothingToExport
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Busy: Too many conversions in progress
//	         Action: Please wait a moment and try again
//	         Typed: ErrTooManyReprojections
//
//	REQ002 - Request cancelled
//	         Patterns: "context canceled"
//
//	REQ003 - Request timeout
//	         Patterns: "context deadline exceeded", "timeout"
//
//	REQ004 - Bad request: The request body could not be read
//	         Patterns: "invalid request"
//
//	REQ005 - Body too large: The pasted text exceeds the size limit
//	         Patterns: "request body too large"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # For Support Staff
//
// When a user reports an error code:
//  1. Look up the code in this reference
//  2. Check the associated patterns to understand what triggered it
//  3. Review the suggested action to guide the user
//  4. If ERR000, check application logs for the original technical error
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/coordgrid/internal/crs"
	"github.com/JonMunkholm/coordgrid/internal/table"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// typedMessage resolves one error family. build receives the matched error
// and returns the message, so details such as the line number can be shown.
type typedMessage struct {
	target error
	build  func(err error) UserMessage
}

// typedMessages is checked in order before the pattern table.
var typedMessages = []typedMessage{
	// =========================================================================
	// Table Errors (GRID001-GRID003)
	// =========================================================================
	{
		target: table.ErrMalformedTable,
		build: func(err error) UserMessage {
			msg := "Pasted rows have different cell counts"
			var mErr *table.MalformedTableError
			if errors.As(err, &mErr) {
				msg = fmt.Sprintf("Line %d has %d cells, expected %d", mErr.Line, mErr.Got, mErr.Want)
			}
			return UserMessage{
				Message: msg,
				Action:  "Copy a rectangular selection from the spreadsheet",
				Code:    "GRID001",
			}
		},
	},
	{
		target: table.ErrIndexOutOfRange,
		build: func(err error) UserMessage {
			msg := "Row or column is outside the table"
			var iErr *table.IndexOutOfRangeError
			if errors.As(err, &iErr) {
				if iErr.Limit {
					return UserMessage{
						Message: fmt.Sprintf("Pasting there would grow the table past %d rows or %d columns",
							iErr.Rows, iErr.Cols),
						Action: "Paste closer to the existing data",
						Code:   "GRID002",
					}
				}
				if iErr.Col == table.Unset {
					msg = fmt.Sprintf("Row %d is outside the table (%d rows)", iErr.Row+1, iErr.Rows)
				} else {
					msg = fmt.Sprintf("Cell at row %d, column %d is outside the table (%d x %d)",
						iErr.Row+1, iErr.Col+1, iErr.Rows, iErr.Cols)
				}
			}
			return UserMessage{
				Message: msg,
				Action:  "Refresh the table and select a cell that exists",
				Code:    "GRID002",
			}
		},
	},
	{
		target: table.ErrEmptyStore,
		build: func(error) UserMessage {
			return UserMessage{
				Message: "The table has no rows yet",
				Action:  "Paste data or add a point first",
				Code:    "GRID003",
			}
		},
	},

	// =========================================================================
	// Mapping Errors (MAP001-MAP002)
	// =========================================================================
	{
		target: table.ErrMappingIncomplete,
		build: func(err error) UserMessage {
			msg := "Coordinate columns are not chosen"
			var mErr *table.MappingIncompleteError
			if errors.As(err, &mErr) {
				labels := make([]string, len(mErr.Missing))
				for i, r := range mErr.Missing {
					labels[i] = roleLabel(r)
				}
				msg = "No column chosen for " + strings.Join(labels, " and ")
			}
			return UserMessage{
				Message: msg,
				Action:  "Paste again and choose both coordinate columns",
				Code:    "MAP001",
			}
		},
	},
	{
		target: table.ErrInvalidMapping,
		build: func(err error) UserMessage {
			msg := "A column choice does not fit the table"
			var mErr *table.InvalidMappingError
			if errors.As(err, &mErr) {
				msg = fmt.Sprintf("%s cannot use column %d: %s", roleLabel(mErr.Role), mErr.Index+1, mErr.Reason)
			}
			return UserMessage{
				Message: msg,
				Action:  "Choose different columns for longitude and latitude",
				Code:    "MAP002",
			}
		},
	},

	// =========================================================================
	// CRS Errors (CRS001-CRS002)
	// =========================================================================
	{
		target: crs.ErrInvalidCRS,
		build: func(err error) UserMessage {
			msg := "The coordinate system is not recognised"
			var cErr *crs.InvalidError
			if errors.As(err, &cErr) {
				if cErr.Code != 0 {
					msg = fmt.Sprintf("EPSG:%d is not a recognised coordinate system", cErr.Code)
				} else {
					msg = fmt.Sprintf("%q does not name a coordinate system", cErr.Input)
				}
			}
			return UserMessage{
				Message: msg,
				Action:  "Pick a system from the suggestion list",
				Code:    "CRS001",
			}
		},
	},
	{
		target: ErrCRSNotSet,
		build: func(error) UserMessage {
			return UserMessage{
				Message: "Source or target coordinate system is not set",
				Action:  "Choose both coordinate systems before converting",
				Code:    "CRS002",
			}
		},
	},

	// =========================================================================
	// Window Errors (WIN001-WIN003)
	// =========================================================================
	{
		target: ErrWindowNotFound,
		build: func(error) UserMessage {
			return UserMessage{
				Message: "Window not found",
				Action:  "The session may have expired. Please open a new window",
				Code:    "WIN001",
			}
		},
	},
	{
		target: ErrTooManyWindows,
		build: func(error) UserMessage {
			return UserMessage{
				Message: "Too many windows are open",
				Action:  "Close an unused window and try again",
				Code:    "WIN002",
			}
		},
	},
	{
		target: ErrNothingToExport,
		build: func(error) UserMessage {
			return UserMessage{
				Message: "There is no converted data to export",
				Action:  "Convert coordinates before exporting",
				Code:    "WIN003",
			}
		},
	},
	{
		target: ErrTooManyReprojections,
		build: func(error) UserMessage {
			return UserMessage{
				Message: "System is busy converting other tables",
				Action:  "Please wait a moment and try again",
				Code:    "REQ001",
			}
		},
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Patterns are matched using strings.Contains, so partial matches work.
// The first matching pattern wins, so more specific patterns come first.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Request Errors (REQ002-REQ005)
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller table or try again later",
			Code:    "REQ003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller table or try again later",
			Code:    "REQ003",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Check the request body and try again",
			Code:    "REQ004",
		},
	},

	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The pasted text is too large",
			Action:  "Paste fewer rows at a time",
			Code:    "REQ005",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
// Support staff should check application logs for the original technical
// error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

func roleLabel(r table.Role) string {
	switch r {
	case table.RoleName:
		return table.LabelName
	case table.RoleLongitude:
		return table.LabelLongitude
	case table.RoleLatitude:
		return table.LabelLatitude
	}
	return string(r)
}

// MapError converts a technical error to a user-friendly message.
// Typed errors are resolved first; otherwise the first matching pattern
// wins. If nothing matches, a generic fallback with code ERR000 is returned.
//
// Example:
//
//	_, err := table.Parse("a\tb\nc")
//	msg := MapError(err)
//	// msg.Code == "GRID001"
//	// msg.Message == "Line 2 has 1 cells, expected 2"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, tm := range typedMessages {
		if errors.Is(err, tm.target) {
			return tm.build(err)
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether an error maps to a specific message rather
// than the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-friendly message.
// The original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps a technical error to a UserError. Returns nil if err is
// nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
