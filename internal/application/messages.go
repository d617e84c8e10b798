package application

import (
	"github.com/atotto/clipboard"

	"github.com/JonMunkholm/coordgrid/internal/crs"
	"github.com/JonMunkholm/coordgrid/internal/table"
)

/* ----------------------------------------
	MESSAGES
---------------------------------------- */

// DoneMsg ends an action successfully; the text goes to the status line.
type DoneMsg string

// ErrMsg ends an action with an error.
type ErrMsg struct{ Err error }

// mappingRequest is sent by MappingDialog from the paste goroutine. The
// answer goes back on reply exactly once.
type mappingRequest struct {
	firstRow []string
	options  []table.MappingOption
	reply    chan mappingReply
}

type mappingReply struct {
	mapping table.ColumnMapping
	ok      bool
}

// suggestionsMsg carries a debounced suggestion list for one picker field.
type suggestionsMsg struct {
	field int
	crs.Suggestions
}

// crsChosenMsg is sent when the picker is accepted.
type crsChosenMsg struct {
	source, target string
}

/* ----------------------------------------
	CLIPBOARD
---------------------------------------- */

// Clipboard reads and writes plain clipboard text.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard uses the desktop clipboard.
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }
