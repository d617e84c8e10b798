package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/coordgrid/internal/core"
	"github.com/JonMunkholm/coordgrid/internal/table"
)

// pasteRequest carries clipboard or dropped text. A client first asks for
// the mapping options, shows the dialog, then sends the text again with the
// chosen mapping or with cancel set. Row and Col paste at an offset instead
// and take no mapping.
type pasteRequest struct {
	Text    string          `json:"text"`
	Mapping *mappingRequest `json:"mapping,omitempty"`
	Cancel  bool            `json:"cancel,omitempty"`
	Row     *int            `json:"row,omitempty"`
	Col     *int            `json:"col,omitempty"`
}

// prompter answers the mapping prompt from the request.
func (p *pasteRequest) prompter() core.MappingPrompter {
	switch {
	case p.Cancel:
		return core.Cancelled()
	case p.Mapping != nil:
		return core.FixedMapping(p.Mapping.toMapping())
	}
	// Only reached for non-blank text
	return core.PrompterFunc(func(context.Context, []string, []table.MappingOption) (table.ColumnMapping, error) {
		return table.ColumnMapping{}, invalidRequest("mapping or cancel is required")
	})
}

// handlePasteOptions returns the mapping selector entries for text without
// changing the window.
func (s *Server) handlePasteOptions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	// Surface an unknown window before the client shows a dialog
	if _, err := s.service.State(windowID(r)); err != nil {
		respondErr(w, r, err)
		return
	}

	opts, err := s.service.MappingOptions(req.Text)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"options": opts})
}

// handlePaste replaces the input table with pasted text, or writes it at an
// offset when row and col are given.
func (s *Server) handlePaste(w http.ResponseWriter, r *http.Request) {
	var req pasteRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	ctx := WithRequestMetadata(r.Context(), r)

	if req.Row != nil || req.Col != nil {
		if req.Row == nil || req.Col == nil {
			respondErr(w, r, invalidRequest("row and col must be given together"))
			return
		}
		if err := s.service.PasteAt(ctx, windowID(r), req.Text, *req.Row, *req.Col); err != nil {
			respondErr(w, r, err)
			return
		}
		s.respondState(w, r)
		return
	}

	s.ingest(w, r, s.service.Paste(ctx, windowID(r), req.Text, req.prompter()))
}

// handleDrop is handlePaste for drag-and-drop text.
func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var req pasteRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if req.Row != nil || req.Col != nil {
		respondErr(w, r, invalidRequest("drop does not take an offset"))
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	s.ingest(w, r, s.service.Drop(ctx, windowID(r), req.Text, req.prompter()))
}

// ingest answers a paste or drop. A cancelled prompt is not an error.
func (s *Server) ingest(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrPasteCancelled):
		writeStatus(w, "cancelled")
	case err != nil:
		respondErr(w, r, err)
	default:
		s.respondState(w, r)
	}
}
