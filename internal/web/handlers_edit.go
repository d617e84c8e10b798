package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/coordgrid/internal/core"
)

// handleSetCell edits one cell of either table.
func (s *Server) handleSetCell(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Table string `json:"table"`
		Row   int    `json:"row"`
		Col   int    `json:"col"`
		Value string `json:"value"`
	}
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	which, err := core.ParseTableKind(req.Table)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.SetCell(ctx, windowID(r), which, req.Row, req.Col, req.Value); err != nil {
		respondErr(w, r, err)
		return
	}
	writeStatus(w, "updated")
}

// handleAddPoint appends a blank row to the input table.
func (s *Server) handleAddPoint(w http.ResponseWriter, r *http.Request) {
	rows, err := s.service.AddPoint(WithRequestMetadata(r.Context(), r), windowID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"rows": rows})
}

// handleRemoveRows deletes input rows by index, all or nothing.
func (s *Server) handleRemoveRows(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rows []int `json:"rows"`
	}
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if len(req.Rows) == 0 {
		respondErr(w, r, invalidRequest("no rows specified"))
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.RemoveRows(ctx, windowID(r), req.Rows); err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": len(req.Rows)})
}

// handleSwap exchanges the longitude and latitude columns of the input table.
func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	if err := s.service.SwapLatLon(WithRequestMetadata(r.Context(), r), windowID(r)); err != nil {
		respondErr(w, r, err)
		return
	}
	s.respondState(w, r)
}

// handleClearTable empties the input or result table.
func (s *Server) handleClearTable(w http.ResponseWriter, r *http.Request) {
	which, err := core.ParseTableKind(chi.URLParam(r, "table"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if err := s.service.Clear(WithRequestMetadata(r.Context(), r), windowID(r), which); err != nil {
		respondErr(w, r, err)
		return
	}
	writeStatus(w, "cleared")
}
