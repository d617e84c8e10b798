package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/coordgrid/internal/crs"
)

// handleSuggestCRS returns the suggestion list for the text typed so far.
// Debouncing is left to the client.
func (s *Server) handleSuggestCRS(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Suggest(r.URL.Query().Get("q")))
}

// crsResponse describes one EPSG code.
type crsResponse struct {
	Code  int    `json:"code"`
	Valid bool   `json:"valid"`
	Name  string `json:"name,omitempty"`
	Label string `json:"label,omitempty"`
}

// handleLookupCRS reports whether a code can be used for reprojection.
// Text without a code is a bad request; a code PROJ does not know is
// reported as invalid.
func (s *Server) handleLookupCRS(w http.ResponseWriter, r *http.Request) {
	code, err := crs.ParseCode(chi.URLParam(r, "code"))
	if err != nil {
		respondErr(w, r, err)
		return
	}

	resp := crsResponse{Code: code}
	if e, ok := s.service.Catalog().Lookup(code); ok {
		resp.Name, resp.Label = e.Name, e.Label()
	}

	_, err = s.service.ResolveCRS(chi.URLParam(r, "code"))
	switch {
	case err == nil:
		resp.Valid = true
	case !errors.Is(err, crs.ErrInvalidCRS):
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSetCRS chooses the source and target systems of a window.
func (s *Server) handleSetCRS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
		Target string `json:"target"`
	}
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.SetCRS(ctx, windowID(r), req.Source, req.Target); err != nil {
		respondErr(w, r, err)
		return
	}
	s.respondState(w, r)
}

// handleReproject converts the input table into the result table.
func (s *Server) handleReproject(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Reproject(WithRequestMetadata(r.Context(), r), windowID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
