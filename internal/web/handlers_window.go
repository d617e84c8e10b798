package web

import (
	"net/http"

	"github.com/JonMunkholm/coordgrid/internal/core"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, "ok")
}

// statusResponse reports open windows and reprojection load.
type statusResponse struct {
	Windows    int                         `json:"windows"`
	CRSEntries int                         `json:"crs_entries"`
	Reproject  core.ReprojectLimiterStatus `json:"reproject"`
}

// handleStatus returns the current load of the service.
// Used for monitoring and to check if the system can accept more work.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Windows:    s.service.WindowCount(),
		CRSEntries: s.service.Catalog().Len(),
		Reproject:  s.service.Limiter().Status(),
	})
}

// handleCreateWindow opens an empty window.
func (s *Server) handleCreateWindow(w http.ResponseWriter, r *http.Request) {
	id, err := s.service.NewWindow(WithRequestMetadata(r.Context(), r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleGetWindow returns both tables and the chosen systems.
func (s *Server) handleGetWindow(w http.ResponseWriter, r *http.Request) {
	s.respondState(w, r)
}

// handleCloseWindow discards a window.
func (s *Server) handleCloseWindow(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CloseWindow(WithRequestMetadata(r.Context(), r), windowID(r)); err != nil {
		respondErr(w, r, err)
		return
	}
	writeStatus(w, "closed")
}

// respondState writes the current state of the window in the route.
func (s *Server) respondState(w http.ResponseWriter, r *http.Request) {
	st, err := s.service.State(windowID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
