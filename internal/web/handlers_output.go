package web

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/coordgrid/internal/core"
)

// handleCopy returns a table, or a range of it, as clipboard text. An empty
// table yields 204 so the client leaves its clipboard alone.
func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	which, err := core.ParseTableKind(q.Get("table"))
	if err != nil {
		respondErr(w, r, err)
		return
	}

	var text string
	if rng := q.Get("range"); rng != "" {
		c, err := parseRange(rng)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		text, err = s.service.CopyRange(windowID(r), which, c[0], c[1], c[2], c[3])
		if err != nil {
			respondErr(w, r, err)
			return
		}
	} else {
		var ok bool
		text, ok, err = s.service.Copy(windowID(r), which)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(text))
}

// handleExportCSV downloads the result table as CSV with a UTF-8 BOM.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.service.ExportCSV(WithRequestMetadata(r.Context(), r), windowID(r), &buf); err != nil {
		respondErr(w, r, err)
		return
	}

	filename := "coordinates_" + time.Now().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	w.Write(buf.Bytes())
}
