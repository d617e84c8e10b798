package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/coordgrid/internal/table"
)

// errInvalidRequest marks malformed bodies and parameters. core.MapError
// reports it as REQ004.
var errInvalidRequest = errors.New("invalid request")

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidRequest, fmt.Sprintf(format, args...))
}

// decodeJSON reads a size-limited JSON body into dst. Unknown fields are
// rejected; an oversized body keeps its *http.MaxBytesError.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return fmt.Errorf("read body: %w", err)
		}
		if errors.Is(err, io.EOF) {
			return invalidRequest("empty body")
		}
		return invalidRequest("decode body: %v", err)
	}
	return nil
}

// windowID returns the {id} route parameter.
func windowID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// mappingRequest is a column mapping as sent by clients. An omitted or null
// role is unset.
type mappingRequest struct {
	Name      *int `json:"name"`
	Longitude *int `json:"longitude"`
	Latitude  *int `json:"latitude"`
}

func (m *mappingRequest) toMapping() table.ColumnMapping {
	get := func(p *int) int {
		if p == nil {
			return table.Unset
		}
		return *p
	}
	return table.ColumnMapping{
		Name:      get(m.Name),
		Longitude: get(m.Longitude),
		Latitude:  get(m.Latitude),
	}
}

// parseRange reads "r0,c0,r1,c1".
func parseRange(s string) ([4]int, error) {
	var out [4]int
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return out, invalidRequest("range needs four numbers, got %q", s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return out, invalidRequest("range value %q is not a number", p)
		}
		out[i] = n
	}
	return out, nil
}
