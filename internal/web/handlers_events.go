package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/coordgrid/internal/core"
	"github.com/JonMunkholm/coordgrid/internal/logging"
	"github.com/JonMunkholm/coordgrid/internal/table"
)

// heartbeatInterval keeps idle event streams alive through proxies.
var heartbeatInterval = 15 * time.Second

// changeEvent is one store change as sent to clients.
type changeEvent struct {
	Table core.TableKind `json:"table"`
	table.Change
}

// handleEvents streams store changes of a window via Server-Sent Events.
// With ?table=input or ?table=result only that table is followed; without
// it both are. A "reset" change means the client should re-read the table.
// The stream ends with a "closed" event when the window is closed.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := windowID(r)

	kinds := []core.TableKind{core.TableInput, core.TableResult}
	if t := r.URL.Query().Get("table"); t != "" {
		which, err := core.ParseTableKind(t)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		kinds = []core.TableKind{which}
	}

	events := make(chan changeEvent)
	done := make(chan struct{})
	defer close(done)

	open := 0
	closed := make(chan struct{}, len(kinds))
	for _, kind := range kinds {
		ch, cancel, err := s.service.Subscribe(id, kind)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		defer cancel()
		open++

		go func(kind core.TableKind, ch <-chan table.Change) {
			for c := range ch {
				select {
				case events <- changeEvent{Table: kind, Change: c}:
				case <-done:
					return
				}
			}
			closed <- struct{}{}
		}(kind, ch)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	fmt.Fprintf(w, "event: ready\ndata: {\"window\":%q}\n\n", id)
	if err := rc.Flush(); err != nil {
		logging.FromContext(r.Context()).Error("event stream not supported", "error", err)
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case ev := <-events:
			data, _ := json.Marshal(ev)
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)

		case <-closed:
			// Stores close together with their window
			if open--; open == 0 {
				fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				rc.Flush()
				return
			}
			continue

		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")

		case <-r.Context().Done():
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
