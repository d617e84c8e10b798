package table

import "sync"

// ChangeKind names the kind of mutation a Change describes.
type ChangeKind string

const (
	ChangeReset        ChangeKind = "reset"         // whole structure replaced or resized
	ChangeCell         ChangeKind = "cell"          // one cell at Row, Col
	ChangeRowsInserted ChangeKind = "rows_inserted" // one row appended at Row
	ChangeRowsRemoved  ChangeKind = "rows_removed"  // row Row removed, later rows shifted up
	ChangeHeader       ChangeKind = "header"        // header labels and mapping changed
)

// Change is delivered to subscribers after a store mutation.
type Change struct {
	Kind ChangeKind `json:"kind"`
	Row  int        `json:"row"`
	Col  int        `json:"col"`
}

// listenerBuffer is the per-subscriber channel capacity.
const listenerBuffer = 32

// hub fans changes out to subscribers without blocking the mutating caller.
// A subscriber that falls behind misses changes; a ChangeReset tells it to
// re-read everything anyway.
type hub struct {
	mu        sync.Mutex
	listeners map[int]chan Change
	next      int
}

func (h *hub) subscribe() (<-chan Change, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.listeners == nil {
		h.listeners = make(map[int]chan Change)
	}
	id := h.next
	h.next++
	ch := make(chan Change, listenerBuffer)
	h.listeners[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.listeners[id]; ok {
				close(c)
				delete(h.listeners, id)
			}
		})
	}
	return ch, cancel
}

func (h *hub) notify(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.listeners {
		select {
		case ch <- c:
		default:
			// Listener is slow, skip this change
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.listeners {
		close(ch)
		delete(h.listeners, id)
	}
}
