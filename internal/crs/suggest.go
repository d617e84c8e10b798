package crs

import (
	"strings"
	"sync"
	"time"
)

// DefaultDebounce is the pause after the last keystroke before suggestions
// are refreshed.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer runs only the most recently triggered function, once the delay
// has passed without another trigger.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// NewDebouncer returns a debouncer with the given delay. A non-positive
// delay uses DefaultDebounce.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Trigger cancels any pending call and schedules fn after the delay.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := gen == d.gen
		d.mu.Unlock()
		// A timer that fired while being replaced must not run
		if current {
			fn()
		}
	})
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Suggestions is one refresh of a suggestion list.
type Suggestions struct {
	Query string   `json:"query"`
	Items []string `json:"items"`
	Hide  bool     `json:"hide"` // text already equals a label, or nothing matched
}

// Suggestions computes the list for text without debouncing. Text that
// already equals a label hides the list.
func (c *Catalog) Suggestions(text string, limit int) Suggestions {
	text = strings.TrimSpace(text)
	if c.ExactMatch(text) {
		return Suggestions{Query: text, Items: []string{}, Hide: true}
	}
	items := c.Suggest(text, limit)
	return Suggestions{Query: text, Items: items, Hide: len(items) == 0}
}

// Suggester refreshes suggestions for a text field as it is edited.
type Suggester struct {
	catalog  *Catalog
	limit    int
	debounce *Debouncer
	deliver  func(Suggestions)
}

// NewSuggester binds a catalog to a debounced callback. deliver runs on a
// timer goroutine.
func NewSuggester(catalog *Catalog, limit int, delay time.Duration, deliver func(Suggestions)) *Suggester {
	return &Suggester{
		catalog:  catalog,
		limit:    limit,
		debounce: NewDebouncer(delay),
		deliver:  deliver,
	}
}

// Update schedules a refresh for text, replacing any pending one.
func (s *Suggester) Update(text string) {
	s.debounce.Trigger(func() {
		s.deliver(s.catalog.Suggestions(text, s.limit))
	})
}

// Stop cancels a pending refresh.
func (s *Suggester) Stop() {
	s.debounce.Stop()
}
