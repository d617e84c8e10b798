// Package crs holds the catalog of coordinate reference systems offered to
// the user, the parsing of CRS text into EPSG codes, and the debounced
// suggestion list shown while a CRS is typed.
//
// A Catalog is built once at startup from one or more sources (a Key,Value
// CSV dictionary, a directory of EPSG WKT files, a PostGIS spatial_ref_sys
// table or the built-in defaults) and then shared read-only.
package crs

import (
	"fmt"
	"sort"
	"strings"
)

// Entry is one catalog item.
type Entry struct {
	Code       int    `json:"code"`
	Name       string `json:"name"`
	Definition string `json:"definition,omitempty"` // PROJ string, empty when PROJ resolves the code itself
}

// Label is the text shown in suggestion lists, e.g. "WGS 84 (4326)".
func (e Entry) Label() string {
	return fmt.Sprintf("%s (%d)", e.Name, e.Code)
}

// Catalog is an ordered, code-indexed set of entries. It is safe for
// concurrent reads once built.
type Catalog struct {
	entries []Entry
	byCode  map[int]int
	labels  []string
}

// NewCatalog builds a catalog. Later entries with a code already seen
// replace the earlier one in place; the result is sorted by code.
func NewCatalog(entries ...Entry) *Catalog {
	c := &Catalog{byCode: make(map[int]int, len(entries))}
	c.add(entries)
	return c
}

// Merge returns a new catalog holding the entries of c followed by those of
// other. Entries from other win on code clashes.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	merged := NewCatalog(c.entries...)
	merged.add(other.entries)
	return merged
}

func (c *Catalog) add(entries []Entry) {
	for _, e := range entries {
		if i, ok := c.byCode[e.Code]; ok {
			c.entries[i] = e
			continue
		}
		c.byCode[e.Code] = len(c.entries)
		c.entries = append(c.entries, e)
	}

	sort.SliceStable(c.entries, func(i, j int) bool { return c.entries[i].Code < c.entries[j].Code })
	c.labels = make([]string, len(c.entries))
	for i, e := range c.entries {
		c.byCode[e.Code] = i
		c.labels[i] = e.Label()
	}
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns a copy of all entries in code order.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Lookup returns the entry for an EPSG code.
func (c *Catalog) Lookup(code int) (Entry, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Definition returns the PROJ definition stored for code, if any.
func (c *Catalog) Definition(code int) (string, bool) {
	e, ok := c.Lookup(code)
	if !ok || e.Definition == "" {
		return "", false
	}
	return e.Definition, true
}

// Suggest returns the labels containing query, case-insensitively, in code
// order. An empty query matches every label. limit <= 0 means no limit.
func (c *Catalog) Suggest(query string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]string, 0)
	for _, label := range c.labels {
		if q != "" && !strings.Contains(strings.ToLower(label), q) {
			continue
		}
		out = append(out, label)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// ExactMatch reports whether text equals a label, ignoring case and
// surrounding whitespace. Empty text never matches.
func (c *Catalog) ExactMatch(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for _, label := range c.labels {
		if strings.EqualFold(label, text) {
			return true
		}
	}
	return false
}
