package table

import (
	"fmt"
	"sort"
)

// Store holds a grid, its header and its column mapping as one unit.
//
// A Store is not safe for concurrent mutation; callers serialise access
// (one interaction thread per window). Subscriptions are safe to use from any
// goroutine.
type Store struct {
	rows    Grid
	header  Header
	mapping ColumnMapping
	limits  Limits
	hub     hub
}

// NewStore returns an empty store with an unset mapping and DefaultLimits.
func NewStore() *Store {
	return NewStoreWithLimits(DefaultLimits())
}

// NewStoreWithLimits returns an empty store that PasteAt will not grow past
// limits. Zero fields select the defaults.
func NewStoreWithLimits(limits Limits) *Store {
	return &Store{mapping: UnsetMapping(), limits: limits.withDefaults()}
}

// Limits returns the size limits PasteAt enforces.
func (s *Store) Limits() Limits { return s.limits }

// Rows returns the number of data rows.
func (s *Store) Rows() int { return len(s.rows) }

// Columns returns the number of columns.
func (s *Store) Columns() int { return len(s.header) }

// IsEmpty reports whether the store holds no rows.
func (s *Store) IsEmpty() bool { return len(s.rows) == 0 }

// Header returns a copy of the column labels.
func (s *Store) Header() Header { return append(Header{}, s.header...) }

// Mapping returns the current column mapping.
func (s *Store) Mapping() ColumnMapping { return s.mapping }

// Cell returns the value at row, col.
func (s *Store) Cell(row, col int) (string, error) {
	if err := s.checkCell(row, col); err != nil {
		return "", err
	}
	return s.rows[row][col], nil
}

// Snapshot returns a deep copy that stays valid after further mutations.
func (s *Store) Snapshot() Snapshot {
	cells := s.rows.Clone()
	if cells == nil {
		cells = Grid{}
	}
	return Snapshot{
		Cells:   cells,
		Header:  s.Header(),
		Mapping: s.mapping,
	}
}

// Subscribe registers a listener for changes. The returned function
// unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan Change, func()) {
	return s.hub.subscribe()
}

// Close closes every subscriber channel. The store stays usable.
func (s *Store) Close() {
	s.hub.closeAll()
}

// Replace swaps grid, header and mapping in one step. A nil header gets
// positional labels. Nothing changes if any part is invalid.
func (s *Store) Replace(grid Grid, header Header, mapping ColumnMapping) error {
	if err := grid.Validate(); err != nil {
		return err
	}
	cols := grid.Columns()
	if header == nil {
		header = DefaultHeader(cols)
	}
	if len(grid) > 0 && len(header) != cols {
		return fmt.Errorf("%w: header has %d labels for %d columns", ErrMalformedTable, len(header), cols)
	}
	if len(grid) == 0 {
		// An empty grid has no columns for a header or mapping to refer to.
		header = Header{}
		mapping = UnsetMapping()
	}
	if err := mapping.Validate(cols); err != nil {
		return err
	}

	s.rows = grid.Clone()
	s.header = append(Header{}, header...)
	s.mapping = mapping
	s.hub.notify(Change{Kind: ChangeReset, Row: Unset, Col: Unset})
	return nil
}

// Clear empties the store.
func (s *Store) Clear() {
	_ = s.Replace(Grid{}, nil, UnsetMapping())
}

// SetCell overwrites one cell.
func (s *Store) SetCell(row, col int, value string) error {
	if err := s.checkCell(row, col); err != nil {
		return err
	}
	s.rows[row][col] = value
	s.hub.notify(Change{Kind: ChangeCell, Row: row, Col: col})
	return nil
}

// InsertRowAtEnd appends a row of empty cells. An empty store has no column
// count to follow, so it returns ErrEmptyStore; initialise with Replace.
func (s *Store) InsertRowAtEnd() error {
	if s.IsEmpty() {
		return ErrEmptyStore
	}
	s.rows = append(s.rows, make([]string, s.Columns()))
	s.hub.notify(Change{Kind: ChangeRowsInserted, Row: len(s.rows) - 1, Col: Unset})
	return nil
}

// RemoveRow removes one row and shifts the following rows up.
func (s *Store) RemoveRow(row int) error {
	return s.RemoveRows([]int{row})
}

// RemoveRows removes several rows given by their current indices. All
// indices are checked before anything is removed; duplicates are ignored.
// Rows are removed from the highest index down so earlier removals never
// shift a pending one.
func (s *Store) RemoveRows(rows []int) error {
	seen := make(map[int]bool, len(rows))
	ordered := make([]int, 0, len(rows))
	for _, r := range rows {
		if r < 0 || r >= len(s.rows) {
			return &IndexOutOfRangeError{Row: r, Col: Unset, Rows: len(s.rows), Cols: s.Columns()}
		}
		if !seen[r] {
			seen[r] = true
			ordered = append(ordered, r)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ordered)))

	for _, r := range ordered {
		s.rows = append(s.rows[:r], s.rows[r+1:]...)
		s.hub.notify(Change{Kind: ChangeRowsRemoved, Row: r, Col: Unset})
	}
	return nil
}

// SwapLatLonHeaders exchanges the longitude and latitude header labels and
// mapping indices. Cell data is not touched. It returns false, changing
// nothing, unless both roles are mapped.
func (s *Store) SwapLatLonHeaders() bool {
	lon, lat := s.mapping.Longitude, s.mapping.Latitude
	if lon == Unset || lat == Unset {
		return false
	}
	s.header[lon], s.header[lat] = s.header[lat], s.header[lon]
	s.mapping.Longitude, s.mapping.Latitude = lat, lon
	s.hub.notify(Change{Kind: ChangeHeader, Row: Unset, Col: Unset})
	return true
}

// PasteAt writes grid with its top-left cell at (row, col), growing the
// store with empty cells as needed, up to its Limits. New columns get
// positional labels. Cells outside the pasted block keep their values.
func (s *Store) PasteAt(grid Grid, row, col int) error {
	if err := grid.Validate(); err != nil {
		return err
	}
	if len(grid) == 0 {
		return nil
	}
	if s.IsEmpty() {
		return ErrEmptyStore
	}
	if row < 0 || col < 0 {
		return &IndexOutOfRangeError{Row: row, Col: col, Rows: s.Rows(), Cols: s.Columns()}
	}
	if err := s.limits.CheckPaste(grid, row, col); err != nil {
		return err
	}

	needRows := row + len(grid)
	needCols := col + grid.Columns()

	if needCols > s.Columns() {
		for c := s.Columns(); c < needCols; c++ {
			s.header = append(s.header, DefaultLabel(c))
		}
		for i := range s.rows {
			s.rows[i] = append(s.rows[i], make([]string, needCols-len(s.rows[i]))...)
		}
	}
	for len(s.rows) < needRows {
		s.rows = append(s.rows, make([]string, s.Columns()))
	}

	for r, cells := range grid {
		copy(s.rows[row+r][col:], cells)
	}
	s.hub.notify(Change{Kind: ChangeReset, Row: Unset, Col: Unset})
	return nil
}

// Range copies the rectangular block between two corners, inclusive. The
// corners may be given in any order.
func (s *Store) Range(r0, c0, r1, c1 int) (Grid, error) {
	if r0 > r1 {
		r0, r1 = r1, r0
	}
	if c0 > c1 {
		c0, c1 = c1, c0
	}
	if err := s.checkCell(r0, c0); err != nil {
		return nil, err
	}
	if err := s.checkCell(r1, c1); err != nil {
		return nil, err
	}

	out := make(Grid, 0, r1-r0+1)
	for r := r0; r <= r1; r++ {
		out = append(out, append([]string(nil), s.rows[r][c0:c1+1]...))
	}
	return out, nil
}

func (s *Store) checkCell(row, col int) error {
	if row < 0 || row >= s.Rows() || col < 0 || col >= s.Columns() {
		return &IndexOutOfRangeError{Row: row, Col: col, Rows: s.Rows(), Cols: s.Columns()}
	}
	return nil
}

// Snapshot is a detached copy of a store.
type Snapshot struct {
	Cells   Grid          `json:"rows"`
	Header  Header        `json:"header"`
	Mapping ColumnMapping `json:"mapping"`
}

// Rows returns the number of data rows.
func (s Snapshot) Rows() int { return len(s.Cells) }

// Cell returns the value at row, col.
func (s Snapshot) Cell(row, col int) (string, error) {
	if row < 0 || row >= len(s.Cells) || col < 0 || col >= len(s.Cells[row]) {
		return "", &IndexOutOfRangeError{Row: row, Col: col, Rows: len(s.Cells), Cols: s.Cells.Columns()}
	}
	return s.Cells[row][col], nil
}
