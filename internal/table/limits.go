package table

// Default table size limits, used when a Limits field is zero.
const (
	DefaultMaxRows = 100_000
	DefaultMaxCols = 256
)

// Limits caps how far a store may grow when text is pasted at an offset.
type Limits struct {
	Rows int
	Cols int
}

// DefaultLimits returns the limits a store gets from NewStore.
func DefaultLimits() Limits {
	return Limits{Rows: DefaultMaxRows, Cols: DefaultMaxCols}
}

func (l Limits) withDefaults() Limits {
	if l.Rows <= 0 {
		l.Rows = DefaultMaxRows
	}
	if l.Cols <= 0 {
		l.Cols = DefaultMaxCols
	}
	return l
}

// CheckPaste reports whether grid written at (row, col) stays inside the
// limits. The comparison is done by subtraction so huge offsets cannot wrap.
func (l Limits) CheckPaste(grid Grid, row, col int) error {
	l = l.withDefaults()
	if row < 0 || col < 0 || row > l.Rows-len(grid) || col > l.Cols-grid.Columns() {
		return &IndexOutOfRangeError{Row: row, Col: col, Rows: l.Rows, Cols: l.Cols, Limit: true}
	}
	return nil
}
