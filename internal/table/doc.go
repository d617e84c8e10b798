// Package table holds the in-memory grid behind a coordinate window.
//
// It has no transport or UI dependencies. Everything a front end needs to
// ingest clipboard text, map columns to roles, edit the grid and serialize it
// back out lives here:
//
//   - Parsing: [Parse] and [ParseReader] turn tab/newline text into a [Grid].
//     Ragged input is rejected with a [MalformedTableError]; nothing is padded.
//   - Mapping: [ColumnMapping] assigns the name, longitude/X and latitude/Y
//     roles to column indices. [MappingOptions] builds the selector entries a
//     prompt offers for each role.
//   - Storage: [Store] keeps grid, header and mapping as one unit and emits a
//     [Change] for every mutation to its subscribers.
//   - Export: [Format], [Serialize] and [WriteCSV] produce clipboard text and
//     UTF-8 CSV (with BOM).
//
// # Clipboard Format
//
// Cells are separated by tabs and rows by newlines. There is no quoting, so a
// cell can never contain a tab or a newline. CRLF line endings are accepted on
// input; output always uses LF.
//
// # Header Swap
//
// [Store.SwapLatLonHeaders] exchanges only the longitude/latitude header
// labels and mapping indices. The cell data stays where it is, so after a swap
// the column that used to be read as longitude is read as latitude.
package table
