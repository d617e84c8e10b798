// Package core provides the window-session logic for coordinate tables.
//
// This package holds the domain operations independent of any UI or
// transport layer. The HTTP API and the terminal client both drive it.
//
// # Architecture
//
//   - Window: one editing session with an input table, a result table and
//     the chosen source and target coordinate systems.
//   - Service: owns the windows, serialises access to each one and runs
//     reprojections through a bounded number of job slots.
//   - MappingPrompter: the synchronous question "which columns hold the name
//     and the coordinates?" asked on every paste or drop.
//
// # Paste Flow
//
//  1. Client calls [Service.Paste] with clipboard text and a prompter
//  2. The text is parsed into a rectangular grid (ragged rows are rejected)
//  3. The prompter is asked for a mapping, outside the window lock
//  4. The grid, a header derived from the mapping and the mapping replace
//     the input table in one step
//
// A cancelled prompt returns [ErrPasteCancelled] and leaves the window as it
// was.
//
// # Reprojection
//
// [Service.Reproject] snapshots the input table, converts every row with the
// window's systems and replaces the result table. Rows that cannot be read
// or transformed become "Error" cells; the batch only fails when a
// coordinate column or a system is missing.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - GRID001-GRID003: Table shape and bounds
//   - MAP001-MAP002: Column mapping
//   - CRS001-CRS002: Coordinate systems
//   - WIN001-WIN003: Window lifecycle and export
//   - REQ001-REQ005: Request handling
//
// # Idle Windows
//
// Windows unused for longer than the configured idle timeout are closed by
// [Service.StartWindowReaper].
package core
