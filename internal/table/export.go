package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Format joins cells with tabs and rows with newlines. It is the inverse of
// Parse and adds no trailing newline.
func Format(g Grid) string {
	return formatRows(g, "\t")
}

// Serialize renders the header line followed by every row, cells joined by
// delim. It returns false for an empty store so callers can skip the
// clipboard write entirely.
func Serialize(s *Store, delim rune) (string, bool) {
	if s.IsEmpty() {
		return "", false
	}
	sep := string(delim)
	var b strings.Builder
	b.WriteString(strings.Join(s.header, sep))
	b.WriteByte('\n')
	b.WriteString(formatRows(s.rows, sep))
	return b.String(), true
}

// SerializeTSV is Serialize with the clipboard delimiter.
func SerializeTSV(s *Store) (string, bool) {
	return Serialize(s, '\t')
}

// WriteCSV writes a UTF-8 BOM, the header and every row as comma-separated
// values. An empty store writes nothing.
func WriteCSV(w io.Writer, s *Store) error {
	if s.IsEmpty() {
		return nil
	}
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(s.header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(s.rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// SerializeCSV returns WriteCSV's output as bytes.
func SerializeCSV(s *Store) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatRows(g Grid, sep string) string {
	lines := make([]string, len(g))
	for i, row := range g {
		lines[i] = strings.Join(row, sep)
	}
	return strings.Join(lines, "\n")
}
