package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/coordgrid/internal/core"
	"github.com/JonMunkholm/coordgrid/internal/crs"
	"github.com/JonMunkholm/coordgrid/internal/reproject"
	"github.com/JonMunkholm/coordgrid/internal/table"
)

type memClipboard struct {
	text string
	err  error
}

func (c *memClipboard) ReadAll() (string, error)   { return c.text, c.err }
func (c *memClipboard) WriteAll(text string) error { c.text = text; return c.err }

// passBackend knows 4326 and 3857 and returns points unchanged.
type passBackend struct{}

func (passBackend) ValidCRS(code int) bool { return code == 4326 || code == 3857 }

func (passBackend) Transform(src, dst int, x, y float64) (float64, float64, error) {
	return x, y, nil
}

// ============================================================================
// Input Tests
// ============================================================================

func TestReadInput_FileStripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.tsv")
	data := append([]byte{0xEF, 0xBB, 0xBF}, "A\t1\t2\r\n"...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	text, err := readInput(path, &memClipboard{text: "ignored"})
	if err != nil {
		t.Fatalf("readInput() error = %v", err)
	}
	grid, err := table.Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if grid[0][0] != "A" {
		t.Errorf("first cell = %q, want %q", grid[0][0], "A")
	}
}

func TestReadInput_MissingFile(t *testing.T) {
	if _, err := readInput(filepath.Join(t.TempDir(), "nope.tsv"), &memClipboard{}); err == nil {
		t.Error("readInput() error = nil for a missing file")
	}
}

func TestReadInput_Clipboard(t *testing.T) {
	text, err := readInput("", &memClipboard{text: "A\t1\t2"})
	if err != nil || text != "A\t1\t2" {
		t.Errorf("readInput() = %q, %v", text, err)
	}

	// An unreadable clipboard is not fatal
	text, err = readInput("", &memClipboard{err: errors.New("no display")})
	if err != nil || text != "" {
		t.Errorf("readInput() with broken clipboard = %q, %v", text, err)
	}
}

// ============================================================================
// Output Tests
// ============================================================================

func newConvertedWindow(t *testing.T, convert bool) (*core.Service, string) {
	t.Helper()
	ctx := context.Background()
	svc := core.NewService(crs.Default(), reproject.NewEngine(passBackend{}), core.Config{})
	id, err := svc.NewWindow(ctx)
	if err != nil {
		t.Fatal(err)
	}
	m := table.ColumnMapping{Name: 0, Longitude: 1, Latitude: 2}
	if err := svc.Paste(ctx, id, "A\t1\t2", core.FixedMapping(m)); err != nil {
		t.Fatal(err)
	}
	if !convert {
		return svc, id
	}
	if err := svc.SetCRS(ctx, id, "4326", "3857"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Reproject(ctx, id); err != nil {
		t.Fatal(err)
	}
	return svc, id
}

func TestWriteOutputs(t *testing.T) {
	svc, id := newConvertedWindow(t, true)
	out := filepath.Join(t.TempDir(), "result.csv")
	clip := &memClipboard{}

	if err := writeOutputs(context.Background(), svc, id, out, true, clip); err != nil {
		t.Fatalf("writeOutputs() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("CSV does not start with a BOM")
	}
	if want := "Name\tLongitude/X\tLatitude/Y\nA\t1\t2"; clip.text != want {
		t.Errorf("clipboard = %q, want %q", clip.text, want)
	}
}

func TestWriteOutputs_NothingConverted(t *testing.T) {
	svc, id := newConvertedWindow(t, false)
	out := filepath.Join(t.TempDir(), "result.csv")
	clip := &memClipboard{text: "untouched"}

	if err := writeOutputs(context.Background(), svc, id, out, true, clip); err != nil {
		t.Fatalf("writeOutputs() error = %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output file exists after an empty export, stat error = %v", err)
	}
	if clip.text != "untouched" {
		t.Errorf("clipboard = %q, want it unchanged", clip.text)
	}
}
