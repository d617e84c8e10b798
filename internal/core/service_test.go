package core

import (
	"bytes"
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/coordgrid/internal/crs"
	"github.com/JonMunkholm/coordgrid/internal/reproject"
	"github.com/JonMunkholm/coordgrid/internal/table"
)

// shiftBackend knows 4326 and 3857 and moves every point by (+1, +2)
// between different systems.
type shiftBackend struct{}

func (shiftBackend) ValidCRS(code int) bool { return code == 4326 || code == 3857 }

func (shiftBackend) Transform(src, dst int, x, y float64) (float64, float64, error) {
	if src == dst {
		return x, y, nil
	}
	return x + 1, y + 2, nil
}

func newTestService(t *testing.T, cfg Config) (*Service, string) {
	t.Helper()
	s := NewService(crs.Default(), reproject.NewEngine(shiftBackend{}), cfg)
	id, err := s.NewWindow(context.Background())
	if err != nil {
		t.Fatalf("NewWindow() error = %v", err)
	}
	return s, id
}

var coordMapping = table.ColumnMapping{Name: 0, Longitude: 1, Latitude: 2}

const sampleText = "P1\t37,5\t55,25\nP2\t30,75\t59,5\n"

// ============================================================================
// Window Tests
// ============================================================================

func TestService_WindowLifecycle(t *testing.T) {
	s, id := newTestService(t, Config{})
	ctx := context.Background()

	if s.WindowCount() != 1 {
		t.Fatalf("WindowCount() = %d, want 1", s.WindowCount())
	}
	if err := s.CloseWindow(ctx, id); err != nil {
		t.Fatalf("CloseWindow() error = %v", err)
	}
	if _, err := s.State(id); !errors.Is(err, ErrWindowNotFound) {
		t.Errorf("State() after close error = %v, want ErrWindowNotFound", err)
	}
	if err := s.CloseWindow(ctx, id); !errors.Is(err, ErrWindowNotFound) {
		t.Errorf("second CloseWindow() error = %v, want ErrWindowNotFound", err)
	}
}

func TestService_MaxWindows(t *testing.T) {
	s, _ := newTestService(t, Config{MaxWindows: 1})
	if _, err := s.NewWindow(context.Background()); !errors.Is(err, ErrTooManyWindows) {
		t.Errorf("NewWindow() over limit error = %v, want ErrTooManyWindows", err)
	}
}

func TestService_ReapIdleWindows(t *testing.T) {
	s, id := newTestService(t, Config{})
	now := time.Now()
	s.now = func() time.Time { return now }

	fresh, err := s.NewWindow(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// Age the first window only
	w, _ := s.window(id)
	w.mu.Lock()
	w.lastUsed = now.Add(-time.Hour)
	w.mu.Unlock()

	if n := s.ReapIdleWindows(30 * time.Minute); n != 1 {
		t.Errorf("ReapIdleWindows() = %d, want 1", n)
	}
	if _, err := s.State(id); !errors.Is(err, ErrWindowNotFound) {
		t.Errorf("idle window still open: %v", err)
	}
	if _, err := s.State(fresh); err != nil {
		t.Errorf("fresh window reaped: %v", err)
	}
}

// ============================================================================
// Paste Tests
// ============================================================================

func TestService_Paste(t *testing.T) {
	s, id := newTestService(t, Config{})

	var gotRow []string
	var gotOptions []table.MappingOption
	prompter := PrompterFunc(func(_ context.Context, firstRow []string, opts []table.MappingOption) (table.ColumnMapping, error) {
		gotRow, gotOptions = firstRow, opts
		return coordMapping, nil
	})

	if err := s.Paste(context.Background(), id, sampleText, prompter); err != nil {
		t.Fatalf("Paste() error = %v", err)
	}
	if !reflect.DeepEqual(gotRow, []string{"P1", "37,5", "55,25"}) {
		t.Errorf("prompt first row = %q", gotRow)
	}
	if len(gotOptions) != 4 || gotOptions[0].Label != "Not used" {
		t.Errorf("prompt options = %+v", gotOptions)
	}

	st, err := s.State(id)
	if err != nil {
		t.Fatal(err)
	}
	if st.Input.Rows() != 2 {
		t.Errorf("input rows = %d, want 2", st.Input.Rows())
	}
	wantHeader := table.Header{"Name", "Longitude/X", "Latitude/Y"}
	if !reflect.DeepEqual(st.Input.Header, wantHeader) {
		t.Errorf("header = %q, want %q", st.Input.Header, wantHeader)
	}
	if st.Input.Mapping != coordMapping {
		t.Errorf("mapping = %+v", st.Input.Mapping)
	}
}

func TestService_Paste_NoSideEffects(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		prompter MappingPrompter
		wantErr  error
	}{
		{"cancelled prompt", "a\tb\n", Cancelled(), ErrPasteCancelled},
		{"ragged text", "a\tb\nc\n", FixedMapping(table.UnsetMapping()), table.ErrMalformedTable},
		{"mapping out of range", "a\tb\n", FixedMapping(table.ColumnMapping{Name: table.Unset, Longitude: 0, Latitude: 5}), table.ErrInvalidMapping},
		{"same coordinate column", "a\tb\n", FixedMapping(table.ColumnMapping{Name: table.Unset, Longitude: 1, Latitude: 1}), table.ErrInvalidMapping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, id := newTestService(t, Config{})
			ctx := context.Background()
			if err := s.Paste(ctx, id, sampleText, FixedMapping(coordMapping)); err != nil {
				t.Fatal(err)
			}
			before, _ := s.State(id)

			err := s.Paste(ctx, id, tt.text, tt.prompter)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Paste() error = %v, want %v", err, tt.wantErr)
			}
			after, _ := s.State(id)
			if !reflect.DeepEqual(after.Input, before.Input) {
				t.Error("input table changed after failed paste")
			}
		})
	}
}

func TestService_Paste_EmptyTextDoesNotPrompt(t *testing.T) {
	s, id := newTestService(t, Config{})
	prompted := false
	prompter := PrompterFunc(func(context.Context, []string, []table.MappingOption) (table.ColumnMapping, error) {
		prompted = true
		return coordMapping, nil
	})

	if err := s.Drop(context.Background(), id, "\n  \n", prompter); err != nil {
		t.Fatalf("Drop() error = %v", err)
	}
	if prompted {
		t.Error("prompter called for empty text")
	}
}

func TestService_Paste_UnknownWindow(t *testing.T) {
	s, _ := newTestService(t, Config{})
	err := s.Paste(context.Background(), "nope", sampleText, FixedMapping(coordMapping))
	if !errors.Is(err, ErrWindowNotFound) {
		t.Errorf("Paste() error = %v, want ErrWindowNotFound", err)
	}
}

func TestService_Drop_StripsBOM(t *testing.T) {
	s, id := newTestService(t, Config{})

	var gotRow []string
	var gotOptions []table.MappingOption
	prompter := PrompterFunc(func(_ context.Context, firstRow []string, opts []table.MappingOption) (table.ColumnMapping, error) {
		gotRow, gotOptions = firstRow, opts
		return coordMapping, nil
	})

	if err := s.Drop(context.Background(), id, "\uFEFFP1\t37,5\t55,25\r\n", prompter); err != nil {
		t.Fatalf("Drop() error = %v", err)
	}
	if gotRow[0] != "P1" {
		t.Errorf("prompt first cell = %q, want %q", gotRow[0], "P1")
	}
	if gotOptions[1].Label != "Column 1 (P1)" {
		t.Errorf("first column option = %q, want %q", gotOptions[1].Label, "Column 1 (P1)")
	}

	st, _ := s.State(id)
	if got := st.Input.Cells[0][0]; got != "P1" {
		t.Errorf("name cell = %q, want %q", got, "P1")
	}
}

func TestService_PasteAt(t *testing.T) {
	s, id := newTestService(t, Config{})
	ctx := context.Background()

	// Empty table: filled with blanks up to the offset
	if err := s.PasteAt(ctx, id, "x\ty", 1, 1); err != nil {
		t.Fatalf("PasteAt() error = %v", err)
	}
	st, _ := s.State(id)
	want := table.Grid{{"", "", ""}, {"", "x", "y"}}
	if !reflect.DeepEqual(st.Input.Cells, want) {
		t.Errorf("cells = %q, want %q", st.Input.Cells, want)
	}
	if !reflect.DeepEqual(st.Input.Header, table.Header{"Column 1", "Column 2", "Column 3"}) {
		t.Errorf("header = %q", st.Input.Header)
	}

	if err := s.PasteAt(ctx, id, "z", -1, 0); !errors.Is(err, table.ErrIndexOutOfRange) {
		t.Errorf("PasteAt() negative offset error = %v", err)
	}
}

func TestService_PasteAt_OffsetPastLimits(t *testing.T) {
	tests := []struct {
		name     string
		row, col int
	}{
		{"huge row on empty table", 1_000_000_000, 0},
		{"max int row", math.MaxInt, 0},
		{"max int col", 0, math.MaxInt},
		{"just past row limit", 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, id := newTestService(t, Config{MaxRows: 10, MaxCols: 5})
			ctx := context.Background()

			// Empty table: nothing may be allocated for the offset
			if err := s.PasteAt(ctx, id, "z", tt.row, tt.col); !errors.Is(err, table.ErrIndexOutOfRange) {
				t.Fatalf("PasteAt() error = %v, want ErrIndexOutOfRange", err)
			}
			st, _ := s.State(id)
			if len(st.Input.Cells) != 0 {
				t.Errorf("input has %d rows after rejected paste, want 0", len(st.Input.Cells))
			}

			// Filled table: left as it was
			if err := s.PasteAt(ctx, id, "a\tb", 0, 0); err != nil {
				t.Fatal(err)
			}
			if err := s.PasteAt(ctx, id, "z", tt.row, tt.col); !errors.Is(err, table.ErrIndexOutOfRange) {
				t.Fatalf("PasteAt() on filled table error = %v, want ErrIndexOutOfRange", err)
			}
			st, _ = s.State(id)
			if want := (table.Grid{{"a", "b"}}); !reflect.DeepEqual(st.Input.Cells, want) {
				t.Errorf("cells = %q, want %q", st.Input.Cells, want)
			}
		})
	}
}

// ============================================================================
// Edit Tests
// ============================================================================

func TestService_AddPoint(t *testing.T) {
	s, id := newTestService(t, Config{})
	ctx := context.Background()

	rows, err := s.AddPoint(ctx, id)
	if err != nil {
		t.Fatalf("AddPoint() error = %v", err)
	}
	if rows != 1 {
		t.Errorf("rows = %d, want 1", rows)
	}
	st, _ := s.State(id)
	if !reflect.DeepEqual(st.Input.Header, table.Header{"Name", "Longitude/X", "Latitude/Y"}) {
		t.Errorf("header = %q", st.Input.Header)
	}
	if st.Input.Mapping != coordMapping {
		t.Errorf("mapping = %+v", st.Input.Mapping)
	}

	if rows, _ = s.AddPoint(ctx, id); rows != 2 {
		t.Errorf("second AddPoint rows = %d, want 2", rows)
	}
}

func TestService_EditAndRemove(t *testing.T) {
	s, id := newTestService(t, Config{})
	ctx := context.Background()
	if err := s.Paste(ctx, id, sampleText+"P3\t1\t2\n", FixedMapping(coordMapping)); err != nil {
		t.Fatal(err)
	}

	if err := s.SetCell(ctx, id, TableInput, 0, 0, "Start"); err != nil {
		t.Fatalf("SetCell() error = %v", err)
	}
	if err := s.SetCell(ctx, id, TableInput, 9, 0, "x"); !errors.Is(err, table.ErrIndexOutOfRange) {
		t.Errorf("SetCell() out of range error = %v", err)
	}
	if err := s.RemoveRows(ctx, id, []int{1}); err != nil {
		t.Fatalf("RemoveRows() error = %v", err)
	}

	st, _ := s.State(id)
	if st.Input.Rows() != 2 {
		t.Fatalf("rows = %d, want 2", st.Input.Rows())
	}
	if got, _ := st.Input.Cell(0, 0); got != "Start" {
		t.Errorf("Cell(0, 0) = %q", got)
	}
	if got, _ := st.Input.Cell(1, 0); got != "P3" {
		t.Errorf("Cell(1, 0) = %q, want P3", got)
	}
}

func TestService_SwapLatLon(t *testing.T) {
	s, id := newTestService(t, Config{})
	ctx := context.Background()

	if err := s.Paste(ctx, id, "a\t1", FixedMapping(table.ColumnMapping{Name: 0, Longitude: 1, Latitude: table.Unset})); err != nil {
		t.Fatal(err)
	}
	if err := s.SwapLatLon(ctx, id); !errors.Is(err, table.ErrMappingIncomplete) {
		t.Errorf("SwapLatLon() with latitude unset error = %v", err)
	}

	if err := s.Paste(ctx, id, sampleText, FixedMapping(coordMapping)); err != nil {
		t.Fatal(err)
	}
	if err := s.SwapLatLon(ctx, id); err != nil {
		t.Fatalf("SwapLatLon() error = %v", err)
	}
	st, _ := s.State(id)
	if st.Input.Mapping.Longitude != 2 || st.Input.Mapping.Latitude != 1 {
		t.Errorf("mapping after swap = %+v", st.Input.Mapping)
	}
	if got, _ := st.Input.Cell(0, 1); got != "37,5" {
		t.Errorf("swap changed cell data: %q", got)
	}
}

// ============================================================================
// Reprojection Tests
// ============================================================================

func TestService_SetCRS(t *testing.T) {
	s, id := newTestService(t, Config{})
	ctx := context.Background()

	if err := s.SetCRS(ctx, id, "WGS 84 (4326)", "EPSG:3857"); err != nil {
		t.Fatalf("SetCRS() error = %v", err)
	}
	st, _ := s.State(id)
	if st.Source.Code != 4326 || st.Target.Code != 3857 {
		t.Errorf("crs = %+v -> %+v", st.Source, st.Target)
	}

	err := s.SetCRS(ctx, id, "4326", "32642")
	if !errors.Is(err, crs.ErrInvalidCRS) {
		t.Fatalf("SetCRS() unknown code error = %v, want ErrInvalidCRS", err)
	}
	st, _ = s.State(id)
	if st.Target.Code != 3857 {
		t.Error("target changed after failed SetCRS")
	}
}

func TestService_Reproject(t *testing.T) {
	s, id := newTestService(t, Config{})
	ctx := context.Background()

	if _, err := s.Reproject(ctx, id); !errors.Is(err, ErrCRSNotSet) {
		t.Errorf("Reproject() without crs error = %v, want ErrCRSNotSet", err)
	}
	if err := s.SetCRS(ctx, id, "4326", "3857"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Reproject(ctx, id); !errors.Is(err, table.ErrMappingIncomplete) {
		t.Errorf("Reproject() on empty input error = %v, want ErrMappingIncomplete", err)
	}

	if err := s.Paste(ctx, id, sampleText+"bad\tx\t1\n", FixedMapping(coordMapping)); err != nil {
		t.Fatal(err)
	}
	summary, err := s.Reproject(ctx, id)
	if err != nil {
		t.Fatalf("Reproject() error = %v", err)
	}
	if summary.Rows != 3 || summary.Failed != 1 || len(summary.Errors) != 1 || summary.Errors[0].Row != 2 {
		t.Errorf("summary = %+v", summary)
	}

	st, _ := s.State(id)
	want := table.Grid{
		{"P1", "38.5", "57.25"},
		{"P2", "31.75", "61.5"},
		{"bad", "Error", "Error"},
	}
	if !reflect.DeepEqual(st.Result.Cells, want) {
		t.Errorf("result = %q, want %q", st.Result.Cells, want)
	}
	if !reflect.DeepEqual(st.Result.Header, table.Header{"Name", "Longitude/X", "Latitude/Y"}) {
		t.Errorf("result header = %q", st.Result.Header)
	}
}

// ============================================================================
// Copy and Export Tests
// ============================================================================

func TestService_CopyAndExport(t *testing.T) {
	s, id := newTestService(t, Config{})
	ctx := context.Background()

	if _, ok, err := s.Copy(id, TableInput); err != nil || ok {
		t.Errorf("Copy() on empty table = ok %v, err %v", ok, err)
	}
	if err := s.ExportCSV(ctx, id, &bytes.Buffer{}); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("ExportCSV() on empty result error = %v", err)
	}

	if err := s.Paste(ctx, id, "A\t10,5\t20,1", FixedMapping(coordMapping)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetCRS(ctx, id, "4326", "4326"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Reproject(ctx, id); err != nil {
		t.Fatal(err)
	}

	text, ok, err := s.Copy(id, TableResult)
	if err != nil || !ok {
		t.Fatalf("Copy() = ok %v, err %v", ok, err)
	}
	if want := "Name\tLongitude/X\tLatitude/Y\nA\t10.5\t20.1"; text != want {
		t.Errorf("Copy() = %q, want %q", text, want)
	}

	sel, err := s.CopyRange(id, TableInput, 0, 2, 0, 1)
	if err != nil {
		t.Fatalf("CopyRange() error = %v", err)
	}
	if sel != "10,5\t20,1" {
		t.Errorf("CopyRange() = %q", sel)
	}

	var buf bytes.Buffer
	if err := s.ExportCSV(ctx, id, &buf); err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "\xEF\xBB\xBFName,Longitude/X,Latitude/Y\n") {
		t.Errorf("ExportCSV() = %q", buf.String())
	}
}

func TestService_MappingOptions(t *testing.T) {
	s, _ := newTestService(t, Config{})
	opts, err := s.MappingOptions("P1\t37,6\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != 3 || opts[2].Label != "Column 2 (37,6)" {
		t.Errorf("MappingOptions() = %+v", opts)
	}
	if _, err := s.MappingOptions("a\tb\nc"); !errors.Is(err, table.ErrMalformedTable) {
		t.Errorf("MappingOptions() ragged error = %v", err)
	}
}

func TestService_Suggest(t *testing.T) {
	s, _ := newTestService(t, Config{SuggestLimit: 1})
	got := s.Suggest("wgs")
	if len(got.Items) != 1 {
		t.Errorf("Suggest() items = %q, want 1 item", got.Items)
	}
}

func TestService_Subscribe(t *testing.T) {
	s, id := newTestService(t, Config{})
	ch, cancel, err := s.Subscribe(id, TableInput)
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	if _, err := s.AddPoint(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-ch:
		if c.Kind != table.ChangeReset {
			t.Errorf("change kind = %q, want reset", c.Kind)
		}
	default:
		t.Fatal("no change delivered")
	}

	if err := s.CloseWindow(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-ch; ok {
		t.Error("channel still open after window closed")
	}
}

func TestClientFields(t *testing.T) {
	if got := clientFields(context.Background()); got != nil {
		t.Errorf("clientFields(empty) = %v, want nil", got)
	}

	ctx := WithClient(context.Background(), Client{IP: "10.0.0.7"})
	got := clientFields(ctx)
	if len(got) != 2 || got[0] != "client_ip" || got[1] != "10.0.0.7" {
		t.Errorf("clientFields() = %v", got)
	}

	if c, ok := ClientFrom(WithClient(ctx, Client{UserAgent: "curl"})); !ok || c.UserAgent != "curl" || c.IP != "" {
		t.Errorf("ClientFrom() = %+v, %v", c, ok)
	}
}
