package table

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// ============================================================================
// Parse Tests
// ============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Grid
	}{
		{
			name:  "single row",
			input: "A\t10,5\t20,1",
			want:  Grid{{"A", "10,5", "20,1"}},
		},
		{
			name:  "trailing newline dropped",
			input: "a\tb\nc\td\n",
			want:  Grid{{"a", "b"}, {"c", "d"}},
		},
		{
			name:  "crlf line endings",
			input: "a\tb\r\nc\td\r\n",
			want:  Grid{{"a", "b"}, {"c", "d"}},
		},
		{
			name:  "whitespace-only trailing rows dropped",
			input: "a\tb\n\t\n  \n\n",
			want:  Grid{{"a", "b"}},
		},
		{
			name:  "interior blank row kept as empty cells",
			input: "a\tb\n\t\nc\td",
			want:  Grid{{"a", "b"}, {"", ""}, {"c", "d"}},
		},
		{
			name:  "empty cells preserved",
			input: "\tx\t\n",
			want:  Grid{{"", "x", ""}},
		},
		{
			name:  "single column",
			input: "one\ntwo\nthree",
			want:  Grid{{"one"}, {"two"}, {"three"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	for _, input := range []string{"", "\n", "  \n\t\n", "\r\n\r\n"} {
		got, err := Parse(input)
		if err != nil {
			t.Errorf("Parse(%q) error = %v", input, err)
		}
		if len(got) != 0 {
			t.Errorf("Parse(%q) = %q, want empty grid", input, got)
		}
	}
}

func TestParse_RaggedRejected(t *testing.T) {
	_, err := Parse("a\tb\tc\nd\te\nf\tg\th")
	if err == nil {
		t.Fatal("Parse() expected error for ragged rows")
	}
	if !errors.Is(err, ErrMalformedTable) {
		t.Errorf("error %v does not wrap ErrMalformedTable", err)
	}

	var mErr *MalformedTableError
	if !errors.As(err, &mErr) {
		t.Fatalf("error %T is not *MalformedTableError", err)
	}
	if mErr.Line != 2 || mErr.Got != 2 || mErr.Want != 3 {
		t.Errorf("MalformedTableError = %+v, want line 2, got 2, want 3", *mErr)
	}
}

func TestParseFormat_RoundTrip(t *testing.T) {
	inputs := []string{
		"A\t10,5\t20,1",
		"name\tlon\tlat\nP1\t37.6\t55.7\nP2\t30.3\t59.9",
		"\t\t\nx\ty\tz",
		"single",
		"a b\tc d",
	}

	for _, input := range inputs {
		grid, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", input, err)
		}
		if got := Format(grid); got != input {
			t.Errorf("Format(Parse(%q)) = %q", input, got)
		}
		// Trailing blank lines are the only thing not preserved
		grid, err = Parse(input + "\n\n")
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", input+"\n\n", err)
		}
		if got := Format(grid); got != input {
			t.Errorf("Format(Parse(%q)) = %q, want %q", input+"\n\n", got, input)
		}
	}
}

func TestParseReader(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  Grid
	}{
		{
			name:  "with BOM",
			input: append([]byte{0xEF, 0xBB, 0xBF}, []byte("a\tb\n")...),
			want:  Grid{{"a", "b"}},
		},
		{
			name:  "without BOM",
			input: []byte("a\tb"),
			want:  Grid{{"a", "b"}},
		},
		{
			name:  "invalid byte replaced",
			input: []byte("a\x80\tb"),
			want:  Grid{{"a\uFFFD", "b"}},
		},
		{
			name:  "shorter than a BOM",
			input: []byte("ab"),
			want:  Grid{{"ab"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReader(strings.NewReader(string(tt.input)))
			if err != nil {
				t.Fatalf("ParseReader() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseReader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadText(t *testing.T) {
	got, err := ReadText(strings.NewReader("\uFEFFName\tX\r\n"))
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	// Only the BOM goes; line endings are left for Parse
	if got != "Name\tX\r\n" {
		t.Errorf("ReadText() = %q", got)
	}
}
