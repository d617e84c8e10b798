package table

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// generatePaste builds clipboard text with a name column and two
// comma-decimal coordinate columns.
func generatePaste(rows int) string {
	var b strings.Builder
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "Point %d\t%d,%04d\t%d,%04d\n", i, 10+i%80, i%10000, 40+i%40, (i*7)%10000)
	}
	return b.String()
}

// ============================================================================
// Parse Benchmarks
// ============================================================================

// BenchmarkParse measures parsing at typical paste sizes.
func BenchmarkParse(b *testing.B) {
	sizes := []int{10, 1000, 100000}

	for _, size := range sizes {
		text := generatePaste(size)
		b.Run(fmt.Sprintf("rows_%d", size), func(b *testing.B) {
			b.SetBytes(int64(len(text)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := Parse(text); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkParse_CRLF measures the line-ending normalisation path.
func BenchmarkParse_CRLF(b *testing.B) {
	text := strings.ReplaceAll(generatePaste(1000), "\n", "\r\n")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(text); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Store Benchmarks
// ============================================================================

func BenchmarkStore_PasteAt(b *testing.B) {
	grid, _ := Parse(generatePaste(100))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := NewStore()
		if err := s.Replace(grid, nil, UnsetMapping()); err != nil {
			b.Fatal(err)
		}
		if err := s.PasteAt(grid, 50, 2); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Export Benchmarks
// ============================================================================

func BenchmarkSerializeTSV(b *testing.B) {
	grid, _ := Parse(generatePaste(10000))
	s := NewStore()
	if err := s.Replace(grid, nil, UnsetMapping()); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SerializeTSV(s)
	}
}

func BenchmarkWriteCSV(b *testing.B) {
	grid, _ := Parse(generatePaste(10000))
	s := NewStore()
	if err := s.Replace(grid, nil, UnsetMapping()); err != nil {
		b.Fatal(err)
	}
	var buf bytes.Buffer

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := WriteCSV(&buf, s); err != nil {
			b.Fatal(err)
		}
	}
}
