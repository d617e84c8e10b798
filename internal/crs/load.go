package crs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/coordgrid/internal/table"
)

// LoadCSV reads a two-column dictionary with a header row, code first and
// name second:
//
//	Key,Value
//	4326,WGS 84
//
// Rows with fewer than two cells are skipped.
func LoadCSV(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(table.NewBOMSkippingReader(r))
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return NewCatalog(), nil
		}
		return nil, fmt.Errorf("read catalog header: %w", err)
	}

	var entries []Entry
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read catalog line %d: %w", line, err)
		}
		if len(record) < 2 {
			continue
		}

		code, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil || code <= 0 {
			return nil, fmt.Errorf("catalog line %d: %q is not an EPSG code", line, record[0])
		}
		entries = append(entries, Entry{Code: code, Name: strings.TrimSpace(record[1])})
	}
	return NewCatalog(entries...), nil
}

var (
	wktFileName = regexp.MustCompile(`^EPSG-CRS-(\d+)\.wkt$`)
	firstQuoted = regexp.MustCompile(`"([^"]*)"`)
)

// LoadWKTDir builds a catalog from an EPSG WKT export: one file per CRS named
// EPSG-CRS-<code>.wkt, whose first quoted string is the CRS name. Other
// files are ignored.
func LoadWKTDir(fsys fs.FS) (*Catalog, error) {
	matches, err := fs.Glob(fsys, "EPSG-CRS-*.wkt")
	if err != nil {
		return nil, fmt.Errorf("list wkt files: %w", err)
	}

	var entries []Entry
	for _, name := range matches {
		m := wktFileName.FindStringSubmatch(path.Base(name))
		if m == nil {
			continue
		}
		code, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		entries = append(entries, Entry{Code: code, Name: NameFromWKT(string(data), code)})
	}
	return NewCatalog(entries...), nil
}

// NameFromWKT returns the first quoted string of a WKT definition, which is
// the CRS name for both WKT1 and WKT2. It falls back to "EPSG:<code>".
func NameFromWKT(wkt string, code int) string {
	if m := firstQuoted.FindStringSubmatch(wkt); m != nil && strings.TrimSpace(m[1]) != "" {
		return m[1]
	}
	return "EPSG:" + strconv.Itoa(code)
}

const pulkovoToWGS84 = "+towgs84=23.92,-141.27,-80.9,0,0.35,0.82,-0.12"

// Default returns the built-in catalog used when no other source is
// configured. Every entry carries a PROJ definition, so the built-in systems
// do not depend on the PROJ database. Pulkovo 1942 uses the Russia-wide
// shift to WGS 84 (EPSG:1267); GSK-2011 is taken as coincident with WGS 84.
func Default() *Catalog {
	return NewCatalog(
		Entry{Code: 3857, Name: "WGS 84 / Pseudo-Mercator",
			Definition: "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +no_defs"},
		Entry{Code: 4258, Name: "ETRS89",
			Definition: "+proj=longlat +ellps=GRS80 +no_defs"},
		Entry{Code: 4269, Name: "NAD83",
			Definition: "+proj=longlat +datum=NAD83 +no_defs"},
		Entry{Code: 4284, Name: "Pulkovo 1942",
			Definition: "+proj=longlat +ellps=krass " + pulkovoToWGS84 + " +no_defs"},
		Entry{Code: 4326, Name: "WGS 84",
			Definition: "+proj=longlat +datum=WGS84 +no_defs"},
		Entry{Code: 7683, Name: "GSK-2011",
			Definition: "+proj=longlat +a=6378136.5 +rf=298.2564151 +no_defs"},
		Entry{Code: 25832, Name: "ETRS89 / UTM zone 32N",
			Definition: "+proj=utm +zone=32 +ellps=GRS80 +units=m +no_defs"},
		Entry{Code: 28407, Name: "Pulkovo 1942 / Gauss-Kruger zone 7",
			Definition: "+proj=tmerc +lat_0=0 +lon_0=39 +k=1 +x_0=7500000 +y_0=0 +ellps=krass " + pulkovoToWGS84 + " +units=m +no_defs"},
		Entry{Code: 32633, Name: "WGS 84 / UTM zone 33N",
			Definition: "+proj=utm +zone=33 +datum=WGS84 +units=m +no_defs"},
		Entry{Code: 32637, Name: "WGS 84 / UTM zone 37N",
			Definition: "+proj=utm +zone=37 +datum=WGS84 +units=m +no_defs"},
		Entry{Code: 32642, Name: "WGS 84 / UTM zone 42N",
			Definition: "+proj=utm +zone=42 +datum=WGS84 +units=m +no_defs"},
	)
}
