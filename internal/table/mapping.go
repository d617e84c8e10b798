package table

import (
	"fmt"
	"strconv"
)

// Unset marks a role without a column.
const Unset = -1

// Role is a semantic meaning a column can carry.
type Role string

const (
	RoleName      Role = "name"
	RoleLongitude Role = "longitude"
	RoleLatitude  Role = "latitude"
)

// Header labels written for mapped columns when a paste is committed.
const (
	LabelName      = "Name"
	LabelLongitude = "Longitude/X"
	LabelLatitude  = "Latitude/Y"

	// NotUsedLabel is the selector entry that leaves a role unset.
	NotUsedLabel = "Not used"
)

// ColumnMapping assigns roles to column indices. Each index is either Unset
// or a valid column of the grid it is applied to.
type ColumnMapping struct {
	Name      int `json:"name"`
	Longitude int `json:"longitude"`
	Latitude  int `json:"latitude"`
}

// UnsetMapping returns a mapping with every role unset.
func UnsetMapping() ColumnMapping {
	return ColumnMapping{Name: Unset, Longitude: Unset, Latitude: Unset}
}

// HasName reports whether the name role is assigned.
func (m ColumnMapping) HasName() bool { return m.Name != Unset }

// HasCoordinates reports whether both coordinate roles are assigned.
func (m ColumnMapping) HasCoordinates() bool {
	return m.Longitude != Unset && m.Latitude != Unset
}

// Require returns a MappingIncompleteError naming every unset coordinate role.
func (m ColumnMapping) Require() error {
	var missing []Role
	if m.Longitude == Unset {
		missing = append(missing, RoleLongitude)
	}
	if m.Latitude == Unset {
		missing = append(missing, RoleLatitude)
	}
	if len(missing) > 0 {
		return &MappingIncompleteError{Missing: missing}
	}
	return nil
}

// Validate checks the mapping against a grid with the given column count.
func (m ColumnMapping) Validate(columns int) error {
	roles := []struct {
		role  Role
		index int
	}{
		{RoleName, m.Name},
		{RoleLongitude, m.Longitude},
		{RoleLatitude, m.Latitude},
	}
	for _, r := range roles {
		if r.index == Unset {
			continue
		}
		if r.index < 0 || r.index >= columns {
			return &InvalidMappingError{
				Role:    r.role,
				Index:   r.index,
				Columns: columns,
				Reason:  fmt.Sprintf("table has %d columns", columns),
			}
		}
	}
	if m.Longitude != Unset && m.Longitude == m.Latitude {
		return &InvalidMappingError{
			Role:    RoleLatitude,
			Index:   m.Latitude,
			Columns: columns,
			Reason:  "longitude and latitude must use different columns",
		}
	}
	return nil
}

// DefaultLabel is the positional header for a column without a role.
func DefaultLabel(col int) string {
	return "Column " + strconv.Itoa(col+1)
}

// DefaultHeader returns positional labels for n columns.
func DefaultHeader(n int) Header {
	h := make(Header, n)
	for i := range h {
		h[i] = DefaultLabel(i)
	}
	return h
}

// HeaderFor returns positional labels with the mapped columns renamed to
// their role labels.
func HeaderFor(columns int, m ColumnMapping) Header {
	h := DefaultHeader(columns)
	if m.Name >= 0 && m.Name < columns {
		h[m.Name] = LabelName
	}
	if m.Longitude >= 0 && m.Longitude < columns {
		h[m.Longitude] = LabelLongitude
	}
	if m.Latitude >= 0 && m.Latitude < columns {
		h[m.Latitude] = LabelLatitude
	}
	return h
}

// MappingOption is one entry of a role selector.
type MappingOption struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// MappingOptions builds the selector entries offered for every role: "Not
// used" first, then one entry per column labelled with its 1-based position
// and the value found in the first pasted row.
func MappingOptions(firstRow []string) []MappingOption {
	opts := make([]MappingOption, 0, len(firstRow)+1)
	opts = append(opts, MappingOption{Index: Unset, Label: NotUsedLabel})
	for i, cell := range firstRow {
		opts = append(opts, MappingOption{
			Index: i,
			Label: fmt.Sprintf("%s (%s)", DefaultLabel(i), cell),
		})
	}
	return opts
}
