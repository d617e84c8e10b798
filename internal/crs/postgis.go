package crs

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Querier is the read side of a database handle.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
}

const spatialRefSysQuery = `SELECT auth_srid, srtext, proj4text
	FROM spatial_ref_sys
	WHERE auth_name = 'EPSG'
	ORDER BY auth_srid`

// LoadPostGIS reads every EPSG entry of a PostGIS spatial_ref_sys table. The
// name comes from srtext; proj4text is kept as the PROJ definition so codes
// unknown to the local PROJ database still transform.
func LoadPostGIS(ctx context.Context, db Querier) (*Catalog, error) {
	rows, err := db.Query(ctx, spatialRefSysQuery)
	if err != nil {
		return nil, fmt.Errorf("query spatial_ref_sys: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanSpatialRefSys(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read spatial_ref_sys: %w", err)
	}
	return NewCatalog(entries...), nil
}

func scanSpatialRefSys(rows pgx.Rows) (Entry, error) {
	var (
		srid      int32
		srtext    pgtype.Text
		proj4text pgtype.Text
	)
	if err := rows.Scan(&srid, &srtext, &proj4text); err != nil {
		return Entry{}, fmt.Errorf("scan spatial_ref_sys: %w", err)
	}

	code := int(srid)
	return Entry{
		Code:       code,
		Name:       NameFromWKT(srtext.String, code),
		Definition: strings.TrimSpace(proj4text.String),
	}, nil
}
