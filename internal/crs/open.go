package crs

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/coordgrid/internal/config"
)

// LoadPath reads a catalog from a Key,Value CSV file or from a directory of
// EPSG-CRS-<code>.wkt files.
func LoadPath(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if info.IsDir() {
		return LoadWKTDir(os.DirFS(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCSV(f)
}

// Open builds the catalog used at runtime: the built-in list, then the
// configured file or directory, then PostGIS spatial_ref_sys when a database
// is configured. Later sources win for the same code.
func Open(ctx context.Context, cat config.CatalogConfig, db config.DatabaseConfig) (*Catalog, error) {
	catalog := Default()

	if cat.Path != "" {
		fromPath, err := LoadPath(cat.Path)
		if err != nil {
			return nil, err
		}
		catalog = catalog.Merge(fromPath)
		slog.Info("crs catalog loaded from path", "path", cat.Path, "entries", fromPath.Len())
	}

	if db.Enabled() {
		fromDB, err := loadFromDatabase(ctx, db)
		if err != nil {
			return nil, err
		}
		catalog = catalog.Merge(fromDB)
		slog.Info("crs catalog loaded from database", "entries", fromDB.Len())
	}

	return catalog, nil
}

// loadFromDatabase connects, reads spatial_ref_sys once and closes the pool.
func loadFromDatabase(ctx context.Context, db config.DatabaseConfig) (*Catalog, error) {
	ctx, cancel := context.WithTimeout(ctx, db.ConnectTimeout)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(db.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(db.MaxConns)
	poolConfig.MinConns = int32(db.MinConns)
	poolConfig.MaxConnIdleTime = db.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(db.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	return LoadPostGIS(ctx, pool)
}
