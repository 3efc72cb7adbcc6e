// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package props

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/colophon-press/colophon/lib/sqlitepool"
)

// catalogSchemaVersion invalidates the catalog when the table layout
// changes. The catalog is derived data: on mismatch it is dropped and
// rebuilt from the descriptors, never migrated.
const catalogSchemaVersion = 1

const catalogSchema = `
CREATE TABLE IF NOT EXISTS properties (
	key           TEXT PRIMARY KEY,
	extension     TEXT NOT NULL,
	type          TEXT NOT NULL,
	default_value TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	since         TEXT NOT NULL DEFAULT '',
	locked        INTEGER NOT NULL DEFAULT 0,
	deprecated    INTEGER NOT NULL DEFAULT 0,
	enum_values   TEXT NOT NULL DEFAULT ''
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_properties_extension
	ON properties (extension, key);
`

// Record is one property row in the catalog: a Property flattened
// with its owning extension.
type Record struct {
	Key         string   `json:"key"`
	Extension   string   `json:"extension"`
	Type        string   `json:"type"`
	Default     string   `json:"default,omitempty"`
	Description string   `json:"description,omitempty"`
	Since       string   `json:"since,omitempty"`
	Locked      bool     `json:"locked,omitempty"`
	Deprecated  bool     `json:"deprecated,omitempty"`
	EnumValues  []string `json:"enumValues,omitempty"`
}

// Catalog is the SQLite property catalog. It backs "colophon props
// search" and the all-properties reference page. Safe for concurrent
// use.
type Catalog struct {
	pool *sqlitepool.Pool
}

// OpenCatalog opens (or creates) the catalog database at path.
func OpenCatalog(path string, logger *slog.Logger) (*Catalog, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:      path,
		PoolSize:  4,
		Logger:    logger,
		OnConnect: prepareCatalog,
	})
	if err != nil {
		return nil, fmt.Errorf("opening property catalog: %w", err)
	}
	return &Catalog{pool: pool}, nil
}

// Close closes the catalog's connection pool.
func (c *Catalog) Close() error {
	return c.pool.Close()
}

func prepareCatalog(conn *sqlite.Conn) error {
	var version int64
	err := sqlitex.ExecuteTransient(conn, "PRAGMA user_version", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			version = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		return err
	}

	if version != 0 && version != catalogSchemaVersion {
		// Old layout: drop it and let the schema below recreate it.
		// The catalog is derived data, so the next rebuild repopulates
		// from descriptors; nothing is migrated.
		if err := sqlitex.ExecuteScript(conn, "DROP TABLE IF EXISTS properties;", nil); err != nil {
			return err
		}
	}
	if err := sqlitex.ExecuteScript(conn, catalogSchema, nil); err != nil {
		return err
	}
	if version == catalogSchemaVersion {
		return nil
	}
	return sqlitex.ExecuteTransient(conn,
		fmt.Sprintf("PRAGMA user_version = %d", catalogSchemaVersion), nil)
}

// Rebuild replaces the catalog contents with the given descriptors'
// properties, inside one transaction: a query racing the rebuild sees
// either the old catalog or the new one, never a half-populated mix.
func (c *Catalog) Rebuild(ctx context.Context, descriptors []*Descriptor) (err error) {
	conn, err := c.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer c.pool.Put(conn)

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("beginning catalog rebuild: %w", err)
	}
	defer endFn(&err)

	if err := sqlitex.Execute(conn, "DELETE FROM properties", nil); err != nil {
		return fmt.Errorf("clearing catalog: %w", err)
	}

	for _, descriptor := range descriptors {
		for _, property := range descriptor.Properties {
			enumJSON := ""
			if len(property.EnumValues) > 0 {
				encoded, err := json.Marshal(property.EnumValues)
				if err != nil {
					return fmt.Errorf("encoding enum values for %s: %w", property.Key, err)
				}
				enumJSON = string(encoded)
			}

			err := sqlitex.Execute(conn, `
				INSERT INTO properties
					(key, extension, type, default_value, description,
					 since, locked, deprecated, enum_values)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				&sqlitex.ExecOptions{
					Args: []any{
						property.Key,
						descriptor.Extension,
						property.Type,
						property.Default,
						property.Description,
						property.Since,
						boolToInt(property.LockedAtBuildTime),
						boolToInt(property.Deprecated),
						enumJSON,
					},
				})
			if err != nil {
				return fmt.Errorf("inserting property %s: %w", property.Key, err)
			}
		}
	}
	return nil
}

const recordColumns = `key, extension, type, default_value, description,
	since, locked, deprecated, enum_values`

// Lookup returns the record for an exact key, or nil when the key is
// not in the catalog.
func (c *Catalog) Lookup(ctx context.Context, key string) (*Record, error) {
	records, err := c.query(ctx,
		"SELECT "+recordColumns+" FROM properties WHERE key = ?", key)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Prefix returns every record whose key starts with prefix, ordered
// by key.
func (c *Catalog) Prefix(ctx context.Context, prefix string) ([]Record, error) {
	return c.query(ctx,
		"SELECT "+recordColumns+` FROM properties
		WHERE key LIKE ? ESCAPE '\' ORDER BY key`,
		escapeLike(prefix)+"%")
}

// Search returns every record whose key or description contains the
// query string, ordered by key.
func (c *Catalog) Search(ctx context.Context, query string) ([]Record, error) {
	pattern := "%" + escapeLike(query) + "%"
	return c.query(ctx,
		"SELECT "+recordColumns+` FROM properties
		WHERE key LIKE ?1 ESCAPE '\' OR description LIKE ?1 ESCAPE '\'
		ORDER BY key`,
		pattern)
}

// All returns the whole catalog ordered by extension, then key. This
// is the row source for the all-properties reference page.
func (c *Catalog) All(ctx context.Context) ([]Record, error) {
	return c.query(ctx,
		"SELECT "+recordColumns+" FROM properties ORDER BY extension, key")
}

// Count returns the number of cataloged properties.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	conn, err := c.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer c.pool.Put(conn)

	count := 0
	err = sqlitex.Execute(conn, "SELECT COUNT(*) FROM properties", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			count = stmt.ColumnInt(0)
			return nil
		},
	})
	return count, err
}

func (c *Catalog) query(ctx context.Context, sql string, args ...any) ([]Record, error) {
	conn, err := c.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer c.pool.Put(conn)

	var records []Record
	var scanErr error
	err = sqlitex.Execute(conn, sql, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			record := Record{
				Key:         stmt.ColumnText(0),
				Extension:   stmt.ColumnText(1),
				Type:        stmt.ColumnText(2),
				Default:     stmt.ColumnText(3),
				Description: stmt.ColumnText(4),
				Since:       stmt.ColumnText(5),
				Locked:      stmt.ColumnInt(6) != 0,
				Deprecated:  stmt.ColumnInt(7) != 0,
			}
			if enumJSON := stmt.ColumnText(8); enumJSON != "" {
				if err := json.Unmarshal([]byte(enumJSON), &record.EnumValues); err != nil {
					scanErr = fmt.Errorf("decoding enum values for %s: %w", record.Key, err)
					return scanErr
				}
			}
			records = append(records, record)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return records, nil
}

// escapeLike escapes the LIKE wildcards so user queries match
// literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
