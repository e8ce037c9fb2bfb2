// Package sqldriver implements storage.Driver over database/sql. The sqlite
// and postgres packages embed it with their dialect.
package sqldriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/medrag/pkg/storage"
	"github.com/papercomputeco/medrag/pkg/unit"
)

// Dialect captures the differences between SQL engines.
type Dialect struct {
	// Name is used in error messages.
	Name string

	// TimestampType is the column type for ingestion times.
	TimestampType string

	// NumberedParams selects $1-style placeholders instead of ?.
	NumberedParams bool
}

// SQLite is the dialect for github.com/mattn/go-sqlite3.
var SQLite = Dialect{Name: "sqlite", TimestampType: "DATETIME"}

// Postgres is the dialect for the pgx stdlib driver.
var Postgres = Dialect{Name: "postgres", TimestampType: "TIMESTAMPTZ", NumberedParams: true}

// Driver is a storage.Driver backed by a *sql.DB.
type Driver struct {
	DB      *sql.DB
	Dialect Dialect
}

// Migrate creates the index table if it does not exist.
func (d *Driver) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS index_records (
			id           TEXT PRIMARY KEY,
			source       TEXT NOT NULL,
			type         TEXT NOT NULL,
			content_hash TEXT NOT NULL DEFAULT '',
			start_offset INTEGER NOT NULL DEFAULT 0,
			length       INTEGER NOT NULL DEFAULT 0,
			ingested_at  ` + d.Dialect.TimestampType + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_index_records_source ON index_records(source)`,
	}
	for _, stmt := range stmts {
		if _, err := d.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create %s schema: %w", d.Dialect.Name, err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders for dialects that number them.
func (d *Driver) rebind(query string) string {
	if !d.Dialect.NumberedParams {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Put upserts records in a single transaction.
func (d *Driver) Put(ctx context.Context, records []storage.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	exists := d.rebind(`SELECT 1 FROM index_records WHERE id = ?`)
	upsert := d.rebind(`INSERT INTO index_records (id, source, type, content_hash, start_offset, length, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			source = excluded.source,
			type = excluded.type,
			content_hash = excluded.content_hash,
			start_offset = excluded.start_offset,
			length = excluded.length,
			ingested_at = excluded.ingested_at`)

	inserted := 0
	for _, r := range records {
		if r.ID == "" {
			return 0, fmt.Errorf("cannot store record without id (source %q)", r.Source)
		}

		var one int
		err := tx.QueryRowContext(ctx, exists, r.ID).Scan(&one)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			inserted++
		case err != nil:
			return 0, fmt.Errorf("checking record %s: %w", r.ID, err)
		}

		ingestedAt := r.IngestedAt
		if ingestedAt.IsZero() {
			ingestedAt = time.Now()
		}
		if _, err := tx.ExecContext(ctx, upsert,
			r.ID, r.Source, string(r.Type), r.ContentHash, r.StartOffset, r.Length, ingestedAt.UTC(),
		); err != nil {
			return 0, fmt.Errorf("storing record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

const selectColumns = `SELECT id, source, type, content_hash, start_offset, length, ingested_at FROM index_records`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (storage.Record, error) {
	var (
		r   storage.Record
		typ string
	)
	if err := s.Scan(&r.ID, &r.Source, &typ, &r.ContentHash, &r.StartOffset, &r.Length, &r.IngestedAt); err != nil {
		return storage.Record{}, err
	}
	r.Type = unit.Modality(typ)
	return r, nil
}

// Get retrieves a record by ID.
func (d *Driver) Get(ctx context.Context, id string) (*storage.Record, error) {
	row := d.DB.QueryRowContext(ctx, d.rebind(selectColumns+` WHERE id = ?`), id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	return &r, nil
}

// ListBySource returns the records of one source.
func (d *Driver) ListBySource(ctx context.Context, source string) ([]storage.Record, error) {
	rows, err := d.DB.QueryContext(ctx,
		d.rebind(selectColumns+` WHERE source = ? ORDER BY start_offset, id`), source)
	if err != nil {
		return nil, fmt.Errorf("list records for %s: %w", source, err)
	}
	defer rows.Close()

	var out []storage.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Sources summarizes every source.
func (d *Driver) Sources(ctx context.Context) ([]storage.SourceSummary, error) {
	rows, err := d.DB.QueryContext(ctx,
		`SELECT source, MIN(type), COUNT(*) FROM index_records GROUP BY source ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	out := []storage.SourceSummary{}
	for rows.Next() {
		var (
			s   storage.SourceSummary
			typ string
		)
		if err := rows.Scan(&s.Source, &typ, &s.Units); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		s.Type = unit.Modality(typ)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Count returns the number of records.
func (d *Driver) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM index_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (d *Driver) Close() error {
	return d.DB.Close()
}
