// Package receipts keeps a row per processed item and run so that operators
// can see what a run touched and spot records whose content did not change.
package receipts

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/unitedstates/congress-sub000/pkg/runner"
)

// Dialect selects the SQL placeholder style and schema flavor.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Store writes receipts to a SQL database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// Open connects to the receipts database and creates the table if needed.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	switch dialect {
	case SQLite, Postgres:
	default:
		return nil, fmt.Errorf("unsupported receipts driver %q", dialect)
	}
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open receipts db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect receipts db: %w", err)
	}
	s, err := New(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	s := &Store{db: db, dialect: dialect, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	createdAt := "TEXT"
	if s.dialect == Postgres {
		createdAt = "TIMESTAMPTZ"
	}
	query := `CREATE TABLE IF NOT EXISTS receipts (
		receipt_id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		task TEXT NOT NULL,
		item_id TEXT NOT NULL,
		ok BOOLEAN NOT NULL,
		saved BOOLEAN NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		content_hash TEXT NOT NULL DEFAULT '',
		created_at ` + createdAt + ` NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create receipts table: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) bind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

// Record implements runner.Recorder.
func (s *Store) Record(ctx context.Context, runID, task string, o runner.Outcome) error {
	reason := o.Result.Reason
	if o.Err != nil {
		reason = o.Err.Error()
	}
	var hash string
	if len(o.Result.Record) > 0 {
		h, err := ContentHash(o.Result.Record)
		if err != nil {
			return err
		}
		hash = h
	}
	var createdAt any = s.now().UTC().Format(time.RFC3339Nano)
	if s.dialect == Postgres {
		createdAt = s.now().UTC()
	}
	query := s.bind(`INSERT INTO receipts (receipt_id, run_id, task, item_id, ok, saved, reason, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(), runID, task, o.Item, o.Err == nil && o.Result.OK, o.Result.Saved, reason, hash, createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}
	return nil
}

// LastHash returns the most recent non-empty content hash recorded for item.
func (s *Store) LastHash(ctx context.Context, task, item string) (string, bool, error) {
	query := s.bind(`SELECT content_hash FROM receipts
		WHERE task = ? AND item_id = ? AND content_hash <> ''
		ORDER BY created_at DESC LIMIT 1`)
	var hash string
	err := s.db.QueryRowContext(ctx, query, task, item).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query receipts: %w", err)
	}
	return hash, true, nil
}

// ContentHash is the hex SHA-256 of the RFC 8785 canonical form of a JSON
// record, so formatting differences do not change it.
func ContentHash(record []byte) (string, error) {
	canonical, err := jcs.Transform(record)
	if err != nil {
		return "", fmt.Errorf("canonicalize record: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
