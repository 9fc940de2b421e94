package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/glabrego/gemterm/internal/gemini"
)

// Repository persists trust-on-first-use certificate pins.
type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Fetch workers verify certificates concurrently; writes go through one connection.
	db.SetMaxOpenConns(1)
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS known_hosts (
  host TEXT PRIMARY KEY,
  fingerprint TEXT NOT NULL,
  expires_at TEXT NOT NULL,
  trusted_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS write_check (
  id INTEGER PRIMARY KEY,
  checked_at TEXT NOT NULL
);
`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// CheckWritable verifies the database accepts writes.
func (r *Repository) CheckWritable(ctx context.Context) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := r.db.ExecContext(ctx, `
INSERT INTO write_check (id, checked_at) VALUES (1, ?)
ON CONFLICT(id) DO UPDATE SET checked_at=excluded.checked_at
`, now)
	if err != nil {
		return fmt.Errorf("write check: %w", err)
	}
	return nil
}

func (r *Repository) KnownHost(ctx context.Context, host string) (gemini.HostKey, bool, error) {
	var key gemini.HostKey
	var expiresAt string
	err := r.db.QueryRowContext(ctx, `
SELECT fingerprint, expires_at
FROM known_hosts
WHERE host = ?
`, host).Scan(&key.Fingerprint, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return gemini.HostKey{}, false, nil
	}
	if err != nil {
		return gemini.HostKey{}, false, fmt.Errorf("query known host %s: %w", host, err)
	}

	key.Expires, err = time.Parse(time.RFC3339Nano, expiresAt)
	if err != nil {
		return gemini.HostKey{}, false, fmt.Errorf("parse known host expires_at %q: %w", expiresAt, err)
	}
	return key, true, nil
}

func (r *Repository) TrustHost(ctx context.Context, host string, key gemini.HostKey) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx, `
INSERT INTO known_hosts (host, fingerprint, expires_at, trusted_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(host) DO UPDATE SET
  fingerprint=excluded.fingerprint,
  expires_at=excluded.expires_at,
  trusted_at=excluded.trusted_at
`, host, key.Fingerprint, key.Expires.UTC().Format(time.RFC3339Nano), now)
	if err != nil {
		return fmt.Errorf("save known host %s: %w", host, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ForgetHost drops a pin so the next connection re-pins on first use.
func (r *Repository) ForgetHost(ctx context.Context, host string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM known_hosts WHERE host = ?`, host); err != nil {
		return fmt.Errorf("delete known host %s: %w", host, err)
	}
	return nil
}
