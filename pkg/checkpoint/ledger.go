package checkpoint

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS hydrated (
	category    TEXT NOT NULL,
	item_id     TEXT NOT NULL,
	hydrated_at INTEGER NOT NULL DEFAULT (unixepoch()),
	PRIMARY KEY (category, item_id)
) WITHOUT ROWID;
`

// Ledger is the durable set of (category, ID) pairs already hydrated
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens or creates the SQLite ledger at path
func OpenLedger(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(ledgerSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Has reports whether id was already hydrated for category
func (l *Ledger) Has(ctx context.Context, category, id string) (bool, error) {
	var one int
	err := l.db.QueryRowContext(ctx,
		`SELECT 1 FROM hydrated WHERE category = ? AND item_id = ?`, category, id).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	return true, nil
}

// Mark records id as hydrated for category; marking twice is a no-op
func (l *Ledger) Mark(ctx context.Context, category, id string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO hydrated (category, item_id) VALUES (?, ?)`, category, id)
	if err != nil {
		return fmt.Errorf("ledger mark: %w", err)
	}
	return nil
}

// Count returns the number of hydrated IDs for category
func (l *Ledger) Count(ctx context.Context, category string) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM hydrated WHERE category = ?`, category).Scan(&n); err != nil {
		return 0, fmt.Errorf("ledger count: %w", err)
	}
	return n, nil
}

// Close closes the database
func (l *Ledger) Close() error {
	return l.db.Close()
}
